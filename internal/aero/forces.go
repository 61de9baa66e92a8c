package aero

import (
	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Wrench is the force and moment acting at a lattice vertex, global frame.
type Wrench struct {
	Force  r3.Vec
	Moment r3.Vec
}

// Forces is indexed [surface][m][n] like the lattice.
type Forces [][][]Wrench

// NewForces allocates zero wrenches matching mesh.
func NewForces(mesh *Mesh) Forces {
	f := make(Forces, len(mesh.Surfaces))
	for i, s := range mesh.Surfaces {
		f[i] = make([][]Wrench, s.M+1)
		for m := range f[i] {
			f[i][m] = make([]Wrench, s.N+1)
		}
	}
	return f
}

// Validate checks that f covers every vertex of mesh.
func (f Forces) Validate(mesh *Mesh) error {
	if len(f) != len(mesh.Surfaces) {
		return dynamo.Errorf(dynamo.ErrDimensionMismatch, "aero", "forces", "%d surfaces, mesh has %d", len(f), len(mesh.Surfaces))
	}
	for i, s := range mesh.Surfaces {
		if len(f[i]) != s.M+1 {
			return dynamo.IndexError(dynamo.ErrDimensionMismatch, "aero", "forces", i, "%d rows, want %d", len(f[i]), s.M+1)
		}
		for m := range f[i] {
			if len(f[i][m]) != s.N+1 {
				return dynamo.IndexError(dynamo.ErrDimensionMismatch, "aero", "forces", i, "row %d has %d columns, want %d", m, len(f[i][m]), s.N+1)
			}
		}
	}
	return nil
}

// Velocities is indexed [surface][m][n] like the lattice.
type Velocities [][][]r3.Vec

func NewVelocities(mesh *Mesh) Velocities {
	u := make(Velocities, len(mesh.Surfaces))
	for i, s := range mesh.Surfaces {
		u[i] = make([][]r3.Vec, s.M+1)
		for m := range u[i] {
			u[i][m] = make([]r3.Vec, s.N+1)
		}
	}
	return u
}

// SteadyVelocityField is a uniform free stream.
type SteadyVelocityField struct {
	UInf      float64
	Direction r3.Vec
}

// Generate adds the free stream to every vertex velocity of uext. With
// override set uext is zeroed first.
func (v SteadyVelocityField) Generate(mesh *Mesh, uext Velocities, override bool) error {
	if len(uext) != len(mesh.Surfaces) {
		return dynamo.Errorf(dynamo.ErrDimensionMismatch, "velocity", "uext", "%d surfaces, mesh has %d", len(uext), len(mesh.Surfaces))
	}
	u := r3.Scale(v.UInf, v.Direction)
	for i, s := range mesh.Surfaces {
		if len(uext[i]) != s.M+1 {
			return dynamo.IndexError(dynamo.ErrDimensionMismatch, "velocity", "uext", i, "%d rows, want %d", len(uext[i]), s.M+1)
		}
		for m := range uext[i] {
			if len(uext[i][m]) != s.N+1 {
				return dynamo.IndexError(dynamo.ErrDimensionMismatch, "velocity", "uext", i, "row %d has %d columns", m, len(uext[i][m]))
			}
			for n := range uext[i][m] {
				if override {
					uext[i][m][n] = r3.Vec{}
				}
				uext[i][m][n] = r3.Add(uext[i][m][n], u)
			}
		}
	}
	return nil
}
