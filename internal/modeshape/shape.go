package modeshape

import (
	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/mapping"
	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/structure"
)

// Shape is a scaled mode carried onto the aerodynamic lattice.
type Shape struct {
	Mode         int
	Factor       float64
	Zeta         *aero.Mesh
	Displacement [][][]float64
}

// Build scales the elastic field eig and displaces the lattice with it.
func Build(mode int, eig []float64, mesh *structure.Mesh, lattice *aero.Mesh, table aero.Struct2Aero, lim Limits) (*Shape, error) {
	scaled, fact, err := ScaleMode(mesh, eig, lim)
	if err != nil {
		return nil, err
	}
	zeta, err := mapping.ModeZeta(scaled, mesh, lattice, table)
	if err != nil {
		return nil, err
	}
	disp, err := mapping.Displacement(zeta, lattice)
	if err != nil {
		return nil, err
	}
	return &Shape{Mode: mode, Factor: fact, Zeta: zeta, Displacement: disp}, nil
}

// Prepare builds a shape for every retained mode of b. Rigid-body modes
// lead the basis when they were requested: the first NumRigidDOF modes are
// skipped and as many are dropped from the end of the first numModes.
// numModes <= 0 covers the whole basis.
func Prepare(b *modal.Basis, numModes int, mesh *structure.Mesh, lattice *aero.Mesh, table aero.Struct2Aero, lim Limits) ([]Shape, error) {
	first, last := b.NumRigidDOF, b.Len()
	if numModes > 0 && numModes-b.NumRigidDOF < last {
		last = numModes - b.NumRigidDOF
	}
	var shapes []Shape
	for i := first; i < last; i++ {
		eig, err := b.ElasticVector(i)
		if err != nil {
			return nil, err
		}
		s, err := Build(i, eig, mesh, lattice, table, lim)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, *s)
	}
	return shapes, nil
}
