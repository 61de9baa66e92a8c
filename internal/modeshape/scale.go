// Package modeshape sizes eigenvectors for display and turns them into
// displaced aerodynamic lattices.
package modeshape

import (
	"math"

	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/structure"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Rotations below this many degrees do not constrain the factor.
	minRotationDeg = 1e-4
	// Translations below this norm do not constrain the factor.
	minTranslation = 1e-12
)

type Limits struct {
	MaxRotationDeg float64
	// MaxDisplacement is a fraction of the largest reference node distance.
	MaxDisplacement float64
}

func DefaultLimits() Limits {
	return Limits{MaxRotationDeg: config.DefaultMaxRotationDeg, MaxDisplacement: config.DefaultMaxDisplacement}
}

func LimitsFrom(cfg config.ScalingConfig) Limits {
	return Limits{MaxRotationDeg: cfg.MaxRotationDeg, MaxDisplacement: cfg.MaxDisplacement}
}

func (l Limits) Validate() error {
	if !(l.MaxRotationDeg > 0) {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "scale", "max_rotation_deg", "must be positive, got %g", l.MaxRotationDeg)
	}
	if !(l.MaxDisplacement > 0) || l.MaxDisplacement > 1 {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "scale", "max_displacement", "must lie in (0, 1], got %g", l.MaxDisplacement)
	}
	return nil
}

// Peaks summarises an elastic field over the free nodes.
type Peaks struct {
	RotationDeg float64
	Translation float64
	Position    float64
}

func peaks(mesh *structure.Mesh, eig []float64) (Peaks, error) {
	if n := mesh.NumDOF(); len(eig) < n {
		return Peaks{}, dynamo.Errorf(dynamo.ErrDimensionMismatch, "scale", "eigenvector", "length %d, mesh has %d elastic DOFs", len(eig), n)
	}
	var p Peaks
	for node, jj := range mesh.DOFIndex() {
		if jj < 0 {
			continue
		}
		rot := eig[jj+3 : jj+6]
		if r := math.Max(math.Abs(floats.Max(rot)), math.Abs(floats.Min(rot))); r > p.RotationDeg {
			p.RotationDeg = r
		}
		if d := r3.Norm(r3.Vec{X: eig[jj], Y: eig[jj+1], Z: eig[jj+2]}); d > p.Translation {
			p.Translation = d
		}
		if ra := r3.Norm(mesh.Nodes[node].Pos); ra > p.Position {
			p.Position = ra
		}
	}
	p.RotationDeg *= 180 / math.Pi
	return p, nil
}

// Scale returns the factor that brings the peak rotation to the rotation
// limit, unless that would push the peak translation past its limit, in
// which case translation sets the factor. Negligible rotation or
// translation content drops the matching criterion; with both dropped the
// factor is 1.
func Scale(mesh *structure.Mesh, eig []float64, lim Limits) (float64, error) {
	if err := lim.Validate(); err != nil {
		return 0, err
	}
	p, err := peaks(mesh, eig)
	if err != nil {
		return 0, err
	}

	maxTranslation := lim.MaxDisplacement * p.Position
	translating := p.Translation >= minTranslation

	if p.RotationDeg > minRotationDeg {
		fact := lim.MaxRotationDeg / p.RotationDeg
		if translating && p.Translation*fact > maxTranslation {
			fact = maxTranslation / p.Translation
		}
		return fact, nil
	}
	if !translating {
		return 1, nil
	}
	return maxTranslation / p.Translation, nil
}

// ScaleMode returns a scaled copy of eig together with the factor used.
func ScaleMode(mesh *structure.Mesh, eig []float64, lim Limits) ([]float64, float64, error) {
	fact, err := Scale(mesh, eig, lim)
	if err != nil {
		return nil, 0, err
	}
	out := append([]float64(nil), eig...)
	floats.Scale(fact, out)
	return out, fact, nil
}
