// Package modal extracts the free-vibration modes of the structure, either
// from the conservative (M, K) problem or from the first-order damped
// system, and normalises them for projection.
package modal

import (
	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

type Kind string

const (
	Undamped Kind = "undamped"
	Damped   Kind = "damped"
)

// NumRigidDOF is the size of the rigid-body block appended after the
// elastic unknowns: three translations, three rotations and the four
// quaternion components.
const NumRigidDOF = 10

// DampingWarning is reported when a damped system is projected on undamped
// modes.
const DampingWarning = "system with damping: mode shapes and natural frequencies do not account for damping!"

// Basis is the result of a modal solve. Column j of every matrix belongs to
// Eigenvalues[j]. Eigenvector rows are the DOFs for undamped modes and
// [displacement; velocity] for damped modes; in both cases the elastic
// unknowns come first and the rigid-body unknowns follow.
type Basis struct {
	Kind             Kind
	Eigenvalues      []complex128
	Eigenvectors     *mat.CDense
	LeftEigenvectors *mat.CDense

	// FreqNatural holds |λ| for damped modes and Re(√λ) for undamped ones.
	// The undamped root is taken in complex arithmetic, so a slightly
	// negative rigid-body eigenvalue yields a zero natural frequency and
	// its imaginary part is dropped.
	FreqNatural []float64
	FreqDamped  []float64
	Damping     []float64

	// Ccut is ΦᵀCΦ, set for undamped modes of a damped system.
	Ccut *mat.CDense
	// KinDamp maps nodal forces onto damped modal coordinates.
	KinDamp *mat.CDense

	M, C, K *mat.Dense

	Warning                        string
	ProjectedOnUndampedWithDamping bool

	NumDOF      int
	NumRigidDOF int
}

func (b *Basis) Len() int { return len(b.Eigenvalues) }

// Frequencies returns the damped frequencies when available, the natural
// ones otherwise.
func (b *Basis) Frequencies() []float64 {
	if b.FreqDamped != nil {
		return b.FreqDamped
	}
	return b.FreqNatural
}

// ElasticVector returns the real part of the elastic displacement rows of
// mode i.
func (b *Basis) ElasticVector(i int) ([]float64, error) {
	if i < 0 || i >= b.Len() {
		return nil, dynamo.IndexError(dynamo.ErrIndexOutOfRange, "modal", "mode", i, "basis holds %d modes", b.Len())
	}
	out := make([]float64, b.NumDOF)
	for r := range out {
		out[r] = real(b.Eigenvectors.At(r, i))
	}
	return out, nil
}
