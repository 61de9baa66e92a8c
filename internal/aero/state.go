package aero

import (
	"github.com/san-kum/aeromodal/internal/dynamo"
)

// State is the aerodynamic part of a mode: bound circulation, its rate and
// the wake circulation, all indexed [surface][m][n]. Forces holds the
// vertex wrenches when the state vector carries them.
type State struct {
	Forces    Forces
	Gamma     [][][]complex128
	GammaDot  [][][]complex128
	GammaStar [][][]complex128
}

// Unpacker splits an aerodynamic state vector into lattice quantities.
type Unpacker interface {
	Unpack(x []complex128, ref *Mesh) (*State, error)
}

// BlockUnpacker reads states laid out as [Γ; Γ*; Γ̇], each block holding
// the surfaces in order with rows of N panels. WakeRows gives the chordwise
// wake panel count per surface.
type BlockUnpacker struct {
	WakeRows []int
}

// Len returns the expected state length for mesh.
func (u *BlockUnpacker) Len(mesh *Mesh) (int, error) {
	if len(u.WakeRows) != len(mesh.Surfaces) {
		return 0, dynamo.Errorf(dynamo.ErrDimensionMismatch, "unpack", "wake_rows", "%d entries, mesh has %d surfaces",
			len(u.WakeRows), len(mesh.Surfaces))
	}
	bound, wake := 0, 0
	for i, s := range mesh.Surfaces {
		if u.WakeRows[i] < 0 {
			return 0, dynamo.IndexError(dynamo.ErrInvalidInput, "unpack", "wake_rows", i, "negative row count %d", u.WakeRows[i])
		}
		bound += s.M * s.N
		wake += u.WakeRows[i] * s.N
	}
	return 2*bound + wake, nil
}

func (u *BlockUnpacker) Unpack(x []complex128, ref *Mesh) (*State, error) {
	if ref == nil {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "unpack", "reference", "no reference lattice")
	}
	want, err := u.Len(ref)
	if err != nil {
		return nil, err
	}
	if len(x) != want {
		return nil, dynamo.Errorf(dynamo.ErrDimensionMismatch, "unpack", "x", "length %d, want %d", len(x), want)
	}

	// the block layout has no force states
	st := &State{Forces: NewForces(ref)}
	off := 0
	take := func(rows, cols int) [][]complex128 {
		g := make([][]complex128, rows)
		for m := range g {
			g[m] = append([]complex128(nil), x[off:off+cols]...)
			off += cols
		}
		return g
	}
	for _, s := range ref.Surfaces {
		st.Gamma = append(st.Gamma, take(s.M, s.N))
	}
	for i, s := range ref.Surfaces {
		st.GammaStar = append(st.GammaStar, take(u.WakeRows[i], s.N))
	}
	for _, s := range ref.Surfaces {
		st.GammaDot = append(st.GammaDot, take(s.M, s.N))
	}
	return st, nil
}
