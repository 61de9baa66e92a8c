package mapping

import (
	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/algebra"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/structure"
	"gonum.org/v1/gonum/spatial/r3"
)

// ModeZeta returns the lattice displaced by the elastic field eig. Every
// vertex of a strip keeps its reference offset from the controlling node,
// expressed in that node's local frame, and is carried by the node's
// displaced position and finite rotation. Clamped nodes and nodes without
// strips leave the reference lattice untouched. Entries of eig beyond the
// elastic DOFs are ignored.
func ModeZeta(eig []float64, mesh *structure.Mesh, lattice *aero.Mesh, table aero.Struct2Aero) (*aero.Mesh, error) {
	if err := lattice.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(len(mesh.Nodes), lattice); err != nil {
		return nil, err
	}
	if n := mesh.NumDOF(); len(eig) < n {
		return nil, dynamo.Errorf(dynamo.ErrDimensionMismatch, "mode_zeta", "eigenvector", "length %d, mesh has %d elastic DOFs", len(eig), n)
	}

	master, err := mesh.Master()
	if err != nil {
		return nil, err
	}
	cga, err := mesh.Cga()
	if err != nil {
		return nil, err
	}
	cag := cga.Transpose()
	dof := mesh.DOFIndex()

	out := lattice.Clone()
	for node, jj := range dof {
		if jj < 0 {
			continue
		}
		strips := table.Strips(node)
		if len(strips) == 0 {
			continue
		}

		pos0 := mesh.Nodes[node].Pos
		psi0 := mesh.Psi(master[node])
		rg0 := cga.Apply(pos0)

		cab0 := algebra.Rotation{Mat: algebra.CRVToRotation(psi0), From: algebra.FrameLocal, To: algebra.FrameBody}
		cbg0, err := cag.Then(cab0.Transpose())
		if err != nil {
			return nil, err
		}

		ra := r3.Add(pos0, r3.Vec{X: eig[jj], Y: eig[jj+1], Z: eig[jj+2]})
		psi := r3.Add(psi0, r3.Vec{X: eig[jj+3], Y: eig[jj+4], Z: eig[jj+5]})
		rg := cga.Apply(ra)

		cab := algebra.Rotation{Mat: algebra.CRVToRotation(psi), From: algebra.FrameLocal, To: algebra.FrameBody}
		cgb, err := cab.Then(cga)
		if err != nil {
			return nil, err
		}

		for _, ref := range strips {
			ref0 := lattice.Surfaces[ref.Surface].Zeta
			dst := out.Surfaces[ref.Surface].Zeta
			for m := range ref0 {
				xb := cbg0.Apply(r3.Sub(ref0[m][ref.Span], rg0))
				dst[m][ref.Span] = r3.Add(rg, cgb.Apply(xb))
			}
		}
	}
	return out, nil
}

// Displacement returns |ζ - ζ0| for every vertex, indexed like the lattice.
func Displacement(zeta, ref *aero.Mesh) ([][][]float64, error) {
	if len(zeta.Surfaces) != len(ref.Surfaces) {
		return nil, dynamo.Errorf(dynamo.ErrDimensionMismatch, "displacement", "surfaces", "%d vs %d", len(zeta.Surfaces), len(ref.Surfaces))
	}
	out := make([][][]float64, len(ref.Surfaces))
	for i := range ref.Surfaces {
		a, b := zeta.Surfaces[i], ref.Surfaces[i]
		if a.M != b.M || a.N != b.N {
			return nil, dynamo.IndexError(dynamo.ErrDimensionMismatch, "displacement", "surface", i, "%dx%d vs %dx%d", a.M, a.N, b.M, b.N)
		}
		out[i] = make([][]float64, b.M+1)
		for m := range out[i] {
			out[i][m] = make([]float64, b.N+1)
			for n := range out[i][m] {
				out[i][m][n] = r3.Norm(r3.Sub(a.Zeta[m][n], b.Zeta[m][n]))
			}
		}
	}
	return out, nil
}
