// Package mapping moves data between the beam nodes and the aerodynamic
// lattice: vertex wrenches onto nodal generalised forces, and nodal
// displacements onto lattice vertex positions.
package mapping

import (
	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/algebra"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/structure"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodalForces holds [Fx Fy Fz Mx My Mz] per structural node in the local
// beam frame B.
type NodalForces [][6]float64

// Force returns the translational block of node i.
func (f NodalForces) Force(i int) r3.Vec { return r3.Vec{X: f[i][0], Y: f[i][1], Z: f[i][2]} }

// Moment returns the rotational block of node i.
func (f NodalForces) Moment(i int) r3.Vec { return r3.Vec{X: f[i][3], Y: f[i][4], Z: f[i][5]} }

func (f NodalForces) add(i int, force, moment r3.Vec) {
	f[i][0] += force.X
	f[i][1] += force.Y
	f[i][2] += force.Z
	f[i][3] += moment.X
	f[i][4] += moment.Y
	f[i][5] += moment.Z
}

// AeroToStructForces lumps lattice wrenches onto the structural nodes
// controlling each strip. Nodes are visited in element order and each is
// handled once, using the rotation state of the first element referencing
// it. cag rotates G into A; nil means the frames coincide.
func AeroToStructForces(forces aero.Forces, table aero.Struct2Aero, lattice *aero.Mesh,
	mesh *structure.Mesh, cag *algebra.Rotation) (NodalForces, error) {
	if err := lattice.Validate(); err != nil {
		return nil, err
	}
	if err := forces.Validate(lattice); err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(len(mesh.Nodes), lattice); err != nil {
		return nil, err
	}

	g2a := algebra.Identity(algebra.FrameGlobal, algebra.FrameBody)
	if cag != nil {
		if cag.From != algebra.FrameGlobal || cag.To != algebra.FrameBody {
			return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "mapping", "cag", "expected G->A, got %s->%s", cag.From, cag.To)
		}
		g2a = *cag
	}
	a2g := g2a.Transpose()

	out := make(NodalForces, len(mesh.Nodes))
	visited := make([]bool, len(mesh.Nodes))

	for _, el := range mesh.Elements {
		for local, node := range el.Conn {
			if visited[node] {
				continue
			}
			visited[node] = true

			strips := table.Strips(node)
			if len(strips) == 0 {
				continue
			}

			cab := algebra.Rotation{Mat: algebra.CRVToRotation(el.Psi[local]), From: algebra.FrameLocal, To: algebra.FrameBody}
			cbg, err := g2a.Then(cab.Transpose())
			if err != nil {
				return nil, err
			}
			origin := a2g.Apply(mesh.Nodes[node].Pos)

			for _, ref := range strips {
				s := lattice.Surfaces[ref.Surface]
				for m := 0; m <= s.M; m++ {
					w := forces[ref.Surface][m][ref.Span]
					chi := r3.Sub(s.Zeta[m][ref.Span], origin)
					moment := r3.Add(cbg.Apply(w.Moment), cbg.Apply(r3.Cross(chi, w.Force)))
					out.add(node, cbg.Apply(w.Force), moment)
				}
			}
		}
	}
	return out, nil
}
