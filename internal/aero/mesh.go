// Package aero holds the lifting-surface lattice, the table linking it to
// structural nodes, and the aerodynamic state carried by a stability mode.
package aero

import (
	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is a structured lattice of (M+1)x(N+1) vertices in the global
// frame, addressed Zeta[m][n] with m chordwise and n spanwise.
type Surface struct {
	M, N int
	Zeta [][]r3.Vec
}

// NewSurface allocates a zero lattice.
func NewSurface(m, n int) Surface {
	zeta := make([][]r3.Vec, m+1)
	for i := range zeta {
		zeta[i] = make([]r3.Vec, n+1)
	}
	return Surface{M: m, N: n, Zeta: zeta}
}

func (s *Surface) Clone() Surface {
	out := Surface{M: s.M, N: s.N, Zeta: make([][]r3.Vec, len(s.Zeta))}
	for i, row := range s.Zeta {
		out.Zeta[i] = append([]r3.Vec(nil), row...)
	}
	return out
}

// Panels returns the number of bound panels.
func (s *Surface) Panels() int { return s.M * s.N }

type Mesh struct {
	Surfaces []Surface
}

func (a *Mesh) Validate() error {
	for i, s := range a.Surfaces {
		if s.M < 1 || s.N < 1 {
			return dynamo.IndexError(dynamo.ErrInvalidInput, "aero", "surface", i, "%dx%d panels", s.M, s.N)
		}
		if len(s.Zeta) != s.M+1 {
			return dynamo.IndexError(dynamo.ErrDimensionMismatch, "aero", "surface", i,
				"%d chordwise vertex rows, want %d", len(s.Zeta), s.M+1)
		}
		for m, row := range s.Zeta {
			if len(row) != s.N+1 {
				return dynamo.IndexError(dynamo.ErrDimensionMismatch, "aero", "surface", i,
					"row %d has %d spanwise vertices, want %d", m, len(row), s.N+1)
			}
		}
	}
	return nil
}

// Clone deep-copies every lattice.
func (a *Mesh) Clone() *Mesh {
	out := &Mesh{Surfaces: make([]Surface, len(a.Surfaces))}
	for i := range a.Surfaces {
		out.Surfaces[i] = a.Surfaces[i].Clone()
	}
	return out
}

// Panels returns the bound panel count over all surfaces.
func (a *Mesh) Panels() int {
	n := 0
	for i := range a.Surfaces {
		n += a.Surfaces[i].Panels()
	}
	return n
}

// StripRef names the chordwise strip at spanwise station Span of a surface.
type StripRef struct {
	Surface int `yaml:"surface"`
	Span    int `yaml:"span"`
}

// Struct2Aero lists, per structural node, the strips that node controls.
// A node with no entry is purely structural.
type Struct2Aero [][]StripRef

// Validate checks the table against both meshes.
func (s Struct2Aero) Validate(numNodes int, mesh *Mesh) error {
	if len(s) > numNodes {
		return dynamo.Errorf(dynamo.ErrDimensionMismatch, "aero", "struct2aero", "%d entries for %d nodes", len(s), numNodes)
	}
	for node, strips := range s {
		for _, ref := range strips {
			if err := ref.Check(mesh); err != nil {
				return dynamo.IndexError(dynamo.ErrIndexOutOfRange, "aero", "node", node, "%v", err)
			}
		}
	}
	return nil
}

// Strips returns the strips of a node, nil when it has none.
func (s Struct2Aero) Strips(node int) []StripRef {
	if node < 0 || node >= len(s) {
		return nil
	}
	return s[node]
}

// Check reports whether the strip exists on mesh.
func (r StripRef) Check(mesh *Mesh) error {
	if r.Surface < 0 || r.Surface >= len(mesh.Surfaces) {
		return dynamo.Errorf(dynamo.ErrIndexOutOfRange, "aero", "surface", "%d of %d", r.Surface, len(mesh.Surfaces))
	}
	if n := mesh.Surfaces[r.Surface].N; r.Span < 0 || r.Span > n {
		return dynamo.Errorf(dynamo.ErrIndexOutOfRange, "aero", "span", "%d outside [0, %d] on surface %d", r.Span, n, r.Surface)
	}
	return nil
}
