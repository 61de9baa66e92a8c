package viz

import (
	"math"
	"sort"

	"github.com/san-kum/aeromodal/internal/aero"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera manages 3D projection to a 2D plane.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

// NewCamera looks at the lattice from above and slightly behind, so that
// vertical deflection stays visible.
func NewCamera() *Camera {
	return &Camera{Distance: 50, Near: 0.1, RotX: -1.0, RotZ: 0.3, Zoom: 1.0}
}

func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project converts 3D world coordinates to 2D screen coordinates.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.rotate(p))
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := float64(min(sw, sh)) / 2.5
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End r3.Vec
}

// Wireframe is a set of edges in a normalised frame centred on the origin.
type Wireframe struct{ Edges []Edge }

// LatticeWireframe collects the panel edges of every surface. Coordinates
// are shifted and scaled with the reference lattice so that deformed and
// undeformed views share a frame.
func LatticeWireframe(zeta, ref *aero.Mesh) *Wireframe {
	centre, half := extent(ref)
	norm := func(p r3.Vec) r3.Vec { return r3.Scale(1/half, r3.Sub(p, centre)) }

	w := &Wireframe{}
	for _, s := range zeta.Surfaces {
		for m := 0; m <= s.M; m++ {
			for n := 0; n <= s.N; n++ {
				p := norm(s.Zeta[m][n])
				if m < s.M {
					w.Edges = append(w.Edges, Edge{p, norm(s.Zeta[m+1][n])})
				}
				if n < s.N {
					w.Edges = append(w.Edges, Edge{p, norm(s.Zeta[m][n+1])})
				}
			}
		}
	}
	return w
}

func extent(mesh *aero.Mesh) (r3.Vec, float64) {
	first := true
	var lo, hi r3.Vec
	for _, s := range mesh.Surfaces {
		for _, row := range s.Zeta {
			for _, p := range row {
				if first {
					lo, hi, first = p, p, false
					continue
				}
				lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
				hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
			}
		}
	}
	centre := r3.Scale(0.5, r3.Add(lo, hi))
	half := 0.5 * math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	if half == 0 {
		half = 1
	}
	return centre, half
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe to the canvas using a simple painter's algorithm.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	pw, ph := c.Pixels()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, pw, ph)
		x2, y2, d2, v2 := cam.Project(e.End, pw, ph)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}

// RenderLattice draws zeta on a w x h character canvas.
func RenderLattice(zeta, ref *aero.Mesh, cam *Camera, w, h int) string {
	c := NewCanvas(w, h)
	Render3D(c, LatticeWireframe(zeta, ref), cam)
	return c.String()
}
