// Package structure describes the beam discretisation the modal solver and
// the mesh mapper operate on: nodes, three-noded elements, boundary
// conditions and the degree-of-freedom numbering derived from them.
package structure

import (
	"fmt"

	"github.com/san-kum/aeromodal/internal/algebra"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DOFsPerNode is the number of unknowns owned by a free node.
const DOFsPerNode = 6

// NodesPerElement is fixed for the quadratic beam elements.
const NodesPerElement = 3

type BoundaryCondition int

const (
	// Free marks a free node that is also the master of its strip.
	Free BoundaryCondition = iota
	Clamped
	FreeSlave
)

var bcNames = map[BoundaryCondition]string{
	Free:      "free",
	Clamped:   "clamped",
	FreeSlave: "free_slave",
}

func (b BoundaryCondition) String() string {
	if s, ok := bcNames[b]; ok {
		return s
	}
	return fmt.Sprintf("BoundaryCondition(%d)", int(b))
}

func ParseBoundaryCondition(s string) (BoundaryCondition, error) {
	for bc, name := range bcNames {
		if name == s {
			return bc, nil
		}
	}
	return 0, dynamo.Errorf(dynamo.ErrInvalidInput, "structure", "boundary_condition", "unknown code %q", s)
}

func (b BoundaryCondition) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b *BoundaryCondition) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	bc, err := ParseBoundaryCondition(s)
	if err != nil {
		return err
	}
	*b = bc
	return nil
}

type Node struct {
	// Pos is the reference position in the body frame A.
	Pos r3.Vec
	BC  BoundaryCondition
}

type Element struct {
	Conn [NodesPerElement]int
	// Psi holds the rotation vector of each local node (B to A).
	Psi [NodesPerElement]r3.Vec
}

// MasterRef identifies the element and local node a global node takes its
// rotation state from.
type MasterRef struct {
	Element int
	Local   int
}

// Mesh is read-only once loaded.
type Mesh struct {
	Nodes    []Node
	Elements []Element
	// Orientation rotates the body frame A into the global frame G.
	Orientation quat.Number
}

func (m *Mesh) Validate() error {
	if len(m.Nodes) == 0 {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "structure", "nodes", "mesh has no nodes")
	}
	for e, el := range m.Elements {
		for l, n := range el.Conn {
			if n < 0 || n >= len(m.Nodes) {
				return dynamo.IndexError(dynamo.ErrIndexOutOfRange, "structure", "element", e,
					"local node %d references node %d of %d", l, n, len(m.Nodes))
			}
		}
	}
	if _, err := algebra.QuatToRotation(m.orientation()); err != nil {
		return err
	}
	return nil
}

func (m *Mesh) orientation() quat.Number {
	if m.Orientation == (quat.Number{}) {
		return quat.Number{Real: 1}
	}
	return m.Orientation
}

// Cga returns the body-to-global rotation. An unset orientation is the
// identity.
func (m *Mesh) Cga() (algebra.Rotation, error) {
	c, err := algebra.QuatToRotation(m.orientation())
	if err != nil {
		return algebra.Rotation{}, err
	}
	return algebra.NewRotation(c, algebra.FrameBody, algebra.FrameGlobal)
}

// Master maps every node to the first (element, local node) pair that
// references it in traversal order.
func (m *Mesh) Master() ([]MasterRef, error) {
	refs := make([]MasterRef, len(m.Nodes))
	seen := make([]bool, len(m.Nodes))
	for e, el := range m.Elements {
		for l, n := range el.Conn {
			if n < 0 || n >= len(m.Nodes) {
				return nil, dynamo.IndexError(dynamo.ErrIndexOutOfRange, "structure", "element", e,
					"local node %d references node %d", l, n)
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			refs[n] = MasterRef{Element: e, Local: l}
		}
	}
	for n, ok := range seen {
		if !ok {
			return nil, dynamo.IndexError(dynamo.ErrInvalidInput, "structure", "node", n, "not referenced by any element")
		}
	}
	return refs, nil
}

// Psi returns the reference rotation vector of a node through its master.
func (m *Mesh) Psi(ref MasterRef) r3.Vec {
	return m.Elements[ref.Element].Psi[ref.Local]
}

// NumDOF counts the elastic unknowns: six per non-clamped node.
func (m *Mesh) NumDOF() int {
	n := 0
	for _, node := range m.Nodes {
		if node.BC != Clamped {
			n += DOFsPerNode
		}
	}
	return n
}

// DOFIndex returns the first DOF of every node, -1 for clamped nodes.
func (m *Mesh) DOFIndex() []int {
	idx := make([]int, len(m.Nodes))
	jj := 0
	for i, node := range m.Nodes {
		if node.BC == Clamped {
			idx[i] = -1
			continue
		}
		idx[i] = jj
		jj += DOFsPerNode
	}
	return idx
}

// MaxPositionNorm is the largest reference nodal distance from the body origin.
func (m *Mesh) MaxPositionNorm() float64 {
	var max float64
	for _, node := range m.Nodes {
		if n := r3.Norm(node.Pos); n > max {
			max = n
		}
	}
	return max
}

// Matrices are the global structural operators. A provider must return
// freshly allocated matrices the caller may keep.
type Matrices struct {
	M, C, K *mat.Dense
}

// Dim returns the common size, failing when the three operators disagree.
func (mx *Matrices) Dim() (int, error) {
	if mx == nil || mx.M == nil || mx.K == nil {
		return 0, dynamo.Errorf(dynamo.ErrInvalidInput, "structure", "matrices", "mass and stiffness are required")
	}
	n, c := mx.M.Dims()
	if n != c || n == 0 {
		return 0, dynamo.Errorf(dynamo.ErrDimensionMismatch, "structure", "M", "%dx%d", n, c)
	}
	if r, c := mx.K.Dims(); r != n || c != n {
		return 0, dynamo.Errorf(dynamo.ErrDimensionMismatch, "structure", "K", "%dx%d, M is %dx%d", r, c, n, n)
	}
	if mx.C != nil {
		if r, c := mx.C.Dims(); r != n || c != n {
			return 0, dynamo.Errorf(dynamo.ErrDimensionMismatch, "structure", "C", "%dx%d, M is %dx%d", r, c, n, n)
		}
	}
	return n, nil
}

// MatrixProvider assembles M, C and K for a mesh. With rigidBody set the
// operators carry the ten rigid-body unknowns after the elastic ones.
type MatrixProvider interface {
	Assemble(mesh *Mesh, rigidBody bool) (*Matrices, error)
}

// StaticProvider hands out copies of fixed matrices. Rigid holds the
// augmented set used when rigid-body modes are requested.
type StaticProvider struct {
	Elastic Matrices
	Rigid   *Matrices
}

func (p *StaticProvider) Assemble(_ *Mesh, rigidBody bool) (*Matrices, error) {
	src := &p.Elastic
	if rigidBody {
		if p.Rigid == nil {
			return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "structure", "matrices", "no rigid-body matrices available")
		}
		src = p.Rigid
	}
	if _, err := src.Dim(); err != nil {
		return nil, err
	}
	out := &Matrices{M: mat.DenseCopyOf(src.M), K: mat.DenseCopyOf(src.K)}
	if src.C != nil {
		out.C = mat.DenseCopyOf(src.C)
	}
	return out, nil
}
