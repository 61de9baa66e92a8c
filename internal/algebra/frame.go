package algebra

import (
	"fmt"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame labels a coordinate system.
type Frame int

const (
	// FrameGlobal is the inertial frame G.
	FrameGlobal Frame = iota
	// FrameBody is the body-attached frame A.
	FrameBody
	// FrameLocal is the local beam frame B at a structural node.
	FrameLocal
)

func (f Frame) String() string {
	switch f {
	case FrameGlobal:
		return "G"
	case FrameBody:
		return "A"
	case FrameLocal:
		return "B"
	default:
		return fmt.Sprintf("Frame(%d)", int(f))
	}
}

// Rotation maps components expressed in From into components expressed in
// To: v_To = Mat·v_From.
type Rotation struct {
	Mat  *mat.Dense
	From Frame
	To   Frame
}

// NewRotation labels a 3x3 matrix with its frames.
func NewRotation(m *mat.Dense, from, to Frame) (Rotation, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return Rotation{}, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "rotation", "expected 3x3, got %dx%d", r, c)
	}
	return Rotation{Mat: m, From: from, To: to}, nil
}

// Identity returns the identity map between two frames that coincide.
func Identity(from, to Frame) Rotation {
	return Rotation{Mat: Eye3(), From: from, To: to}
}

// Apply rotates v from r.From into r.To.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return MulVec(r.Mat, v)
}

// Transpose returns the inverse rotation.
func (r Rotation) Transpose() Rotation {
	t := mat.DenseCopyOf(r.Mat.T())
	return Rotation{Mat: t, From: r.To, To: r.From}
}

// Then composes r followed by next. next must start where r ends.
func (r Rotation) Then(next Rotation) (Rotation, error) {
	if r.To != next.From {
		return Rotation{}, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "frames",
			"cannot compose %s->%s with %s->%s", r.From, r.To, next.From, next.To)
	}
	var m mat.Dense
	m.Mul(next.Mat, r.Mat)
	return Rotation{Mat: &m, From: r.From, To: next.To}, nil
}

func (r Rotation) String() string {
	return fmt.Sprintf("C[%s<-%s]", r.To, r.From)
}
