// Package algebra converts between Cartesian rotation vectors, quaternions
// and rotation matrices, and tracks which frames a rotation connects.
package algebra

import (
	"math"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Below this rotation angle the Rodrigues formula is replaced by its
// second-order expansion.
const smallAngle = 1e-15

// Vector builds an r3.Vec from a three component slice.
func Vector(s []float64) (r3.Vec, error) {
	if len(s) != 3 {
		return r3.Vec{}, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "vector", "expected 3 components, got %d", len(s))
	}
	return r3.Vec{X: s[0], Y: s[1], Z: s[2]}, nil
}

// Skew returns the cross-product matrix of v, so that Skew(v)·w = v × w.
func Skew(v r3.Vec) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// Eye3 returns a 3x3 identity.
func Eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// CRVToRotation returns the rotation matrix of the Cartesian rotation vector
// psi:
//
//	C = I + sin(φ)·S(n) + (1-cos(φ))·S(n)²,  φ = |psi|, n = psi/φ
func CRVToRotation(psi r3.Vec) *mat.Dense {
	phi := r3.Norm(psi)
	c := Eye3()

	if phi < smallAngle {
		s := Skew(psi)
		var s2 mat.Dense
		s2.Mul(s, s)
		s2.Scale(0.5, &s2)
		c.Add(c, s)
		c.Add(c, &s2)
		return c
	}

	s := Skew(r3.Scale(1/phi, psi))
	var s2 mat.Dense
	s2.Mul(s, s)

	var term mat.Dense
	term.Scale(math.Sin(phi), s)
	c.Add(c, &term)
	term.Scale(1-math.Cos(phi), &s2)
	c.Add(c, &term)
	return c
}

// QuatToRotation returns the rotation matrix of the scalar-first quaternion q.
// The quaternion is normalised first; a zero quaternion is rejected.
func QuatToRotation(q quat.Number) (*mat.Dense, error) {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "quaternion", "norm %g", n)
	}
	q = quat.Scale(1/n, q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}), nil
}

// RotationToQuat extracts the unit quaternion of a rotation matrix with a
// non-negative scalar part.
func RotationToQuat(m mat.Matrix) (quat.Number, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return quat.Number{}, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "rotation", "expected 3x3, got %dx%d", r, c)
	}

	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var q quat.Number
	tr := m00 + m11 + m22
	switch {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}

	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return quat.Scale(1/quat.Abs(q), q), nil
}

// CRVToQuat converts a rotation vector into a unit quaternion.
func CRVToQuat(psi r3.Vec) quat.Number {
	phi := r3.Norm(psi)
	if phi < smallAngle {
		q := quat.Number{Real: 1, Imag: psi.X / 2, Jmag: psi.Y / 2, Kmag: psi.Z / 2}
		return quat.Scale(1/quat.Abs(q), q)
	}
	s := math.Sin(phi/2) / phi
	return quat.Number{Real: math.Cos(phi / 2), Imag: s * psi.X, Jmag: s * psi.Y, Kmag: s * psi.Z}
}

// QuatToCRV converts a quaternion into the rotation vector with angle in [0, π].
func QuatToCRV(q quat.Number) (r3.Vec, error) {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return r3.Vec{}, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "quaternion", "norm %g", n)
	}
	q = quat.Scale(1/n, q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}

	v := r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	vn := r3.Norm(v)
	if vn < smallAngle {
		return r3.Scale(2, v), nil
	}
	phi := 2 * math.Atan2(vn, q.Real)
	return r3.Scale(phi/vn, v), nil
}

// RotationToCRV inverts CRVToRotation.
func RotationToCRV(m mat.Matrix) (r3.Vec, error) {
	q, err := RotationToQuat(m)
	if err != nil {
		return r3.Vec{}, err
	}
	return QuatToCRV(q)
}

// MulVec returns m·v for a 3x3 matrix.
func MulVec(m mat.Matrix, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// RotationFromSlice builds a 3x3 matrix from nine row-major values.
func RotationFromSlice(s []float64) (*mat.Dense, error) {
	if len(s) != 9 {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "algebra", "rotation", "expected 9 components, got %d", len(s))
	}
	return mat.NewDense(3, 3, append([]float64(nil), s...)), nil
}
