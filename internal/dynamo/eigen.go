package dynamo

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Eps is the double precision machine epsilon used for all relative
// tolerances in the solvers.
const Eps = 2.220446049250313e-16

// Eigen holds a complex eigendecomposition. Column j of Vectors (and Left,
// when present) belongs to Values[j].
type Eigen struct {
	Values  []complex128
	Vectors *mat.CDense
	Left    *mat.CDense
}

// Decompose computes the eigenvalues and right eigenvectors of the square
// operator a. With left set, left eigenvectors are computed as well; they
// follow the LAPACK convention u^H A = λ u^H.
func Decompose(a mat.Matrix, left bool) (*Eigen, error) {
	r, c := a.Dims()
	if r != c {
		return nil, Errorf(ErrDimensionMismatch, "eigen", "A", "%dx%d is not square", r, c)
	}
	if r == 0 {
		return nil, Errorf(ErrInvalidInput, "eigen", "A", "empty operator")
	}

	kind := mat.EigenRight
	if left {
		kind = mat.EigenBoth
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, kind); !ok {
		return nil, Errorf(ErrInvalidInput, "eigen", "A", "eigendecomposition did not converge")
	}

	res := &Eigen{
		Values:  eig.Values(nil),
		Vectors: &mat.CDense{},
	}
	eig.VectorsTo(res.Vectors)
	if left {
		res.Left = &mat.CDense{}
		eig.LeftVectorsTo(res.Left)
	}
	return res, nil
}

// Len returns the number of eigenpairs.
func (e *Eigen) Len() int { return len(e.Values) }

// Select returns a new decomposition holding the eigenpairs listed in order.
func (e *Eigen) Select(order []int) *Eigen {
	out := &Eigen{
		Values:  make([]complex128, len(order)),
		Vectors: selectColumns(e.Vectors, order),
	}
	for i, idx := range order {
		out.Values[i] = e.Values[idx]
	}
	if e.Left != nil {
		out.Left = selectColumns(e.Left, order)
	}
	return out
}

func selectColumns(src *mat.CDense, order []int) *mat.CDense {
	rows, _ := src.Dims()
	if len(order) == 0 || rows == 0 {
		return &mat.CDense{}
	}
	dst := mat.NewCDense(rows, len(order), nil)
	for j, idx := range order {
		for i := 0; i < rows; i++ {
			dst.Set(i, j, src.At(i, idx))
		}
	}
	return dst
}

// Column copies column j of m.
func Column(m *mat.CDense, j int) []complex128 {
	rows, _ := m.Dims()
	col := make([]complex128, rows)
	for i := range col {
		col[i] = m.At(i, j)
	}
	return col
}

// RealPart returns the real components of v.
func RealPart(v []complex128) []float64 {
	out := make([]float64, len(v))
	for i, z := range v {
		out[i] = real(z)
	}
	return out
}

// ArgsortStable returns the permutation that sorts n items by less,
// keeping the input order of ties.
func ArgsortStable(n int, less func(i, j int) bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return less(idx[a], idx[b])
	})
	return idx
}

// ToContinuous maps discrete-time eigenvalues to continuous time with the
// principal branch of the complex logarithm: λc = ln(λd)/dt.
func ToContinuous(values []complex128, dt float64) ([]complex128, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, Errorf(ErrInvalidTimestep, "continuous", "dt", "got %g", dt)
	}
	out := make([]complex128, len(values))
	for i, v := range values {
		out[i] = cmplx.Log(v) / complex(dt, 0)
	}
	return out, nil
}

// DampingRatio returns ζ = -Re(λ)/|λ|, zero for a vanishing root.
func DampingRatio(v complex128) float64 {
	mag := cmplx.Abs(v)
	if mag == 0 {
		return 0
	}
	return -real(v) / mag
}
