package modal

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/logging"
	"github.com/san-kum/aeromodal/internal/structure"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Solver struct {
	cfg      config.ModalConfig
	provider structure.MatrixProvider
	logger   *zap.Logger
}

func New(cfg config.ModalConfig, provider structure.MatrixProvider, logger *zap.Logger) *Solver {
	return &Solver{
		cfg:      cfg,
		provider: provider,
		logger:   logging.OrNop(logger).Named("modal"),
	}
}

// Solve assembles the structural matrices of mesh and extracts its modes.
func (s *Solver) Solve(mesh *structure.Mesh) (*Basis, error) {
	if s.provider == nil {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "modal", "provider", "no matrix provider configured")
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	mx, err := s.provider.Assemble(mesh, s.cfg.RigidBodyModes)
	if err != nil {
		return nil, err
	}
	return s.SolveMatrices(mx, mesh.NumDOF())
}

// SolveMatrices extracts the modes of already assembled operators.
// numStructDOF counts the elastic unknowns only.
func (s *Solver) SolveMatrices(mx *structure.Matrices, numStructDOF int) (*Basis, error) {
	n, err := mx.Dim()
	if err != nil {
		return nil, err
	}
	if s.cfg.NumModes <= 0 {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "modal", "num_modes", "must be positive, got %d", s.cfg.NumModes)
	}

	rigid := 0
	if s.cfg.RigidBodyModes {
		rigid = NumRigidDOF
	}
	if n != numStructDOF+rigid {
		return nil, dynamo.Errorf(dynamo.ErrDimensionMismatch, "modal", "M",
			"size %d, expected %d elastic + %d rigid DOFs", n, numStructDOF, rigid)
	}

	numLambda := s.cfg.NumModes
	if numLambda > n {
		numLambda = n
	}
	damped := hasDamping(mx.C)

	var b *Basis
	if s.cfg.UseUndampedModes {
		b, err = undamped(mx, numLambda)
	} else {
		b, err = s.damped(mx, n, numLambda, rigid > 0)
	}
	if err != nil {
		return nil, err
	}
	b.NumDOF = numStructDOF
	b.NumRigidDOF = rigid

	if s.cfg.UseUndampedModes && damped {
		b.Ccut = project(b.Eigenvectors, mx.C)
		b.Warning = DampingWarning
		b.ProjectedOnUndampedWithDamping = true
		s.logger.Warn(DampingWarning, zap.Bool("projected_on_undamped_with_damping", true))
	}

	if s.cfg.KeepLinearMatrices {
		b.M = mat.DenseCopyOf(mx.M)
		b.K = mat.DenseCopyOf(mx.K)
		if mx.C != nil {
			b.C = mat.DenseCopyOf(mx.C)
		} else {
			b.C = mat.NewDense(n, n, nil)
		}
	}

	s.logger.Info("modes extracted",
		zap.String("kind", string(b.Kind)),
		zap.Int("dof", n),
		zap.Int("rigid_dof", rigid),
		zap.Int("modes", b.Len()),
	)
	return b, nil
}

func undamped(mx *structure.Matrices, numLambda int) (*Basis, error) {
	var mk mat.Dense
	if err := mk.Solve(mx.M, mx.K); err != nil {
		return nil, dynamo.Errorf(dynamo.ErrSingularMassMatrix, "modal", "M", "%v", err)
	}
	eig, err := dynamo.Decompose(&mk, false)
	if err != nil {
		return nil, err
	}

	freq := make([]complex128, eig.Len())
	for i, v := range eig.Values {
		freq[i] = cmplx.Sqrt(v)
	}
	order := dynamo.ArgsortStable(len(freq), func(i, j int) bool {
		if real(freq[i]) != real(freq[j]) {
			return real(freq[i]) < real(freq[j])
		}
		return imag(freq[i]) < imag(freq[j])
	})[:numLambda]

	sel := eig.Select(order)
	fixPhase(sel.Vectors)
	if err := massNormalise(sel.Vectors, mx.M); err != nil {
		return nil, err
	}

	natural := make([]float64, numLambda)
	for i, idx := range order {
		natural[i] = real(freq[idx])
	}
	return &Basis{
		Kind:         Undamped,
		Eigenvalues:  sel.Values,
		Eigenvectors: sel.Vectors,
		FreqNatural:  natural,
		Damping:      make([]float64, numLambda),
	}, nil
}

func (s *Solver) damped(mx *structure.Matrices, n, numLambda int, rigid bool) (*Basis, error) {
	var minv mat.Dense
	if err := minv.Inverse(mx.M); err != nil {
		return nil, dynamo.Errorf(dynamo.ErrSingularMassMatrix, "modal", "M", "%v", err)
	}

	a := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, n+i, 1)
	}
	var block mat.Dense
	block.Mul(&minv, mx.K)
	block.Scale(-1, &block)
	a.Slice(n, 2*n, 0, n).(*mat.Dense).Copy(&block)
	if mx.C != nil {
		block.Mul(&minv, mx.C)
		block.Scale(-1, &block)
		a.Slice(n, 2*n, n, 2*n).(*mat.Dense).Copy(&block)
	}

	eig, err := dynamo.Decompose(a, true)
	if err != nil {
		return nil, err
	}

	natural := make([]float64, eig.Len())
	for i, v := range eig.Values {
		natural[i] = cmplx.Abs(v)
	}
	flexLimit := dynamo.Eps * floats.Sum(natural) / float64(len(natural))
	damping := make([]float64, eig.Len())
	dampedFreq := make([]float64, eig.Len())
	for i, v := range eig.Values {
		if natural[i] > flexLimit {
			damping[i] = -real(v) / natural[i]
		}
		dampedFreq[i] = natural[i] * math.Sqrt(1-damping[i]*damping[i])
	}

	order := dynamo.ArgsortStable(len(dampedFreq), func(i, j int) bool {
		return dampedFreq[i] < dampedFreq[j]
	})
	keep := 2 * numLambda
	if keep > len(order) {
		keep = len(order)
	}
	tol := dynamo.Eps * dampedFreq[order[0]]
	include, err := dedupConjugates(eig.Values, order, keep, tol)
	if err != nil {
		return nil, err
	}

	sel := eig.Select(include)
	conjugate(sel.Left)

	if s.cfg.ContinuousEigenvalues {
		if sel.Values, err = dynamo.ToContinuous(sel.Values, s.cfg.Dt); err != nil {
			return nil, err
		}
	}

	if !rigid {
		if err := biorthonormalise(sel.Left, sel.Vectors); err != nil {
			return nil, err
		}
	}

	b := &Basis{
		Kind:             Damped,
		Eigenvalues:      sel.Values,
		Eigenvectors:     sel.Vectors,
		LeftEigenvectors: sel.Left,
		FreqNatural:      make([]float64, len(include)),
		FreqDamped:       make([]float64, len(include)),
		Damping:          make([]float64, len(include)),
		KinDamp:          forceGain(sel.Left, &minv, n),
	}
	for i, idx := range include {
		b.FreqNatural[i] = natural[idx]
		b.FreqDamped[i] = dampedFreq[idx]
		b.Damping[i] = damping[idx]
	}
	return b, nil
}

// dedupConjugates walks the first keep sorted roots and drops the second
// member of every complex pair. A complex root whose successor is not its
// conjugate within tol means the operator was corrupted upstream.
func dedupConjugates(values []complex128, order []int, keep int, tol float64) ([]int, error) {
	include := make([]int, 0, keep)
	for ii := 0; ii < keep; ii++ {
		cur := values[order[ii]]
		include = append(include, order[ii])
		if imag(cur) == 0 {
			continue
		}
		if ii+1 >= len(order) {
			return nil, dynamo.IndexError(dynamo.ErrConjugatePairMismatch, "modal", "eigenvalue", ii,
				"%v has no conjugate partner", cur)
		}
		next := values[order[ii+1]]
		if math.Abs(real(next)-real(cur)) > tol || math.Abs(imag(next)+imag(cur)) > tol {
			return nil, dynamo.IndexError(dynamo.ErrConjugatePairMismatch, "modal", "eigenvalue", ii,
				"%v followed by %v", cur, next)
		}
		ii++
	}
	return include, nil
}

func hasDamping(c *mat.Dense) bool {
	if c == nil {
		return false
	}
	r, cols := c.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(c.At(i, j)) > dynamo.Eps {
				return true
			}
		}
	}
	return false
}

// fixPhase rotates every column so its largest component is real positive.
func fixPhase(v *mat.CDense) {
	rows, cols := v.Dims()
	for j := 0; j < cols; j++ {
		peak := 0
		for i := 1; i < rows; i++ {
			if cmplx.Abs(v.At(i, j)) > cmplx.Abs(v.At(peak, j)) {
				peak = i
			}
		}
		c := v.At(peak, j)
		if c == 0 {
			continue
		}
		scaleColumn(v, j, complex(cmplx.Abs(c), 0)/c)
	}
}

// massNormalise scales each column by 1/sqrt(φᵀMφ).
func massNormalise(v *mat.CDense, m mat.Matrix) error {
	rows, cols := v.Dims()
	for j := 0; j < cols; j++ {
		var d complex128
		for r := 0; r < rows; r++ {
			var mphi complex128
			for c := 0; c < rows; c++ {
				mphi += complex(m.At(r, c), 0) * v.At(c, j)
			}
			d += v.At(r, j) * mphi
		}
		if d == 0 {
			return dynamo.IndexError(dynamo.ErrSingularNormalization, "modal", "mode", j, "zero modal mass")
		}
		scaleColumn(v, j, 1/cmplx.Sqrt(d))
	}
	return nil
}

// biorthonormalise scales left and right vectors so that left_j·right_j = 1.
func biorthonormalise(left, right *mat.CDense) error {
	rows, cols := right.Dims()
	for j := 0; j < cols; j++ {
		var p complex128
		for r := 0; r < rows; r++ {
			p += left.At(r, j) * right.At(r, j)
		}
		if p == 0 || cmplx.IsNaN(p) {
			return dynamo.IndexError(dynamo.ErrSingularNormalization, "modal", "mode", j, "left·right = %v", p)
		}
		f := 1 / cmplx.Sqrt(p)
		scaleColumn(left, j, f)
		scaleColumn(right, j, f)
	}
	return nil
}

func conjugate(v *mat.CDense) {
	rows, cols := v.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v.Set(i, j, cmplx.Conj(v.At(i, j)))
		}
	}
}

func scaleColumn(v *mat.CDense, j int, f complex128) {
	rows, _ := v.Dims()
	for i := 0; i < rows; i++ {
		v.Set(i, j, f*v.At(i, j))
	}
}

// project returns ΦᵀCΦ.
func project(phi *mat.CDense, c mat.Matrix) *mat.CDense {
	rows, cols := phi.Dims()
	cphi := mat.NewCDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var s complex128
			for k := 0; k < rows; k++ {
				s += complex(c.At(i, k), 0) * phi.At(k, j)
			}
			cphi.Set(i, j, s)
		}
	}
	out := mat.NewCDense(cols, cols, nil)
	for i := 0; i < cols; i++ {
		for j := 0; j < cols; j++ {
			var s complex128
			for k := 0; k < rows; k++ {
				s += phi.At(k, i) * cphi.At(k, j)
			}
			out.Set(i, j, s)
		}
	}
	return out
}

// forceGain returns the velocity rows of the left vectors, transposed, times M⁻¹.
func forceGain(left *mat.CDense, minv mat.Matrix, n int) *mat.CDense {
	_, cols := left.Dims()
	out := mat.NewCDense(cols, n, nil)
	for i := 0; i < cols; i++ {
		for c := 0; c < n; c++ {
			var s complex128
			for r := 0; r < n; r++ {
				s += left.At(n+r, i) * complex(minv.At(r, c), 0)
			}
			out.Set(i, c, s)
		}
	}
	return out
}
