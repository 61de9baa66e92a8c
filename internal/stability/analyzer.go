// Package stability computes the spectrum of a coupled aeroelastic operator
// and reconstructs its modes in lattice and structural coordinates.
//
// An Analyzer moves through four states:
//
//	Uninitialized -> Initialized -> Computed -> Exported
//
// Initialise binds a registered system, Run computes the spectrum and
// MarkExported records that the result was handed to a sink.
package stability

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/logging"
	"github.com/san-kum/aeromodal/internal/modeshape"
	"github.com/san-kum/aeromodal/internal/statespace"
	"github.com/san-kum/aeromodal/internal/structure"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

type State int

const (
	Uninitialized State = iota
	Initialized
	Computed
	Exported
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Computed:
		return "computed"
	case Exported:
		return "exported"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Settings struct {
	SysID string
	// FrequencyCutoff in rad/s; 0 disables truncation.
	FrequencyCutoff float64
	// NumEvals limits the eigenvector columns handed to sinks; 0 means all.
	NumEvals int
}

func SettingsFrom(cfg config.StabilityConfig) Settings {
	return Settings{SysID: cfg.SysID, FrequencyCutoff: cfg.FrequencyCutoff, NumEvals: cfg.NumEvals}
}

type Result struct {
	SysID        string
	Eigenvalues  []complex128
	Eigenvectors *mat.CDense
	// Cutoff is +Inf when no truncation was applied.
	Cutoff     float64
	AeroStates int
	NumEvals   int
}

func (r *Result) Len() int { return len(r.Eigenvalues) }

// DampingRatios returns ζ = -Re(λ)/|λ| per eigenvalue.
func (r *Result) DampingRatios() []float64 {
	out := make([]float64, len(r.Eigenvalues))
	for i, v := range r.Eigenvalues {
		out[i] = dynamo.DampingRatio(v)
	}
	return out
}

// Frequencies returns Im(λ) in rad/s.
func (r *Result) Frequencies() []float64 {
	out := make([]float64, len(r.Eigenvalues))
	for i, v := range r.Eigenvalues {
		out[i] = imag(v)
	}
	return out
}

// ExportedVectors returns the leading NumEvals eigenvector columns.
func (r *Result) ExportedVectors() *mat.CDense {
	rows, cols := r.Eigenvectors.Dims()
	n := cols
	if r.NumEvals > 0 && r.NumEvals < cols {
		n = r.NumEvals
	}
	if n == cols || rows == 0 {
		return r.Eigenvectors
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return (&dynamo.Eigen{Values: r.Eigenvalues, Vectors: r.Eigenvectors}).Select(order).Vectors
}

// Mode is an eigenvector split into its aerodynamic and structural parts.
type Mode struct {
	Index      int
	Eigenvalue complex128
	Aero       *aero.State
	Struct     []complex128
}

type Analyzer struct {
	registry *statespace.Registry
	logger   *zap.Logger

	state    State
	settings Settings
	system   *statespace.System
	result   *Result
}

func New(registry *statespace.Registry, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		registry: registry,
		logger:   logging.OrNop(logger).Named("stability"),
	}
}

func (a *Analyzer) State() State { return a.state }

// Initialise binds the analyzer to a registered system and discards any
// previous result.
func (a *Analyzer) Initialise(s Settings) error {
	if s.FrequencyCutoff < 0 || math.IsNaN(s.FrequencyCutoff) {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "stability", "frequency_cutoff", "must be non-negative, got %g", s.FrequencyCutoff)
	}
	if s.NumEvals < 0 {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "stability", "num_evals", "must be non-negative, got %d", s.NumEvals)
	}
	if a.registry == nil {
		return dynamo.Errorf(dynamo.ErrUnknownSystem, "stability", "sys_id", "no systems registered")
	}
	sys, err := a.registry.Lookup(s.SysID)
	if err != nil {
		return err
	}
	a.settings = s
	a.system = sys
	a.result = nil
	a.state = Initialized
	return nil
}

// Run computes, converts, truncates and sorts the spectrum of the bound
// system.
func (a *Analyzer) Run() (*Result, error) {
	if a.state == Uninitialized {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "stability", "state", "run called before initialise")
	}

	eig, err := dynamo.Decompose(a.system.A, false)
	if err != nil {
		return nil, err
	}
	values := eig.Values
	if a.system.Discrete() {
		if values, err = dynamo.ToContinuous(values, a.system.Dt); err != nil {
			return nil, err
		}
	}

	cutoff := a.settings.FrequencyCutoff
	if cutoff == 0 {
		cutoff = math.Inf(1)
	}
	sorted, vectors := SortEigenvalues(values, eig.Vectors, cutoff)

	a.result = &Result{
		SysID:        a.system.ID,
		Eigenvalues:  sorted,
		Eigenvectors: vectors,
		Cutoff:       cutoff,
		AeroStates:   a.system.AeroStates,
		NumEvals:     a.settings.NumEvals,
	}
	a.state = Computed

	fields := []zap.Field{
		zap.String("sys_id", a.system.ID),
		zap.Int("states", len(values)),
		zap.Int("retained", len(sorted)),
		zap.Bool("discrete", a.system.Discrete()),
	}
	if unstable := countUnstable(sorted); unstable > 0 {
		a.logger.Warn("unstable eigenvalues found", append(fields, zap.Int("unstable", unstable))...)
	} else {
		a.logger.Info("spectrum computed", fields...)
	}
	return a.result, nil
}

// SortEigenvalues keeps the eigenpairs with Im(λ) <= cutoff and orders
// them by ascending |λ|, ties keeping their input order.
func SortEigenvalues(values []complex128, vectors *mat.CDense, cutoff float64) ([]complex128, *mat.CDense) {
	if cutoff == 0 {
		cutoff = math.Inf(1)
	}
	var kept []int
	for i, v := range values {
		if imag(v) <= cutoff {
			kept = append(kept, i)
		}
	}
	order := dynamo.ArgsortStable(len(kept), func(i, j int) bool {
		return cmplx.Abs(values[kept[i]]) < cmplx.Abs(values[kept[j]])
	})
	idx := make([]int, len(order))
	for i, o := range order {
		idx[i] = kept[o]
	}

	sel := (&dynamo.Eigen{Values: values, Vectors: vectors}).Select(idx)
	return sel.Values, sel.Vectors
}

func countUnstable(values []complex128) int {
	n := 0
	for _, v := range values {
		if real(v) > 0 {
			n++
		}
	}
	return n
}

func (a *Analyzer) Result() (*Result, error) {
	if a.result == nil {
		return nil, dynamo.Errorf(dynamo.ErrNotComputed, "stability", "result", "state %s", a.state)
	}
	return a.result, nil
}

// MarkExported records that the result was written out.
func (a *Analyzer) MarkExported() error {
	if a.result == nil {
		return dynamo.Errorf(dynamo.ErrNotComputed, "stability", "export", "state %s", a.state)
	}
	a.state = Exported
	return nil
}

func (a *Analyzer) vector(i int) ([]complex128, error) {
	r, err := a.Result()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= r.Len() {
		return nil, dynamo.IndexError(dynamo.ErrIndexOutOfRange, "stability", "mode", i, "%d eigenvalues retained", r.Len())
	}
	return dynamo.Column(r.Eigenvectors, i), nil
}

// ReconstructMode splits eigenvector i at the aerodynamic state boundary
// and unpacks the aerodynamic part onto the reference lattice.
func (a *Analyzer) ReconstructMode(i int, unpacker aero.Unpacker, ref *aero.Mesh) (*Mode, error) {
	v, err := a.vector(i)
	if err != nil {
		return nil, err
	}
	split := a.result.AeroStates
	mode := &Mode{
		Index:      i,
		Eigenvalue: a.result.Eigenvalues[i],
		Struct:     append([]complex128(nil), v[split:]...),
	}
	if split > 0 {
		if unpacker == nil {
			return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "stability", "unpacker", "system has %d aerodynamic states", split)
		}
		if mode.Aero, err = unpacker.Unpack(v[:split], ref); err != nil {
			return nil, err
		}
	}
	return mode, nil
}

// StructuralModes lists the retained modes whose largest eigenvector
// component lies in the structural block.
func (a *Analyzer) StructuralModes() ([]int, error) {
	r, err := a.Result()
	if err != nil {
		return nil, err
	}
	rows, _ := r.Eigenvectors.Dims()
	var out []int
	for j := 0; j < r.Len(); j++ {
		peak := 0
		for i := 1; i < rows; i++ {
			if cmplx.Abs(r.Eigenvectors.At(i, j)) > cmplx.Abs(r.Eigenvectors.At(peak, j)) {
				peak = i
			}
		}
		if peak >= r.AeroStates {
			out = append(out, j)
		}
	}
	return out, nil
}

// ModeShape carries the structural block of mode i onto the lattice. The
// leading rows of the block are read as elastic nodal DOFs.
func (a *Analyzer) ModeShape(i int, mesh *structure.Mesh, lattice *aero.Mesh, table aero.Struct2Aero, lim modeshape.Limits) (*modeshape.Shape, error) {
	v, err := a.vector(i)
	if err != nil {
		return nil, err
	}
	block := v[a.result.AeroStates:]
	if len(block) < mesh.NumDOF() {
		return nil, dynamo.Errorf(dynamo.ErrDimensionMismatch, "stability", "structural block",
			"%d states, mesh has %d elastic DOFs", len(block), mesh.NumDOF())
	}
	return modeshape.Build(i, dynamo.RealPart(block[:mesh.NumDOF()]), mesh, lattice, table, lim)
}
