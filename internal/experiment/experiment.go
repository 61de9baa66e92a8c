package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/logging"
	"github.com/san-kum/aeromodal/internal/metrics"
	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/modeshape"
	"github.com/san-kum/aeromodal/internal/stability"
	"github.com/san-kum/aeromodal/internal/statespace"
	"github.com/san-kum/aeromodal/internal/storage"
	"github.com/san-kum/aeromodal/internal/structure"
	"go.uber.org/zap"
)

// Input is the data shared by every stage.
type Input struct {
	Name        string
	Structure   *structure.Mesh
	Provider    structure.MatrixProvider
	Lattice     *aero.Mesh
	Struct2Aero aero.Struct2Aero
	Unpacker    *aero.BlockUnpacker
	Systems     *statespace.Registry
}

// InputFromCase wraps a loaded case.
func InputFromCase(c *storage.Case) *Input {
	in := &Input{
		Name:        c.Name,
		Structure:   c.Structure,
		Lattice:     c.Lattice,
		Struct2Aero: c.Struct2Aero,
		Unpacker:    c.Unpacker,
		Systems:     c.Systems,
	}
	if c.Matrices != nil {
		in.Provider = c.Matrices
	}
	return in
}

// Output collects what the stages produced. Shapes are the lattice
// deformations of the modal basis, RootShapes those of the structural
// roots of the stability result.
type Output struct {
	Basis      *modal.Basis
	Shapes     []modeshape.Shape
	Result     *stability.Result
	Analyzer   *stability.Analyzer
	RootShapes []modeshape.Shape
}

func (o *Output) merge(other *Output) {
	if other.Basis != nil {
		o.Basis = other.Basis
		o.Shapes = other.Shapes
	}
	if other.Result != nil {
		o.Result = other.Result
		o.Analyzer = other.Analyzer
		o.RootShapes = other.RootShapes
	}
}

type Experiment struct {
	cfg      *config.Config
	input    *Input
	registry *Registry
	recorder *metrics.Recorder
	logger   *zap.Logger
}

// New prepares an experiment. A nil recorder gets a fresh one.
func New(cfg *config.Config, in *Input, recorder *metrics.Recorder, logger *zap.Logger) *Experiment {
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Experiment{
		cfg:      cfg,
		input:    in,
		registry: NewRegistry(),
		recorder: recorder,
		logger:   logging.OrNop(logger).Named("experiment"),
	}
}

// Recorder returns the metrics the experiment writes to.
func (e *Experiment) Recorder() *metrics.Recorder { return e.recorder }

// Run executes the configured solvers in order. Cancellation is checked
// between stages.
func (e *Experiment) Run(ctx context.Context) (*Output, error) {
	if e.input == nil {
		return nil, fmt.Errorf("experiment has no input")
	}
	if len(e.cfg.Solvers) == 0 {
		return nil, fmt.Errorf("no solvers configured")
	}

	out := &Output{}
	for _, name := range e.cfg.Solvers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		solver, err := e.registry.Get(name, e.logger)
		if err != nil {
			return nil, err
		}
		if err := solver.Initialise(e.cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		start := time.Now()
		stage, err := solver.Run(ctx, e.input)
		elapsed := time.Since(start)

		modes, values := 0, []complex128(nil)
		if stage != nil {
			switch {
			case stage.Result != nil:
				modes, values = stage.Result.Len(), stage.Result.Eigenvalues
			case stage.Basis != nil:
				modes, values = stage.Basis.Len(), stage.Basis.Eigenvalues
			}
		}
		e.recorder.ObserveSolve(name, elapsed, modes, err)
		if err != nil {
			e.logger.Error("solver failed", zap.String("solver", name), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		summary := e.recorder.ObserveSpectrum(name, values)

		e.logger.Info("solver finished",
			zap.String("solver", name),
			zap.String("case", e.input.Name),
			zap.Duration("elapsed", elapsed),
			zap.Int("modes", modes),
			zap.Float64("stability_margin", summary["stability_margin"]),
		)
		out.merge(stage)
	}
	return out, nil
}
