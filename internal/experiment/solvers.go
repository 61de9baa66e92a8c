package experiment

import (
	"context"

	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/logging"
	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/modeshape"
	"github.com/san-kum/aeromodal/internal/stability"
	"go.uber.org/zap"
)

// Solver is one analysis stage of an experiment.
type Solver interface {
	Initialise(cfg *config.Config) error
	Run(ctx context.Context, in *Input) (*Output, error)
}

type modalSolver struct {
	logger *zap.Logger
	cfg    config.ModalConfig
	limits modeshape.Limits
	shapes bool
}

func newModalSolver(logger *zap.Logger) *modalSolver {
	return &modalSolver{logger: logging.OrNop(logger)}
}

func (s *modalSolver) Initialise(cfg *config.Config) error {
	limits := modeshape.LimitsFrom(cfg.Scaling)
	if err := limits.Validate(); err != nil {
		return err
	}
	s.cfg = cfg.Modal
	s.limits = limits
	s.shapes = cfg.Modal.WriteModes
	return nil
}

func (s *modalSolver) Run(ctx context.Context, in *Input) (*Output, error) {
	if in.Structure == nil || in.Provider == nil {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "experiment", "structure", "modal solver needs a structure and its matrices")
	}
	basis, err := modal.New(s.cfg, in.Provider, s.logger).Solve(in.Structure)
	if err != nil {
		return nil, err
	}
	out := &Output{Basis: basis}

	if !s.shapes || in.Lattice == nil {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.Shapes, err = modeshape.Prepare(basis, s.cfg.NumModes, in.Structure, in.Lattice, in.Struct2Aero, s.limits)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type stabilitySolver struct {
	logger   *zap.Logger
	settings stability.Settings
	limits   modeshape.Limits
	shapes   bool
}

func newStabilitySolver(logger *zap.Logger) *stabilitySolver {
	return &stabilitySolver{logger: logging.OrNop(logger)}
}

func (s *stabilitySolver) Initialise(cfg *config.Config) error {
	s.settings = stability.SettingsFrom(cfg.Stability)
	s.limits = modeshape.LimitsFrom(cfg.Scaling)
	s.shapes = cfg.Stability.WriteModes
	return nil
}

func (s *stabilitySolver) Run(ctx context.Context, in *Input) (*Output, error) {
	a := stability.New(in.Systems, s.logger)
	if err := a.Initialise(s.settings); err != nil {
		return nil, err
	}
	res, err := a.Run()
	if err != nil {
		return nil, err
	}
	out := &Output{Result: res, Analyzer: a}

	if !s.shapes || in.Lattice == nil || in.Structure == nil {
		return out, nil
	}
	idx, err := a.StructuralModes()
	if err != nil {
		return nil, err
	}
	for _, i := range idx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shape, err := a.ModeShape(i, in.Structure, in.Lattice, in.Struct2Aero, s.limits)
		if err != nil {
			return nil, err
		}
		out.RootShapes = append(out.RootShapes, *shape)
	}
	return out, nil
}
