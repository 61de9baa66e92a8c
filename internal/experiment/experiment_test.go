package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/aeromodal/internal/config"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/stability"
	"github.com/san-kum/aeromodal/internal/statespace"
	"github.com/san-kum/aeromodal/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testInput(t *testing.T) *Input {
	t.Helper()
	k := mat.NewDiagDense(6, []float64{1, 4, 9, 16, 25, 36})
	provider := &structure.StaticProvider{Elastic: structure.Matrices{
		M: identity(6),
		K: mat.DenseCopyOf(k),
	}}

	reg := statespace.NewRegistry()
	require.NoError(t, reg.Register(&statespace.System{
		ID: config.DefaultSysID,
		A:  mat.NewDense(2, 2, []float64{0, 1, -4, -0.4}),
	}))

	return &Input{
		Name: "cantilever",
		Structure: &structure.Mesh{Nodes: []structure.Node{
			{BC: structure.Clamped},
			{BC: structure.Free},
		}},
		Provider: provider,
		Systems:  reg,
	}
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"modal", "stability"}, r.Kinds())

	_, err := r.Get("flutter", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown solver")
}

func TestExperimentRunsInOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Solvers = []string{"modal", "stability"}
	cfg.Modal.NumModes = 3

	e := New(cfg, testInput(t), nil, nil)
	out, err := e.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, out.Basis)
	assert.Equal(t, 3, out.Basis.Len())
	assert.InDelta(t, 1, out.Basis.FreqNatural[0], 1e-12)

	require.NotNil(t, out.Result)
	assert.Equal(t, 2, out.Result.Len())
	assert.Equal(t, stability.Computed, out.Analyzer.State())
}

func TestExperimentUnknownSolver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Solvers = []string{"modal", "aeroelastic"}
	cfg.Modal.NumModes = 2

	_, err := New(cfg, testInput(t), nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown solver")
}

func TestExperimentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.DefaultConfig(), testInput(t), nil, nil).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExperimentWrapsSolverError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Solvers = []string{"stability"}
	cfg.Stability.SysID = "missing"

	_, err := New(cfg, testInput(t), nil, nil).Run(context.Background())
	assert.True(t, errors.Is(err, dynamo.ErrUnknownSystem))
}
