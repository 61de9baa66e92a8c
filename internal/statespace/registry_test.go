package statespace

import (
	"errors"
	"testing"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&System{ID: "aeroelastic", A: mat.NewDense(2, 2, nil), AeroStates: 1}))
	require.NoError(t, reg.Register(&System{ID: "aero", A: mat.NewDense(1, 1, nil), Dt: 0.01}))

	sys, err := reg.Lookup("aero")
	require.NoError(t, err)
	assert.True(t, sys.Discrete())
	assert.Equal(t, []string{"aero", "aeroelastic"}, reg.List())

	_, err = reg.Lookup("structural")
	assert.True(t, errors.Is(err, dynamo.ErrUnknownSystem))
}

func TestSystem_Validate(t *testing.T) {
	tests := []struct {
		name string
		sys  System
		want error
	}{
		{"no id", System{A: mat.NewDense(1, 1, nil)}, dynamo.ErrInvalidInput},
		{"no matrix", System{ID: "a"}, dynamo.ErrInvalidInput},
		{"not square", System{ID: "a", A: mat.NewDense(2, 3, nil)}, dynamo.ErrDimensionMismatch},
		{"split too large", System{ID: "a", A: mat.NewDense(2, 2, nil), AeroStates: 3}, dynamo.ErrDimensionMismatch},
		{"negative dt", System{ID: "a", A: mat.NewDense(2, 2, nil), Dt: -1}, dynamo.ErrInvalidTimestep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.sys.Validate(), tt.want))
		})
	}
}
