package aero

import (
	"errors"
	"testing"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockUnpacker(t *testing.T) {
	mesh := flatWing(1, 2)
	u := &BlockUnpacker{WakeRows: []int{2}}

	n, err := u.Len(mesh)
	require.NoError(t, err)
	require.Equal(t, 2+4+2, n)

	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(float64(i), 0)
	}

	st, err := u.Unpack(x, mesh)
	require.NoError(t, err)
	assert.Equal(t, [][]complex128{{0, 1}}, st.Gamma[0])
	assert.Equal(t, [][]complex128{{2, 3}, {4, 5}}, st.GammaStar[0])
	assert.Equal(t, [][]complex128{{6, 7}}, st.GammaDot[0])
	require.Len(t, st.Forces, 1)
	assert.Equal(t, Wrench{}, st.Forces[0][1][2])
}

func TestBlockUnpacker_Errors(t *testing.T) {
	mesh := flatWing(1, 2)
	u := &BlockUnpacker{WakeRows: []int{2}}

	_, err := u.Unpack(make([]complex128, 3), mesh)
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))

	_, err = u.Unpack(nil, nil)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))

	_, err = (&BlockUnpacker{}).Unpack(nil, mesh)
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))

	negative := &BlockUnpacker{WakeRows: []int{-1}}
	_, err = negative.Len(mesh)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
	_, err = negative.Unpack(make([]complex128, 2), mesh)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}
