package modeshape

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func cantilever() *structure.Mesh {
	return &structure.Mesh{
		Nodes: []structure.Node{
			{Pos: r3.Vec{}, BC: structure.Clamped},
			{Pos: r3.Vec{Y: 1}, BC: structure.FreeSlave},
			{Pos: r3.Vec{Y: 2}, BC: structure.Free},
		},
		Elements: []structure.Element{{Conn: [3]int{0, 2, 1}}},
	}
}

func field(tipTranslation, tipRotationDeg float64) []float64 {
	eig := make([]float64, 12)
	eig[6+2] = tipTranslation
	eig[6+3] = tipRotationDeg * math.Pi / 180
	return eig
}

func TestScale(t *testing.T) {
	mesh := cantilever()
	tests := []struct {
		name string
		eig  []float64
		want float64
	}{
		{"rotation at limit", field(0, 15), 1},
		{"rotation binding", field(0.01, 30), 0.5},
		{"translation binding", field(0.1, 1), 3},
		{"negligible rotation", field(0.1, 1e-6), 3},
		{"pure rotation", field(0, 5), 3},
		{"empty field", field(0, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scale(mesh, tt.eig, DefaultLimits())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestScale_Errors(t *testing.T) {
	mesh := cantilever()

	_, err := Scale(mesh, make([]float64, 6), DefaultLimits())
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))

	_, err = Scale(mesh, field(0, 1), Limits{MaxRotationDeg: 0, MaxDisplacement: 0.1})
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))

	_, err = Scale(mesh, field(0, 1), Limits{MaxRotationDeg: 10, MaxDisplacement: 1.2})
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}

func TestScaleMode_Copies(t *testing.T) {
	eig := field(0.1, 1)
	scaled, fact, err := ScaleMode(cantilever(), eig, DefaultLimits())
	require.NoError(t, err)
	assert.InDelta(t, 3, fact, 1e-12)
	assert.InDelta(t, 0.3, scaled[8], 1e-12)
	assert.Equal(t, 0.1, eig[8])
}

func lattice() (*aero.Mesh, aero.Struct2Aero) {
	s := aero.NewSurface(1, 2)
	for m := 0; m <= 1; m++ {
		for n := 0; n <= 2; n++ {
			s.Zeta[m][n] = r3.Vec{X: float64(m), Y: float64(n)}
		}
	}
	return &aero.Mesh{Surfaces: []aero.Surface{s}}, aero.Struct2Aero{
		{{Surface: 0, Span: 0}},
		{{Surface: 0, Span: 1}},
		{{Surface: 0, Span: 2}},
	}
}

func basis(modes, rigid int) *modal.Basis {
	rows := 12 + rigid
	v := mat.NewCDense(rows, modes, nil)
	for j := 0; j < modes; j++ {
		v.Set(6+2, j, complex(0.1*float64(j+1), 0))
	}
	return &modal.Basis{
		Eigenvalues:  make([]complex128, modes),
		Eigenvectors: v,
		NumDOF:       12,
		NumRigidDOF:  rigid,
	}
}

func TestPrepare(t *testing.T) {
	mesh := cantilever()
	zeta, table := lattice()

	shapes, err := Prepare(basis(2, 0), 2, mesh, zeta, table, DefaultLimits())
	require.NoError(t, err)
	require.Len(t, shapes, 2)

	// translation-limited: tip moves 0.15 * 2
	for _, s := range shapes {
		assert.InDelta(t, 0.3, s.Displacement[0][0][2], 1e-12)
		assert.InDelta(t, 0.3, s.Displacement[0][1][2], 1e-12)
		assert.Equal(t, 0.0, s.Displacement[0][0][0])
	}
	assert.InDelta(t, 3, shapes[0].Factor, 1e-12)
	assert.InDelta(t, 1.5, shapes[1].Factor, 1e-12)
}

func TestPrepare_SkipsRigidModes(t *testing.T) {
	mesh := cantilever()
	zeta, table := lattice()

	shapes, err := Prepare(basis(12, modal.NumRigidDOF), 0, mesh, zeta, table, DefaultLimits())
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, 10, shapes[0].Mode)
}

func TestPrepare_BoundedByModeCount(t *testing.T) {
	mesh := cantilever()
	zeta, table := lattice()

	// a damped rigid basis holds more entries than requested modes
	shapes, err := Prepare(basis(22, modal.NumRigidDOF), 22, mesh, zeta, table, DefaultLimits())
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, 10, shapes[0].Mode)
	assert.Equal(t, 11, shapes[1].Mode)

	shapes, err = Prepare(basis(5, 0), 3, mesh, zeta, table, DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, shapes, 3)

	shapes, err = Prepare(basis(12, modal.NumRigidDOF), 10, mesh, zeta, table, DefaultLimits())
	require.NoError(t, err)
	assert.Empty(t, shapes)
}
