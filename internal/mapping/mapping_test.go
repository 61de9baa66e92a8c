package mapping

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/algebra"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// beam is three nodes along y with node 0 clamped; each node controls the
// strip at its own spanwise station of a 1x2 lattice in the z=0 plane.
func beam() (*structure.Mesh, *aero.Mesh, aero.Struct2Aero) {
	mesh := &structure.Mesh{
		Nodes: []structure.Node{
			{Pos: r3.Vec{}, BC: structure.Clamped},
			{Pos: r3.Vec{Y: 1}, BC: structure.FreeSlave},
			{Pos: r3.Vec{Y: 2}, BC: structure.Free},
		},
		Elements: []structure.Element{{Conn: [3]int{0, 2, 1}}},
	}

	s := aero.NewSurface(1, 2)
	for m := 0; m <= 1; m++ {
		for n := 0; n <= 2; n++ {
			s.Zeta[m][n] = r3.Vec{X: float64(m), Y: float64(n)}
		}
	}
	lattice := &aero.Mesh{Surfaces: []aero.Surface{s}}

	table := aero.Struct2Aero{
		{{Surface: 0, Span: 0}},
		{{Surface: 0, Span: 1}},
		{{Surface: 0, Span: 2}},
	}
	return mesh, lattice, table
}

func assertVecNear(t *testing.T, want, got r3.Vec, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestAeroToStructForces_PureForce(t *testing.T) {
	mesh, lattice, table := beam()
	forces := aero.NewForces(lattice)
	forces[0][0][1].Force = r3.Vec{X: 3}
	// vertex (0,1,0) coincides with node 1

	out, err := AeroToStructForces(forces, table, lattice, mesh, nil)
	require.NoError(t, err)
	assert.Equal(t, [6]float64{3, 0, 0, 0, 0, 0}, out[1])
	assert.Equal(t, [6]float64{}, out[0])
	assert.Equal(t, [6]float64{}, out[2])
}

func TestAeroToStructForces_OffsetMoment(t *testing.T) {
	mesh, lattice, table := beam()
	forces := aero.NewForces(lattice)
	// vertex (1,1,0) sits at r = (1,0,0) from node 1
	forces[0][1][1].Force = r3.Vec{Z: 2}
	forces[0][1][1].Moment = r3.Vec{X: 0.5}

	out, err := AeroToStructForces(forces, table, lattice, mesh, nil)
	require.NoError(t, err)

	r := r3.Vec{X: 1}
	want := r3.Add(r3.Vec{X: 0.5}, r3.Cross(r, r3.Vec{Z: 2}))
	assertVecNear(t, r3.Vec{Z: 2}, out.Force(1), 1e-15)
	assertVecNear(t, want, out.Moment(1), 1e-15)
}

func TestAeroToStructForces_SumsChordwiseAndSurfaces(t *testing.T) {
	mesh, lattice, table := beam()
	lattice.Surfaces = append(lattice.Surfaces, lattice.Surfaces[0].Clone())
	table[2] = append(table[2], aero.StripRef{Surface: 1, Span: 2})

	forces := aero.NewForces(lattice)
	forces[0][0][2].Force = r3.Vec{X: 1}
	forces[0][1][2].Force = r3.Vec{X: 1}
	forces[1][0][2].Force = r3.Vec{X: 1}

	out, err := AeroToStructForces(forces, table, lattice, mesh, nil)
	require.NoError(t, err)
	assert.InDelta(t, 3, out[2][0], 1e-15)
}

func TestAeroToStructForces_LocalFrame(t *testing.T) {
	mesh, lattice, table := beam()
	// node 1 local x points along body y
	mesh.Elements[0].Psi[2] = r3.Vec{Z: math.Pi / 2}

	forces := aero.NewForces(lattice)
	forces[0][0][1].Force = r3.Vec{X: 1}

	out, err := AeroToStructForces(forces, table, lattice, mesh, nil)
	require.NoError(t, err)
	assertVecNear(t, r3.Vec{Y: -1}, out.Force(1), 1e-15)
}

func TestAeroToStructForces_BadCag(t *testing.T) {
	mesh, lattice, table := beam()
	wrong := algebra.Identity(algebra.FrameBody, algebra.FrameGlobal)
	_, err := AeroToStructForces(aero.NewForces(lattice), table, lattice, mesh, &wrong)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}

func TestAeroToStructForces_StripOutOfRange(t *testing.T) {
	mesh, lattice, table := beam()
	table[1] = []aero.StripRef{{Surface: 0, Span: 7}}

	_, err := AeroToStructForces(aero.NewForces(lattice), table, lattice, mesh, nil)
	assert.True(t, errors.Is(err, dynamo.ErrIndexOutOfRange))
}

func TestModeZeta_ZeroField(t *testing.T) {
	mesh, lattice, table := beam()
	out, err := ModeZeta(make([]float64, mesh.NumDOF()), mesh, lattice, table)
	require.NoError(t, err)

	for m := range lattice.Surfaces[0].Zeta {
		for n := range lattice.Surfaces[0].Zeta[m] {
			assertVecNear(t, lattice.Surfaces[0].Zeta[m][n], out.Surfaces[0].Zeta[m][n], 1e-15)
		}
	}
}

func TestModeZeta_Translation(t *testing.T) {
	mesh, lattice, table := beam()
	eig := make([]float64, mesh.NumDOF())
	eig[2] = 0.5

	out, err := ModeZeta(eig, mesh, lattice, table)
	require.NoError(t, err)
	assertVecNear(t, r3.Vec{Y: 1, Z: 0.5}, out.Surfaces[0].Zeta[0][1], 1e-15)
	assertVecNear(t, r3.Vec{X: 1, Y: 1, Z: 0.5}, out.Surfaces[0].Zeta[1][1], 1e-15)
	assertVecNear(t, r3.Vec{X: 1, Y: 2}, out.Surfaces[0].Zeta[1][2], 1e-15)
	// reference untouched
	assertVecNear(t, r3.Vec{Y: 1}, lattice.Surfaces[0].Zeta[0][1], 0)
}

func TestModeZeta_FiniteRotation(t *testing.T) {
	mesh, lattice, table := beam()
	eig := make([]float64, mesh.NumDOF())
	eig[6+5] = math.Pi / 2

	out, err := ModeZeta(eig, mesh, lattice, table)
	require.NoError(t, err)
	assertVecNear(t, r3.Vec{Y: 2}, out.Surfaces[0].Zeta[0][2], 1e-15)
	assertVecNear(t, r3.Vec{Y: 3}, out.Surfaces[0].Zeta[1][2], 1e-15)
}

func TestModeZeta_ClampedAndTrailingRigidDOFs(t *testing.T) {
	mesh, lattice, table := beam()
	eig := make([]float64, mesh.NumDOF()+10)
	for i := range eig {
		eig[i] = 0.1
	}

	out, err := ModeZeta(eig, mesh, lattice, table)
	require.NoError(t, err)
	assertVecNear(t, r3.Vec{X: 1}, out.Surfaces[0].Zeta[1][0], 0)

	disp, err := Displacement(out, lattice)
	require.NoError(t, err)
	assert.Equal(t, 0.0, disp[0][1][0])
	assert.Greater(t, disp[0][1][2], 0.0)
}

func TestModeZeta_ShortVector(t *testing.T) {
	mesh, lattice, table := beam()
	_, err := ModeZeta(make([]float64, 6), mesh, lattice, table)
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
}
