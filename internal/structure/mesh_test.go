package structure

import (
	"errors"
	"testing"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// fiveNodeBeam is a cantilever of two elements along y.
func fiveNodeBeam() *Mesh {
	m := &Mesh{}
	for i := 0; i < 5; i++ {
		bc := FreeSlave
		if i == 0 {
			bc = Clamped
		}
		if i == 4 {
			bc = Free
		}
		m.Nodes = append(m.Nodes, Node{Pos: r3.Vec{Y: float64(i)}, BC: bc})
	}
	m.Elements = []Element{
		{Conn: [3]int{0, 2, 1}},
		{Conn: [3]int{2, 4, 3}},
	}
	return m
}

func TestMesh_DOFNumbering(t *testing.T) {
	m := fiveNodeBeam()
	require.NoError(t, m.Validate())
	assert.Equal(t, 24, m.NumDOF())
	assert.Equal(t, []int{-1, 0, 6, 12, 18}, m.DOFIndex())
}

func TestMesh_Master(t *testing.T) {
	m := fiveNodeBeam()
	refs, err := m.Master()
	require.NoError(t, err)

	// node 2 is shared, the first element wins
	assert.Equal(t, MasterRef{Element: 0, Local: 1}, refs[2])
	assert.Equal(t, MasterRef{Element: 1, Local: 1}, refs[4])
	assert.Equal(t, MasterRef{Element: 1, Local: 2}, refs[3])
}

func TestMesh_MasterOrphanNode(t *testing.T) {
	m := fiveNodeBeam()
	m.Nodes = append(m.Nodes, Node{})
	_, err := m.Master()
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}

func TestMesh_ValidateConnectivity(t *testing.T) {
	m := fiveNodeBeam()
	m.Elements[1].Conn[2] = 9

	err := m.Validate()
	assert.True(t, errors.Is(err, dynamo.ErrIndexOutOfRange))

	var ae *dynamo.AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, ae.Index)
}

func TestMesh_Empty(t *testing.T) {
	assert.True(t, errors.Is((&Mesh{}).Validate(), dynamo.ErrInvalidInput))
}

func TestMesh_MaxPositionNorm(t *testing.T) {
	assert.Equal(t, 4.0, fiveNodeBeam().MaxPositionNorm())
}

func TestBoundaryCondition_YAML(t *testing.T) {
	var nodes []struct {
		BC BoundaryCondition `yaml:"bc"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("- bc: clamped\n- bc: free\n- bc: free_slave\n"), &nodes))
	assert.Equal(t, Clamped, nodes[0].BC)
	assert.Equal(t, Free, nodes[1].BC)
	assert.Equal(t, FreeSlave, nodes[2].BC)

	out, err := yaml.Marshal(map[string]BoundaryCondition{"bc": FreeSlave})
	require.NoError(t, err)
	assert.Equal(t, "bc: free_slave\n", string(out))

	err = yaml.Unmarshal([]byte("bc: pinned\n"), &struct {
		BC BoundaryCondition `yaml:"bc"`
	}{})
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}

func TestStaticProvider_ReturnsCopies(t *testing.T) {
	p := &StaticProvider{Elastic: Matrices{
		M: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		K: mat.NewDense(2, 2, []float64{4, 0, 0, 9}),
	}}

	got, err := p.Assemble(nil, false)
	require.NoError(t, err)
	got.K.Set(0, 0, -1)
	assert.Equal(t, 4.0, p.Elastic.K.At(0, 0))
	assert.Nil(t, got.C)

	_, err = p.Assemble(nil, true)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}

func TestMatrices_DimMismatch(t *testing.T) {
	mx := &Matrices{
		M: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		K: mat.NewDense(3, 3, nil),
	}
	_, err := mx.Dim()
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
}
