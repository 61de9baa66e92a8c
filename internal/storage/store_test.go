package storage

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/stability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testBasis() *modal.Basis {
	return &modal.Basis{
		Kind:         modal.Undamped,
		Eigenvalues:  []complex128{complex(0, 1), complex(0, 2)},
		Eigenvectors: mat.NewCDense(2, 2, []complex128{1, 0, 0, 1}),
		FreqNatural:  []float64{1, 2},
		Damping:      []float64{0, 0},
		M:            mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		C:            mat.NewDense(2, 2, nil),
		K:            mat.NewDense(2, 2, []float64{1, 0, 0, 4}),
		NumDOF:       2,
	}
}

func TestStoreSaveLoadModal(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.SaveModal("beam", testBasis())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "modal_"))
	assert.Len(t, runID, len("modal_")+8)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "beam", meta.Case)
	assert.Equal(t, "modal", meta.Kind)
	assert.Equal(t, 2, meta.Modes)
	assert.Equal(t, 2.0, meta.Metrics["max_frequency"])

	values, err := st.LoadEigenvalues(runID)
	require.NoError(t, err)
	assert.Equal(t, []complex128{complex(0, 1), complex(0, 2)}, values)

	freq, err := st.LoadColumn(runID, "frequencies.csv", "natural")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, freq)

	k, err := ReadMatrixCSV(filepath.Join(st.RunDir(runID), "K.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4.0, k.At(1, 1))
}

func TestStoreSaveStabilityLimitsVectors(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res := &stability.Result{
		SysID:        "aeroelastic",
		Eigenvalues:  []complex128{complex(-1, 2), complex(0.5, 3), complex(-2, 0)},
		Eigenvectors: mat.NewCDense(2, 3, []complex128{1, 2, 3, 4, 5, 6}),
		Cutoff:       math.Inf(1),
		NumEvals:     2,
	}
	runID, err := st.SaveStability("wing", res)
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "aeroelastic", meta.SysID)
	assert.Equal(t, 1.0, meta.Metrics["unstable"])
	assert.Zero(t, meta.Cutoff)

	data, err := os.ReadFile(filepath.Join(st.RunDir(runID), "eigenvectors.csv"))
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "state,re0,im0,re1,im1", header)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	_, err = st.SaveModal("a", testBasis())
	require.NoError(t, err)
	_, err = st.SaveModal("b", testBasis())
	require.NoError(t, err)

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	runID, err := st.SaveModal("beam", testBasis())
	require.NoError(t, err)

	data, err := st.Export(runID)
	require.NoError(t, err)
	require.Len(t, data.Eigenvalues, 2)
	assert.Equal(t, 2.0, data.Eigenvalues[1].Frequency)

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportJSON(path, data))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind": "modal"`)
}

func TestMatrixCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	m := mat.NewDense(2, 3, []float64{1, -2.5, 3e-9, 0, 7, 1e12})
	require.NoError(t, WriteMatrixCSV(path, m))

	got, err := ReadMatrixCSV(path)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(m, got, 1e-9))
}

func TestReadMatrixCSVRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2\n3\n"), 0644))
	_, err := ReadMatrixCSV(path)
	assert.Error(t, err)
}
