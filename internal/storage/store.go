package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/stability"
	"gonum.org/v1/gonum/mat"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Case      string             `json:"case"`
	Timestamp time.Time          `json:"timestamp"`
	Modes     int                `json:"modes"`
	States    int                `json:"states"`
	SysID     string             `json:"sys_id,omitempty"`
	Cutoff    float64            `json:"frequency_cutoff,omitempty"`
	Warning   string             `json:"warning,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (s *Store) newRun(kind, caseName string) (RunMetadata, string, error) {
	runID := fmt.Sprintf("%s_%s", kind, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return RunMetadata{}, "", err
	}
	return RunMetadata{
		ID:        runID,
		Kind:      kind,
		Case:      caseName,
		Timestamp: time.Now(),
		Metrics:   map[string]float64{},
	}, runDir, nil
}

// SaveModal writes a modal basis and returns the run id.
func (s *Store) SaveModal(caseName string, b *modal.Basis) (string, error) {
	meta, runDir, err := s.newRun("modal", caseName)
	if err != nil {
		return "", err
	}
	meta.Modes = b.Len()
	rows, _ := b.Eigenvectors.Dims()
	meta.States = rows
	meta.Warning = b.Warning
	meta.Metrics["num_dof"] = float64(b.NumDOF)
	meta.Metrics["rigid_dof"] = float64(b.NumRigidDOF)
	if f := b.Frequencies(); len(f) > 0 {
		meta.Metrics["min_frequency"] = f[0]
		meta.Metrics["max_frequency"] = f[len(f)-1]
	}

	if err := writeMetadata(runDir, meta); err != nil {
		return "", err
	}
	if err := writeEigenvalues(runDir, b.Eigenvalues); err != nil {
		return "", err
	}
	freq := [][]float64{b.FreqNatural}
	header := []string{"mode", "natural"}
	if b.FreqDamped != nil {
		freq = append(freq, b.FreqDamped)
		header = append(header, "damped")
	}
	if err := writeColumns(filepath.Join(runDir, "frequencies.csv"), header, freq...); err != nil {
		return "", err
	}
	if err := writeColumns(filepath.Join(runDir, "damping.csv"), []string{"mode", "damping"}, b.Damping); err != nil {
		return "", err
	}
	if err := writeVectors(filepath.Join(runDir, "eigenvectors.csv"), b.Eigenvectors); err != nil {
		return "", err
	}
	if b.M != nil {
		for name, m := range map[string]*mat.Dense{"M.csv": b.M, "C.csv": b.C, "K.csv": b.K} {
			if m == nil {
				continue
			}
			if err := WriteMatrixCSV(filepath.Join(runDir, name), m); err != nil {
				return "", err
			}
		}
	}
	return meta.ID, nil
}

// SaveStability writes a stability result, limiting the eigenvector columns
// to the result's export count.
func (s *Store) SaveStability(caseName string, r *stability.Result) (string, error) {
	meta, runDir, err := s.newRun("stability", caseName)
	if err != nil {
		return "", err
	}
	meta.Modes = r.Len()
	rows, _ := r.Eigenvectors.Dims()
	meta.States = rows
	meta.SysID = r.SysID
	if !math.IsInf(r.Cutoff, 1) {
		meta.Cutoff = r.Cutoff
	}
	meta.Metrics["aero_states"] = float64(r.AeroStates)
	var unstable float64
	for _, v := range r.Eigenvalues {
		if real(v) > 0 {
			unstable++
		}
	}
	meta.Metrics["unstable"] = unstable

	if err := writeMetadata(runDir, meta); err != nil {
		return "", err
	}
	if err := writeEigenvalues(runDir, r.Eigenvalues); err != nil {
		return "", err
	}
	if err := writeColumns(filepath.Join(runDir, "frequencies.csv"), []string{"mode", "imag"}, r.Frequencies()); err != nil {
		return "", err
	}
	if err := writeColumns(filepath.Join(runDir, "damping.csv"), []string{"mode", "damping"}, r.DampingRatios()); err != nil {
		return "", err
	}
	if err := writeVectors(filepath.Join(runDir, "eigenvectors.csv"), r.ExportedVectors()); err != nil {
		return "", err
	}
	return meta.ID, nil
}


func writeMetadata(runDir string, meta RunMetadata) error {
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'e', 12, 64)
}

func writeEigenvalues(runDir string, values []complex128) error {
	re := make([]float64, len(values))
	im := make([]float64, len(values))
	for i, v := range values {
		re[i], im[i] = real(v), imag(v)
	}
	return writeColumns(filepath.Join(runDir, "eigenvalues.csv"), []string{"mode", "real", "imag"}, re, im)
}

func writeColumns(path string, header []string, cols ...[]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	n := 0
	if len(cols) > 0 {
		n = len(cols[0])
	}
	for i := 0; i < n; i++ {
		row := []string{strconv.Itoa(i)}
		for _, c := range cols {
			row = append(row, formatFloat(c[i]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeVectors stores one row per state with the real and imaginary part of
// every column side by side.
func writeVectors(path string, v *mat.CDense) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	rows, cols := v.Dims()
	header := []string{"state"}
	for j := 0; j < cols; j++ {
		header = append(header, fmt.Sprintf("re%d", j), fmt.Sprintf("im%d", j))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		row := []string{strconv.Itoa(i)}
		for j := 0; j < cols; j++ {
			z := v.At(i, j)
			row = append(row, formatFloat(real(z)), formatFloat(imag(z)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// RunDir returns the directory holding a run's files.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// LoadEigenvalues reads back the eigenvalues of a run.
func (s *Store) LoadEigenvalues(runID string) ([]complex128, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, "eigenvalues.csv"))
	if err != nil {
		return nil, err
	}
	values := make([]complex128, 0, len(records))
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, dynamo.IndexError(dynamo.ErrInvalidInput, "storage", "eigenvalues.csv", i+1, "%d fields", len(rec))
		}
		re, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		im, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, err
		}
		values = append(values, complex(re, im))
	}
	return values, nil
}

// LoadColumn reads one named column of a run's CSV file.
func (s *Store) LoadColumn(runID, file, column string) ([]float64, error) {
	path := filepath.Join(s.baseDir, runID, file)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "storage", file, "empty file")
	}
	col := -1
	for i, h := range all[0] {
		if h == column {
			col = i
		}
	}
	if col < 0 {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "storage", file, "no column %q", column)
	}
	out := make([]float64, 0, len(all)-1)
	for _, rec := range all[1:] {
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readRecords returns the records of a CSV file without its header.
func readRecords(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
