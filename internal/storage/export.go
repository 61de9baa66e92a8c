package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportEigenvalue struct {
	Mode      int     `json:"mode"`
	Real      float64 `json:"real"`
	Imag      float64 `json:"imag"`
	Frequency float64 `json:"frequency"`
	Damping   float64 `json:"damping"`
}

type ExportData struct {
	Run         RunMetadata        `json:"run"`
	Eigenvalues []ExportEigenvalue `json:"eigenvalues"`
}

// Export collects a stored run into a single document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	values, err := s.LoadEigenvalues(runID)
	if err != nil {
		return nil, err
	}
	freqColumn := "imag"
	if meta.Kind == "modal" {
		freqColumn = "natural"
	}
	freq, err := s.LoadColumn(runID, "frequencies.csv", freqColumn)
	if err != nil {
		return nil, err
	}
	damping, err := s.LoadColumn(runID, "damping.csv", "damping")
	if err != nil {
		return nil, err
	}

	data := &ExportData{Run: *meta, Eigenvalues: make([]ExportEigenvalue, len(values))}
	for i, v := range values {
		data.Eigenvalues[i] = ExportEigenvalue{Mode: i, Real: real(v), Imag: imag(v)}
		if i < len(freq) {
			data.Eigenvalues[i].Frequency = freq[i]
		}
		if i < len(damping) {
			data.Eigenvalues[i].Damping = damping[i]
		}
	}
	return data, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encodeJSON(file, data)
}

func ExportJSONStdout(data *ExportData) error {
	return encodeJSON(os.Stdout, data)
}

func encodeJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
