package storage

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// ReadMatrixCSV reads a dense matrix stored one row per line without a
// header. Lines starting with '#' are ignored.
func ReadMatrixCSV(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comment = '#'
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "storage", path, "%v", err)
	}
	if len(records) == 0 {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "storage", path, "empty matrix")
	}

	rows, cols := len(records), len(records[0])
	data := make([]float64, 0, rows*cols)
	for i, rec := range records {
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, dynamo.IndexError(dynamo.ErrInvalidInput, "storage", path, i, "column %d: %v", j, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

func WriteMatrixCSV(path string, m mat.Matrix) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	rows, cols := m.Dims()
	row := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			row[j] = formatFloat(m.At(i, j))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
