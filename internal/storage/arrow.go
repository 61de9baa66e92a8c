package storage

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/san-kum/aeromodal/internal/dynamo"
)

// EigenSchema is the column layout of an eigenvalue table.
var EigenSchema = arrow.NewSchema([]arrow.Field{
	{Name: "mode", Type: arrow.PrimitiveTypes.Int64},
	{Name: "real", Type: arrow.PrimitiveTypes.Float64},
	{Name: "imag", Type: arrow.PrimitiveTypes.Float64},
	{Name: "frequency", Type: arrow.PrimitiveTypes.Float64},
	{Name: "damping", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// EigenRow is one row of an eigenvalue table.
type EigenRow struct {
	Mode      int64
	Value     complex128
	Frequency float64
	Damping   float64
}

// WriteEigenArrow writes eigenvalues with their frequencies and damping
// ratios as a single Arrow IPC stream record.
func WriteEigenArrow(path string, values []complex128, freq, damping []float64) error {
	if len(freq) != len(values) || len(damping) != len(values) {
		return dynamo.Errorf(dynamo.ErrDimensionMismatch, "arrow", "columns",
			"%d eigenvalues, %d frequencies, %d damping ratios", len(values), len(freq), len(damping))
	}

	pool := memory.NewGoAllocator()
	b := array.NewRecordBuilder(pool, EigenSchema)
	defer b.Release()

	modes := b.Field(0).(*array.Int64Builder)
	re := b.Field(1).(*array.Float64Builder)
	im := b.Field(2).(*array.Float64Builder)
	for i, v := range values {
		modes.Append(int64(i))
		re.Append(real(v))
		im.Append(imag(v))
	}
	b.Field(3).(*array.Float64Builder).AppendValues(freq, nil)
	b.Field(4).(*array.Float64Builder).AppendValues(damping, nil)

	rec := b.NewRecord()
	defer rec.Release()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := ipc.NewWriter(file, ipc.WithSchema(EigenSchema), ipc.WithAllocator(pool))
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("failed to write eigenvalue record: %w", err)
	}
	return w.Close()
}

// ReadEigenArrow reads every record of a stream written by WriteEigenArrow.
func ReadEigenArrow(path string) ([]EigenRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, err := ipc.NewReader(file, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}
	defer r.Release()

	if !r.Schema().Equal(EigenSchema) {
		return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "arrow", "schema", "unexpected schema %s", r.Schema())
	}

	var rows []EigenRow
	for r.Next() {
		rec := r.Record()
		modes := rec.Column(0).(*array.Int64)
		re := rec.Column(1).(*array.Float64)
		im := rec.Column(2).(*array.Float64)
		freq := rec.Column(3).(*array.Float64)
		damp := rec.Column(4).(*array.Float64)
		for i := 0; i < int(rec.NumRows()); i++ {
			rows = append(rows, EigenRow{
				Mode:      modes.Value(i),
				Value:     complex(re.Value(i), im.Value(i)),
				Frequency: freq.Value(i),
				Damping:   damp.Value(i),
			})
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
