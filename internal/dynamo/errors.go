package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for analysis operations.
var (
	// ErrInvalidInput indicates malformed shapes or values.
	ErrInvalidInput = errors.New("dynamo: invalid input")

	// ErrDimensionMismatch indicates inconsistent matrix or vector sizes.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrSingularMassMatrix indicates the mass matrix cannot be inverted.
	ErrSingularMassMatrix = errors.New("dynamo: singular mass matrix")

	// ErrConjugatePairMismatch indicates a complex root without its conjugate
	// partner next to it after sorting.
	ErrConjugatePairMismatch = errors.New("dynamo: complex conjugate expected but not found")

	// ErrInvalidTimestep indicates a continuous-time conversion without dt > 0.
	ErrInvalidTimestep = errors.New("dynamo: continuous eigenvalues require dt > 0")

	// ErrIndexOutOfRange indicates a mesh or mode index outside its bounds.
	ErrIndexOutOfRange = errors.New("dynamo: index out of range")

	// ErrUnknownSystem indicates a system identifier missing from the registry.
	ErrUnknownSystem = errors.New("dynamo: unknown system")

	// ErrNotComputed indicates results requested before the analysis ran.
	ErrNotComputed = errors.New("dynamo: analysis not computed")

	// ErrSingularNormalization indicates a vanishing left/right eigenvector product.
	ErrSingularNormalization = errors.New("dynamo: singular eigenvector normalization")
)

// AnalysisError wraps a domain error with the quantity that triggered it.
type AnalysisError struct {
	Op       string
	Quantity string
	Index    int
	Detail   string
	Wrapped  error
}

func (e *AnalysisError) Error() string {
	msg := e.Wrapped.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Quantity != "" {
		if e.Index >= 0 {
			msg += fmt.Sprintf(" (%s[%d])", e.Quantity, e.Index)
		} else {
			msg += fmt.Sprintf(" (%s)", e.Quantity)
		}
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Wrapped
}

// Errorf builds an AnalysisError without an index.
func Errorf(wrapped error, op, quantity, format string, args ...any) error {
	return &AnalysisError{
		Op:       op,
		Quantity: quantity,
		Index:    -1,
		Detail:   fmt.Sprintf(format, args...),
		Wrapped:  wrapped,
	}
}

// IndexError builds an AnalysisError pointing at an offending index.
func IndexError(wrapped error, op, quantity string, index int, format string, args ...any) error {
	return &AnalysisError{
		Op:       op,
		Quantity: quantity,
		Index:    index,
		Detail:   fmt.Sprintf(format, args...),
		Wrapped:  wrapped,
	}
}
