// Package dynamo provides the numerical primitives shared by the modal and
// stability solvers.
//
// The package defines:
//
//   - the error taxonomy every analysis stage reports through ([AnalysisError])
//   - [Eigen]: a complex eigendecomposition of a real dense operator, with
//     optional left eigenvectors
//   - ordering helpers that keep eigenvalue and eigenvector columns in step
//
// # Example
//
//	eig, err := dynamo.Decompose(a, true)
//	if err != nil {
//	    return err
//	}
//	order := dynamo.ArgsortStable(len(eig.Values), func(i, j int) bool {
//	    return cmplx.Abs(eig.Values[i]) < cmplx.Abs(eig.Values[j])
//	})
//	eig = eig.Select(order)
//
// # Determinism
//
// Decomposition is deterministic for identical input on a given platform.
// The sign and complex phase of each eigenvector are not normalised here and
// may vary between LAPACK builds; callers needing a convention apply one.
package dynamo
