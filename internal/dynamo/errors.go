package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration operations.
var (
	// ErrDimensionMismatch indicates a vector whose length disagrees with the
	// expected layout. It is raised before any computation takes place.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrSolverNonConvergence indicates the nonlinear solver hit its iteration
	// limit without meeting the tolerance.
	ErrSolverNonConvergence = errors.New("dynamo: nonlinear solver did not converge")

	// ErrNumericalDivergence indicates NaN or Inf in a candidate solution.
	ErrNumericalDivergence = errors.New("dynamo: numerical divergence (NaN or Inf detected)")

	// ErrConfiguration indicates malformed coefficients or settings.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrCellWritten indicates a second write to the same trajectory cell.
	ErrCellWritten = errors.New("dynamo: trajectory cell already written")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// Mismatch returns ErrDimensionMismatch annotated with the offending lengths.
func Mismatch(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, expected %d", ErrDimensionMismatch, what, got, want)
}

// StepError wraps an error with the context of the failing time step.
type StepError struct {
	Integrator string
	Step       int
	Time       float64
	Wrapped    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %d (t=%.6g): %v", e.Integrator, e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
