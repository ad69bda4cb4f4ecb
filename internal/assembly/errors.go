package assembly

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConverged is returned when the wells do not converge within the
	// iteration budget. Cutting the timestep is left to the caller.
	ErrNotConverged = errors.New("assembly: wells not converged")

	// ErrStateMismatch indicates a well state container that does not hold
	// every modelled well.
	ErrStateMismatch = errors.New("assembly: well state does not match the wells")

	ErrCellOutOfRange = errors.New("assembly: contribution to unknown cell")
)

// IterationError wraps a failure with the Newton iteration it occurred in.
type IterationError struct {
	Iteration int
	Wrapped   error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Wrapped)
}

func (e *IterationError) Unwrap() error {
	return e.Wrapped
}
