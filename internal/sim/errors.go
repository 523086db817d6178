package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid reports a simulation grid with a non-positive step, an empty
// window or too many samples.
var ErrInvalidGrid = errors.New("sim: invalid simulation grid")

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
