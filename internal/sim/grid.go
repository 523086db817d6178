package sim

import (
	"fmt"
	"math"
)

// MaxSamples bounds the length of a simulation grid.
const MaxSamples = 1_000_000

// Grid is the set of sample times Start + i*Step for i in [0, Len()). End is
// exclusive.
type Grid struct {
	Start float64
	End   float64
	Step  float64
}

// NewGrid builds a grid over [start, end) with the step given in milliseconds.
func NewGrid(start, end, resolutionMs float64) Grid {
	return Grid{Start: start, End: end, Step: resolutionMs / 1000}
}

func (g Grid) Validate() error {
	for _, v := range []float64{g.Start, g.End, g.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bounds (%g, %g, %g)", ErrInvalidGrid, g.Start, g.End, g.Step)
		}
	}
	if g.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %g", ErrInvalidGrid, g.Step)
	}
	if g.Start >= g.End {
		return fmt.Errorf("%w: start %g must be before end %g", ErrInvalidGrid, g.Start, g.End)
	}
	if n := (g.End - g.Start) / g.Step; n > MaxSamples {
		return fmt.Errorf("%w: %.0f samples exceeds limit of %d", ErrInvalidGrid, math.Ceil(n), MaxSamples)
	}
	return nil
}

// Len is the number of samples, ceil((End-Start)/Step). It is 0 for an
// invalid grid.
func (g Grid) Len() int {
	if g.Validate() != nil {
		return 0
	}
	return int(math.Ceil((g.End - g.Start) / g.Step))
}

func (g Grid) Times() []float64 {
	n := g.Len()
	times := make([]float64, n)
	for i := range times {
		times[i] = g.Start + float64(i)*g.Step
	}
	return times
}

func (g Grid) String() string {
	return fmt.Sprintf("[%g, %g) step %g", g.Start, g.End, g.Step)
}
