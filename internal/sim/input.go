package sim

import (
	"fmt"
	"math"
	"strings"
)

// Input is a scalar excitation signal.
type Input interface {
	Value(t float64) float64
	String() string
}

// Step is the unit step, 1 for every sample of the grid.
type Step struct{}

func (Step) Value(float64) float64 { return 1 }
func (Step) String() string        { return "step" }

// Sinusoid is sin(Frequency * t), Frequency in rad/s.
type Sinusoid struct {
	Frequency float64
}

func (s Sinusoid) Value(t float64) float64 { return math.Sin(s.Frequency * t) }
func (s Sinusoid) String() string          { return fmt.Sprintf("sin(%g t)", s.Frequency) }

// NewInput maps an input type name ("step", "sine"/"sinusoid") to an Input.
func NewInput(kind string, frequency float64) (Input, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "step":
		return Step{}, nil
	case "sine", "sin", "sinusoid":
		return Sinusoid{Frequency: frequency}, nil
	}
	return nil, fmt.Errorf("unknown input type: %q", kind)
}

// Sample evaluates in at every time.
func Sample(in Input, times []float64) []float64 {
	u := make([]float64, len(times))
	for i, t := range times {
		u[i] = in.Value(t)
	}
	return u
}
