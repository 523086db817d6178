package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/ltilab/internal/lti"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run drives the system from the zero state at grid.Start with the sampled
// input and records the output at every grid time. A non-finite state or
// output aborts the run with a *SimulationError wrapping
// lti.ErrNumericalInstability.
func (s *Simulator) Run(ctx context.Context, grid Grid, in Input) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	times := grid.Times()
	u := Sample(in, times)
	n := len(times)
	dim := s.sys.StateDim()

	if p, ok := s.integrator.(Preparer); ok && dim > 0 {
		if err := p.Prepare(s.sys, grid.Step); err != nil {
			return nil, fmt.Errorf("preparing integrator: %w", err)
		}
	}

	result := &Result{
		Times:   times,
		Inputs:  u,
		Outputs: make([]float64, n),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := make(State, dim)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if i > 0 && dim > 0 {
			x = s.integrator.Step(s.sys, x, u[i-1], u[i], times[i-1], grid.Step)
			result.StepsTaken++
			if !x.IsValid() {
				return nil, &SimulationError{Step: i, Time: times[i], State: x.Clone(), Wrapped: lti.ErrNumericalInstability}
			}
		}

		y := s.sys.Output(x, u[i])
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, &SimulationError{Step: i, Time: times[i], State: x.Clone(), Wrapped: lti.ErrNumericalInstability}
		}
		result.Outputs[i] = y

		for _, m := range s.metrics {
			m.Observe(times[i], u[i], y)
		}
	}

	result.Final = x
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}
