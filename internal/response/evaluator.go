package response

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/ltilab/internal/experiment"
	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/sim"
	"gonum.org/v1/gonum/floats"
)

type Evaluator struct {
	opts     Options
	registry *experiment.Registry
}

func NewEvaluator(opts Options) *Evaluator {
	return &Evaluator{opts: opts, registry: experiment.NewRegistry()}
}

func (e *Evaluator) Options() Options { return e.opts }

// TimeResult holds aligned samples of a simulated response.
type TimeResult struct {
	Times   []float64          `json:"t"`
	Inputs  []float64          `json:"u"`
	Outputs []float64          `json:"y"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func (r *TimeResult) Len() int { return len(r.Times) }

// Final returns the last output sample.
func (r *TimeResult) Final() float64 {
	if len(r.Outputs) == 0 {
		return math.NaN()
	}
	return r.Outputs[len(r.Outputs)-1]
}

// TimeResponse simulates sys from zero initial state at grid.Start driven by
// in, sampling the output at every grid time. Metrics observe the run and
// land in the result under their names; non-finite metric values are dropped.
func (e *Evaluator) TimeResponse(ctx context.Context, sys *lti.TransferFunction, grid sim.Grid, in sim.Input, metrics ...sim.Metric) (*TimeResult, error) {
	ss, err := lti.Realize(sys)
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.opts.Integrator)
	if err != nil {
		return nil, err
	}

	s := sim.New(sim.NewLinear(ss), integ)
	for _, m := range metrics {
		s.AddMetric(m)
	}

	res, err := s.Run(ctx, grid, in)
	if err != nil {
		return nil, err
	}

	out := &TimeResult{
		Times:   res.Times,
		Inputs:  res.Inputs,
		Outputs: res.Outputs,
	}
	for name, v := range res.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if out.Metrics == nil {
			out.Metrics = make(map[string]float64, len(res.Metrics))
		}
		out.Metrics[name] = v
	}
	return out, nil
}

// FrequencyResponse evaluates sys(jw) on the log-spaced Bode grid. A zero
// response has magnitude -Inf dB; any other non-finite value fails with
// lti.ErrNumericalInstability.
func (e *Evaluator) FrequencyResponse(sys *lti.TransferFunction) (*FrequencyResult, error) {
	n := e.opts.FreqPoints
	if n < 2 || !(e.opts.FreqMin > 0) || !(e.opts.FreqMax > e.opts.FreqMin) {
		return nil, fmt.Errorf("invalid frequency grid: %d points over [%g, %g]", n, e.opts.FreqMin, e.opts.FreqMax)
	}
	return Bode(sys, floats.LogSpan(make([]float64, n), e.opts.FreqMin, e.opts.FreqMax))
}

// Bode evaluates sys(jw) at the given frequencies in rad/s. The phase is
// unwrapped along omega starting from a first sample in (-180, 180].
func Bode(sys *lti.TransferFunction, omega []float64) (*FrequencyResult, error) {
	fr := &FrequencyResult{
		Omega:       append([]float64(nil), omega...),
		MagnitudeDB: make([]float64, len(omega)),
		PhaseDeg:    make([]float64, len(omega)),
	}

	phase := make([]float64, len(omega))
	for i, w := range omega {
		h := sys.Eval(complex(0, w))
		if cmplx.IsNaN(h) || cmplx.IsInf(h) {
			return nil, fmt.Errorf("%w: response at w=%g rad/s is %v", lti.ErrNumericalInstability, w, h)
		}
		fr.MagnitudeDB[i] = 20 * math.Log10(cmplx.Abs(h))
		phase[i] = cmplx.Phase(h)
	}

	unwrap(phase)
	if len(phase) > 0 && phase[0] <= -math.Pi {
		floats.AddConst(2*math.Pi, phase)
	}
	for i, p := range phase {
		fr.PhaseDeg[i] = p * 180 / math.Pi
	}
	return fr, nil
}

// unwrap removes jumps larger than pi between consecutive phase samples.
func unwrap(p []float64) {
	offset := 0.0
	for i := 1; i < len(p); i++ {
		d := p[i] + offset - p[i-1]
		if d > math.Pi || d < -math.Pi {
			offset -= 2 * math.Pi * math.Round(d/(2*math.Pi))
		}
		p[i] += offset
	}
}

// Poles returns the sorted roots of the denominator of sys.
func Poles(sys *lti.TransferFunction) ([]complex128, error) {
	return sys.Poles()
}

// Zeros returns the sorted roots of the numerator of sys.
func Zeros(sys *lti.TransferFunction) ([]complex128, error) {
	return sys.Zeros()
}
