package response

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/sim"
)

// StepInfo are the characteristics of a unit step response. Overshoot and
// Undershoot are percentages of the steady-state value.
type StepInfo struct {
	RiseTime         float64 `json:"rise_time"`
	SettlingTime     float64 `json:"settling_time"`
	SettlingMin      float64 `json:"settling_min"`
	SettlingMax      float64 `json:"settling_max"`
	Overshoot        float64 `json:"overshoot"`
	Undershoot       float64 `json:"undershoot"`
	Peak             float64 `json:"peak"`
	PeakTime         float64 `json:"peak_time"`
	SteadyStateValue float64 `json:"steady_state_value"`
}

// AsMap returns the metrics keyed by name.
func (s *StepInfo) AsMap() map[string]float64 {
	return map[string]float64{
		"RiseTime":         s.RiseTime,
		"SettlingTime":     s.SettlingTime,
		"SettlingMin":      s.SettlingMin,
		"SettlingMax":      s.SettlingMax,
		"Overshoot":        s.Overshoot,
		"Undershoot":       s.Undershoot,
		"Peak":             s.Peak,
		"PeakTime":         s.PeakTime,
		"SteadyStateValue": s.SteadyStateValue,
	}
}

// StepInfoKeys lists the AsMap keys in display order.
var StepInfoKeys = []string{
	"RiseTime", "SettlingTime", "SettlingMin", "SettlingMax",
	"Overshoot", "Undershoot", "Peak", "PeakTime", "SteadyStateValue",
}

// stabilityMargin is how far left of the imaginary axis a pole must sit,
// relative to its magnitude, to count as stable.
const stabilityMargin = 1e-9

// StepInfo simulates the unit step response of sys and measures it. The
// metrics are undefined, and lti.ErrUndefinedMetric is returned, when sys
// has a pole on or right of the imaginary axis, a zero or infinite DC gain,
// or a response that never rises or settles within the simulated horizon.
func (e *Evaluator) StepInfo(ctx context.Context, sys *lti.TransferFunction) (*StepInfo, error) {
	poles, err := sys.Poles()
	if err != nil {
		return nil, err
	}
	for _, p := range poles {
		if real(p) >= -stabilityMargin*math.Max(1, math.Hypot(real(p), imag(p))) {
			return nil, fmt.Errorf("%w: pole %v is not in the open left half-plane", lti.ErrUndefinedMetric, p)
		}
	}

	final := sys.DCGain()
	if math.IsNaN(final) || math.IsInf(final, 0) || final == 0 {
		return nil, fmt.Errorf("%w: DC gain is %g", lti.ErrUndefinedMetric, final)
	}

	tfinal, dt := stepHorizon(poles)
	if e.opts.StepHorizon > 0 {
		tfinal = e.opts.StepHorizon
		dt = math.Min(dt, tfinal/100)
		dt = math.Max(dt, tfinal/100000)
	}

	res, err := e.TimeResponse(ctx, sys, sim.Grid{Start: 0, End: tfinal + dt/2, Step: dt}, sim.Step{})
	if err != nil {
		return nil, err
	}
	return e.MeasureStep(res.Times, res.Outputs, final)
}

// MeasureStep extracts step metrics from a sampled unit step response with
// the given steady-state value.
func (e *Evaluator) MeasureStep(times, y []float64, final float64) (*StepInfo, error) {
	if len(times) == 0 || len(times) != len(y) {
		return nil, fmt.Errorf("%w: %d times for %d samples", lti.ErrUndefinedMetric, len(times), len(y))
	}
	if math.IsNaN(final) || math.IsInf(final, 0) || final == 0 {
		return nil, fmt.Errorf("%w: steady-state value is %g", lti.ErrUndefinedMetric, final)
	}

	sgn := math.Copysign(1, final)
	lowIdx, highIdx := -1, -1
	for i, v := range y {
		if lowIdx < 0 && sgn*(v-e.opts.RiseLow*final) >= 0 {
			lowIdx = i
		}
		if sgn*(v-e.opts.RiseHigh*final) >= 0 {
			highIdx = i
			break
		}
	}
	if lowIdx < 0 || highIdx < 0 {
		return nil, fmt.Errorf("%w: response never reaches %.0f%% of its final value", lti.ErrUndefinedMetric, e.opts.RiseHigh*100)
	}

	lastOut := -1
	for i := len(y) - 1; i >= 0; i-- {
		if math.Abs(y[i]/final-1) >= e.opts.SettlingThreshold {
			lastOut = i
			break
		}
	}
	if lastOut == len(y)-1 {
		return nil, fmt.Errorf("%w: response does not settle within %.0f%% by t=%g", lti.ErrUndefinedMetric,
			e.opts.SettlingThreshold*100, times[len(times)-1])
	}

	info := &StepInfo{
		RiseTime:         times[highIdx] - times[lowIdx],
		SettlingTime:     times[lastOut+1] - times[0],
		SettlingMin:      math.Inf(1),
		SettlingMax:      math.Inf(-1),
		SteadyStateValue: final,
	}
	for _, v := range y[highIdx:] {
		info.SettlingMin = math.Min(info.SettlingMin, v)
		info.SettlingMax = math.Max(info.SettlingMax, v)
	}

	yMax, yMin := math.Inf(-1), math.Inf(1)
	for i, v := range y {
		yMax = math.Max(yMax, sgn*v)
		yMin = math.Min(yMin, sgn*v)
		if a := math.Abs(v); a > info.Peak {
			info.Peak, info.PeakTime = a, times[i]
		}
	}
	if over := math.Abs(yMax) - math.Abs(final); over > 0 {
		info.Overshoot = over / math.Abs(final) * 100
	}
	if yMin < 0 {
		info.Undershoot = math.Abs(yMin) / math.Abs(final) * 100
	}

	return info, nil
}

// stepHorizon picks a simulation length long enough for the slowest mode to
// decay to 0.1% and to show five cycles of the slowest oscillation, and a
// step resolving the fastest mode.
func stepHorizon(poles []complex128) (tfinal, dt float64) {
	const (
		defaultFinal   = 5.0
		decayFactor    = 6.907755278982137 // ln(1000)
		cycles         = 5
		pointsPerCycle = 25
		pointsPerTau   = 20
	)

	if len(poles) == 0 {
		return defaultFinal, defaultFinal / 100
	}

	dt = math.Inf(1)
	for _, p := range poles {
		re, im := math.Abs(real(p)), math.Abs(imag(p))
		tfinal = math.Max(tfinal, decayFactor/re)
		dt = math.Min(dt, 1/re/pointsPerTau)
		if im > 0 {
			period := 2 * math.Pi / im
			tfinal = math.Max(tfinal, cycles*period)
			dt = math.Min(dt, period/pointsPerCycle)
		}
	}

	dt = math.Max(dt, tfinal/100000)
	dt = math.Min(dt, tfinal/100)
	return tfinal, dt
}
