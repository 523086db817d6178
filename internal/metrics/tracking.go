package metrics

import "math"

// trapezoid integrates a sampled signal with the trapezoidal rule.
type trapezoid struct {
	sum     float64
	prevT   float64
	prevV   float64
	started bool
}

func (tr *trapezoid) add(t, v float64) {
	if tr.started {
		tr.sum += 0.5 * (v + tr.prevV) * (t - tr.prevT)
	}
	tr.prevT, tr.prevV, tr.started = t, v, true
}

func (tr *trapezoid) reset() { *tr = trapezoid{} }

// Integral is a tracking-error index: the integral over the run of
// weight(t, e) with e = u - y, the error of a unity-feedback loop whose
// reference is the input.
type Integral struct {
	name   string
	weight func(t0, t, e float64) float64
	acc    trapezoid
	t0     float64
	seen   bool
}

func (m *Integral) Name() string { return m.name }

func (m *Integral) Observe(t, u, y float64) {
	if !m.seen {
		m.t0, m.seen = t, true
	}
	m.acc.add(t, m.weight(m.t0, t, u-y))
}

func (m *Integral) Value() float64 { return m.acc.sum }

func (m *Integral) Reset() {
	m.acc.reset()
	m.seen = false
}

// NewIAE integrates |e|.
func NewIAE() *Integral {
	return &Integral{name: "iae", weight: func(_, _, e float64) float64 { return math.Abs(e) }}
}

// NewISE integrates e^2.
func NewISE() *Integral {
	return &Integral{name: "ise", weight: func(_, _, e float64) float64 { return e * e }}
}

// NewITAE integrates (t - t0)|e|, penalizing late error.
func NewITAE() *Integral {
	return &Integral{name: "itae", weight: func(t0, t, e float64) float64 { return (t - t0) * math.Abs(e) }}
}

// Energy integrates y^2, the output signal energy over the run.
type Energy struct {
	acc trapezoid
}

func NewEnergy() *Energy { return &Energy{} }

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(t, u, y float64) { e.acc.add(t, y*y) }

func (e *Energy) Value() float64 { return e.acc.sum }

func (e *Energy) Reset() { e.acc.reset() }
