package integrators

import (
	"math"

	"github.com/san-kum/ltilab/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince embedded pair. Each grid interval is covered by
// as many adaptive substeps as the tolerance requires; the input is linearly
// interpolated between the interval end points.
type RK45 struct {
	Tolerance   float64
	MaxSubsteps int

	safety   float64
	minScale float64
	maxScale float64
	absFloor float64
}

func NewRK45() *RK45 {
	return &RK45{
		Tolerance:   1e-8,
		MaxSubsteps: 10000,
		safety:      0.9,
		minScale:    0.2,
		maxScale:    10.0,
		absFloor:    1e-6,
	}
}

func (r *RK45) Step(dyn sim.Dynamics, x sim.State, u0, u1, t, dt float64) sim.State {
	input := func(tau float64) float64 {
		return u0 + (u1-u0)*(tau-t)/dt
	}

	cur := x.Clone()
	done := 0.0
	h := dt
	for i := 0; done < dt*(1-1e-12); i++ {
		last := i >= r.MaxSubsteps-1
		if last || done+h > dt {
			h = dt - done
		}

		next, hNew, ratio := r.StepAdaptive(dyn, cur, input, t+done, h, r.Tolerance)
		if ratio <= 1 || last || h <= dt*1e-9 {
			cur = next
			done += h
		}
		h = hNew
	}
	return cur
}

// StepAdaptive takes one Dormand-Prince step of size dt and returns the fifth
// order solution, the suggested next step size and the error ratio against
// tol (accept when <= 1).
func (r *RK45) StepAdaptive(dyn sim.Dynamics, x sim.State, u func(float64) float64, t, dt, tol float64) (sim.State, float64, float64) {
	n := len(x)

	k1 := dyn.Derivative(x, u(t), t)

	x2 := make(sim.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := dyn.Derivative(x2, u(t+a2*dt), t+a2*dt)

	x3 := make(sim.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := dyn.Derivative(x3, u(t+a3*dt), t+a3*dt)

	x4 := make(sim.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := dyn.Derivative(x4, u(t+a4*dt), t+a4*dt)

	x5 := make(sim.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := dyn.Derivative(x5, u(t+a5*dt), t+a5*dt)

	x6 := make(sim.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := dyn.Derivative(x6, u(t+dt), t+dt)

	xNew := make(sim.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := dyn.Derivative(xNew, u(t+dt), t+dt)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Max(math.Abs(x[i]), math.Abs(xNew[i])) + r.absFloor
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	switch {
	case math.IsNaN(errRatio):
		dtNew = dt * r.minScale
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}

	return xNew, dtNew, errRatio
}
