package sim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// State is the state vector of a realized system.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Dynamics is a single-input system x' = f(x, u, t).
type Dynamics interface {
	Derivative(x State, u float64, t float64) State
	StateDim() int
}

// LinearDynamics exposes the A and B matrices of x' = Ax + Bu so integrators
// can discretize exactly.
type LinearDynamics interface {
	Dynamics
	Matrices() (*mat.Dense, *mat.VecDense)
}

// System is Dynamics with a scalar output y = g(x, u).
type System interface {
	Dynamics
	Output(x State, u float64) float64
}

// Integrator advances x over [t, t+dt]. The input is u0 at t and u1 at t+dt
// and varies linearly in between.
type Integrator interface {
	Step(dyn Dynamics, x State, u0, u1, t, dt float64) State
}

// Preparer is implemented by integrators that precompute per-system data
// before stepping with a fixed dt.
type Preparer interface {
	Prepare(dyn Dynamics, dt float64) error
}

type Metric interface {
	Name() string
	Observe(t, u, y float64)
	Value() float64
	Reset()
}

type Result struct {
	Times      []float64
	Inputs     []float64
	Outputs    []float64
	Final      State
	Metrics    map[string]float64
	StepsTaken int
}
