package integrators

import "github.com/san-kum/ltilab/internal/sim"

// Euler is the explicit first-order method. It holds u0 over the interval.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u0, u1, t, dt float64) sim.State {
	dx := dyn.Derivative(x, u0, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
