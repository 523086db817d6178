package sim

import (
	"github.com/san-kum/ltilab/internal/lti"
	"gonum.org/v1/gonum/mat"
)

// Linear adapts a state-space realization to System and LinearDynamics.
type Linear struct {
	ss *lti.StateSpace
}

func NewLinear(ss *lti.StateSpace) *Linear {
	return &Linear{ss: ss}
}

func (l *Linear) Derivative(x State, u float64, t float64) State {
	if l.ss.Order() == 0 {
		return State{}
	}
	return State(l.ss.Derivative(x, u))
}

func (l *Linear) StateDim() int { return l.ss.Order() }

func (l *Linear) Output(x State, u float64) float64 {
	return l.ss.Output(x, u)
}

func (l *Linear) Matrices() (*mat.Dense, *mat.VecDense) {
	return l.ss.A, l.ss.B
}
