package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/sim"
	"gonum.org/v1/gonum/mat"
)

// FOH discretizes x' = Ax + Bu exactly under a first-order hold: the input
// is linear between samples. With
//
//	M = | A dt  B dt  0 |
//	    |  0     0    1 |
//	    |  0     0    0 |
//
// and E = exp(M), the update is x[k+1] = Ad x[k] + Bd0 u[k] + Bd1 u[k+1]
// where Ad = E[:n,:n], Bd1 = E[:n,n+1] and Bd0 = E[:n,n] - Bd1.
//
// Only LinearDynamics can be discretized.
type FOH struct {
	dyn sim.Dynamics
	dt  float64

	ad       *mat.Dense
	bd0, bd1 *mat.VecDense
}

func NewFOH() *FOH {
	return &FOH{}
}

func (f *FOH) Prepare(dyn sim.Dynamics, dt float64) error {
	lin, ok := dyn.(sim.LinearDynamics)
	if !ok {
		return fmt.Errorf("foh: %T does not expose state matrices", dyn)
	}
	a, b := lin.Matrices()
	n := dyn.StateDim()
	if n == 0 {
		f.dyn, f.dt = dyn, dt
		f.ad, f.bd0, f.bd1 = nil, nil, nil
		return nil
	}

	m := mat.NewDense(n+2, n+2, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, a.At(i, j)*dt)
		}
		m.Set(i, n, b.AtVec(i)*dt)
	}
	m.Set(n, n+1, 1)

	var e mat.Dense
	e.Exp(m)

	ad := mat.NewDense(n, n, nil)
	bd0 := mat.NewVecDense(n, nil)
	bd1 := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ad.Set(i, j, e.At(i, j))
		}
		bd1.SetVec(i, e.At(i, n+1))
		bd0.SetVec(i, e.At(i, n)-e.At(i, n+1))
	}
	if !finite(ad.RawMatrix().Data) || !finite(bd0.RawVector().Data) || !finite(bd1.RawVector().Data) {
		return fmt.Errorf("foh: discretizing with dt=%g: %w", dt, lti.ErrNumericalInstability)
	}

	f.dyn, f.dt = dyn, dt
	f.ad, f.bd0, f.bd1 = ad, bd0, bd1
	return nil
}

// Step advances one interval. It discretizes on first use and whenever dyn
// or dt change; if that fails the returned state is NaN so the simulator
// reports the instability.
func (f *FOH) Step(dyn sim.Dynamics, x sim.State, u0, u1, t, dt float64) sim.State {
	n := len(x)
	if n == 0 {
		return sim.State{}
	}
	if f.ad == nil || f.dyn != dyn || f.dt != dt {
		if err := f.Prepare(dyn, dt); err != nil {
			nan := make(sim.State, n)
			for i := range nan {
				nan[i] = math.NaN()
			}
			return nan
		}
	}

	out := mat.NewVecDense(n, nil)
	out.MulVec(f.ad, mat.NewVecDense(n, x))
	out.AddScaledVec(out, u0, f.bd0)
	out.AddScaledVec(out, u1, f.bd1)
	return sim.State(out.RawVector().Data)
}

func finite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
