package optim

import (
	"errors"
	"fmt"
	"math"

	"github.com/maorshutman/lm"
)

var ErrFitFailed = errors.New("optim: model fit failed")

// FirstOrderFit is a K/(Ts + 1) model fitted to a step response.
type FirstOrderFit struct {
	K    float64 `json:"k"`
	T    float64 `json:"t"`
	RMSE float64 `json:"rmse"`
}

// IdentifyFirstOrder fits y(t) = K (1 - exp(-(t - t0)/T)) to a unit step
// response sampled at times, t0 = times[0], with Levenberg-Marquardt.
func IdentifyFirstOrder(times, y []float64) (fit *FirstOrderFit, err error) {
	if len(times) != len(y) || len(times) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 aligned samples, got %d and %d", ErrFitFailed, len(times), len(y))
	}

	t0 := times[0]
	model := func(t, k, tau float64) float64 {
		return k * (1 - math.Exp(-(t-t0)/tau))
	}
	residuals := func(dst, x []float64) {
		tau := x[1]
		if math.Abs(tau) < 1e-9 {
			tau = 1e-9
		}
		for i, t := range times {
			dst[i] = y[i] - model(t, x[0], tau)
		}
	}

	k0, tau0 := initialGuess(times, y)

	defer func() {
		if r := recover(); r != nil {
			fit, err = nil, fmt.Errorf("%w: %v", ErrFitFailed, r)
		}
	}()

	jac := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        2,
		Size:       len(times),
		Func:       residuals,
		Jac:        jac.Jac,
		InitParams: []float64{k0, tau0},
		Tau:        1e-3,
		Eps1:       1e-10,
		Eps2:       1e-10,
	}

	res, err := lm.LM(problem, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}

	k, tau := res.X[0], res.X[1]
	if math.IsNaN(k) || math.IsNaN(tau) || tau <= 0 {
		return nil, fmt.Errorf("%w: converged to K=%g T=%g", ErrFitFailed, k, tau)
	}

	sum := 0.0
	for i, t := range times {
		d := y[i] - model(t, k, tau)
		sum += d * d
	}
	return &FirstOrderFit{K: k, T: tau, RMSE: math.Sqrt(sum / float64(len(times)))}, nil
}

// initialGuess takes the last sample as the gain and the first crossing of
// 63.2% of it as the time constant.
func initialGuess(times, y []float64) (k, tau float64) {
	k = y[len(y)-1]
	tau = (times[len(times)-1] - times[0]) / 5
	target := (1 - math.Exp(-1)) * k
	for i, v := range y {
		if (k >= 0 && v >= target) || (k < 0 && v <= target) {
			if d := times[i] - times[0]; d > 0 {
				tau = d
			}
			break
		}
	}
	return k, tau
}
