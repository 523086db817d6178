package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/ltilab/internal/experiment"
	"github.com/san-kum/ltilab/internal/model"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/sim"
	"gonum.org/v1/gonum/optimize"
)

// UnstablePenalty is the cost of a gain set that destabilizes the loop.
const UnstablePenalty = 1e12

// Tuner scores controller gains by a tracking-error index of the closed-loop
// step response.
type Tuner struct {
	Eval   *response.Evaluator
	Plant  model.PlantSpec
	Kind   model.ControllerKind
	Metric string
	Grid   sim.Grid
}

// GainNames lists the gains a controller kind uses, in vector order.
func GainNames(kind model.ControllerKind) []string {
	switch kind {
	case model.PD:
		return []string{"kp", "kd"}
	case model.PID:
		return []string{"kp", "kd", "ki"}
	}
	return []string{"kp"}
}

func (t *Tuner) controller(gains map[string]float64) model.ControllerSpec {
	return model.ControllerSpec{Kind: t.Kind, Kp: gains["kp"], Kd: gains["kd"], Ki: gains["ki"]}
}

// Cost returns the metric for the given gains, or UnstablePenalty when the
// loop has a pole outside the open left half-plane or its response diverges.
func (t *Tuner) Cost(ctx context.Context, gains map[string]float64) (float64, error) {
	p := model.Params{Plant: t.Plant}.WithController(t.controller(gains))
	sys, err := p.System()
	if err != nil {
		return 0, err
	}
	poles, err := sys.Poles()
	if err != nil || !response.IsStable(poles) {
		return UnstablePenalty, nil
	}

	m, err := experiment.NewRegistry().GetMetric(t.Metric)
	if err != nil {
		return 0, err
	}
	res, err := t.Eval.TimeResponse(ctx, sys, t.Grid, sim.Step{}, m)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return UnstablePenalty, nil
	}
	return res.Metrics[m.Name()], nil
}

func (t *Tuner) Objective() Objective {
	return t.Cost
}

type TuneResult struct {
	Controller  model.ControllerSpec `json:"controller"`
	Cost        float64              `json:"cost"`
	Evaluations int                  `json:"evaluations"`
}

// NelderMead refines the gains of initial with the downhill simplex method.
func (t *Tuner) NelderMead(ctx context.Context, initial model.ControllerSpec, maxEvals int) (*TuneResult, error) {
	names := GainNames(t.Kind)
	start := map[string]float64{"kp": initial.Kp, "kd": initial.Kd, "ki": initial.Ki}
	x0 := make([]float64, len(names))
	for i, name := range names {
		x0[i] = start[name]
	}

	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			gains := make(map[string]float64, len(names))
			for i, name := range names {
				gains[name] = x[i]
			}
			cost, err := t.Cost(ctx, gains)
			if err != nil {
				evalErr = err
				return UnstablePenalty
			}
			return cost
		},
		Status: func() (optimize.Status, error) {
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			return optimize.NotTerminated, nil
		},
	}

	settings := &optimize.Settings{FuncEvaluations: maxEvals}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if evalErr != nil {
		return nil, fmt.Errorf("tuning %s: %w", t.Kind, evalErr)
	}
	if err != nil {
		return nil, fmt.Errorf("tuning %s: %w", t.Kind, err)
	}

	gains := make(map[string]float64, len(names))
	for i, name := range names {
		gains[name] = res.X[i]
	}
	return &TuneResult{
		Controller:  t.controller(gains),
		Cost:        res.F,
		Evaluations: res.FuncEvaluations,
	}, nil
}
