package automation

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/optim"
	"github.com/san-kum/ltilab/internal/response"
	"golang.org/x/sync/errgroup"
)

// ParameterSweep evaluates Base with one parameter stepped over
// [ParamMin, ParamMax].
type ParameterSweep struct {
	Base      config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Workers   int
}

// SweepResult summarizes one sweep point. Err is set when the point could
// not be evaluated; StepInfo is nil when it is undefined.
type SweepResult struct {
	ParamValue float64
	Stable     bool
	StepInfo   *response.StepInfo
	Margins    response.Margins
	Err        error
}

// Values are the parameter values visited, evenly spaced.
func (s *ParameterSweep) Values() []float64 {
	return optim.Linspace(s.ParamMin, s.ParamMax, s.NumSteps)
}

// RunSweep evaluates the sweep points concurrently. Results are in value
// order regardless of completion order.
func RunSweep(ctx context.Context, sweep *ParameterSweep, eval Evaluator) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if _, err := sweep.Base.Get(sweep.ParamName); err != nil {
		return nil, err
	}

	values := sweep.Values()
	results := make([]SweepResult, len(values))

	workers := sweep.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range values {
		g.Go(func() error {
			res, err := sweepPoint(ctx, sweep.Base, sweep.ParamName, v, eval)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sweepPoint evaluates base with name set to v. Failures land in the result;
// only cancellation is returned as an error.
func sweepPoint(ctx context.Context, base config.Config, name string, v float64, eval Evaluator) (SweepResult, error) {
	res := SweepResult{ParamValue: v}
	cfg, err := base.Set(name, v)
	if err != nil {
		res.Err = err
		return res, nil
	}
	r, err := eval.Evaluate(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Err = err
		return res, nil
	}
	res.Stable = r.Stable
	res.StepInfo = r.StepInfo
	res.Margins = r.Margins
	return res, nil
}
