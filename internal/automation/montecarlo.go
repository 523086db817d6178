package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/ltilab/internal/config"
	"gonum.org/v1/gonum/stat"
)

// MonteCarloConfig perturbs Params of Base by a uniform relative amount in
// [-Perturbation, +Perturbation] per trial. A Seed of 0 draws a seed from the
// clock; the seed used is reported in every result either way.
type MonteCarloConfig struct {
	Base         config.Config
	Params       []string
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID   int
	Seed      int64
	Values    map[string]float64
	Stable    bool
	Overshoot float64 // NaN when the step metrics are undefined
	Err       error
}

// RunMonteCarlo evaluates perturbed copies of the base config, e.g. to
// check how robust a tuned loop is to plant uncertainty.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, eval Evaluator) ([]MonteCarloResult, error) {
	if len(cfg.Params) == 0 {
		return nil, fmt.Errorf("monte carlo needs at least one parameter")
	}
	for _, name := range cfg.Params {
		if _, err := cfg.Base.Get(name); err != nil {
			return nil, err
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := MonteCarloResult{TrialID: trial, Seed: seed, Overshoot: math.NaN()}
		c, values, err := perturb(cfg.Base, cfg.Params, cfg.Perturbation, rng)
		res.Values = values
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		r, err := eval.Evaluate(ctx, c)
		if err != nil {
			res.Err = err
		} else {
			res.Stable = r.Stable
			if r.StepInfo != nil {
				res.Overshoot = r.StepInfo.Overshoot
			}
		}
		results = append(results, res)
	}

	return results, nil
}

// perturb scales each named field of base by a factor drawn uniformly from
// [1-amount, 1+amount].
func perturb(base config.Config, names []string, amount float64, rng *rand.Rand) (config.Config, map[string]float64, error) {
	c := base
	values := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := c.Get(name)
		if err != nil {
			return base, values, err
		}
		v *= 1 + (rng.Float64()-0.5)*2*amount
		if c, err = c.Set(name, v); err != nil {
			return base, values, err
		}
		values[name] = v
	}
	return c, values, nil
}

// MonteCarloStats counts stable trials and averages the overshoot of those
// with defined step metrics.
func MonteCarloStats(results []MonteCarloResult) (stableCount, unstableCount int, meanOvershoot, stdOvershoot float64) {
	var overshoot []float64
	for _, r := range results {
		if r.Err == nil && r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
		if !math.IsNaN(r.Overshoot) {
			overshoot = append(overshoot, r.Overshoot)
		}
	}
	meanOvershoot, stdOvershoot = math.NaN(), math.NaN()
	if len(overshoot) > 0 {
		meanOvershoot, stdOvershoot = stat.MeanStdDev(overshoot, nil)
	}
	return
}
