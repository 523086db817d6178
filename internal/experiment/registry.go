// Package experiment resolves integrators and metrics by name for the
// evaluator, the CLI and config files.
package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/ltilab/internal/integrators"
	"github.com/san-kum/ltilab/internal/metrics"
	"github.com/san-kum/ltilab/internal/sim"
)

// DefaultIntegrator is the exact first-order-hold discretization.
const DefaultIntegrator = "foh"

// DivergenceBound is the output magnitude beyond which the stability metric
// counts a sample as diverged.
const DivergenceBound = 1e6

type Registry struct {
	integrators map[string]func() sim.Integrator
	metrics     map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
		metrics:     make(map[string]func() sim.Metric),
	}

	r.integrators["foh"] = func() sim.Integrator { return integrators.NewFOH() }
	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() sim.Integrator { return integrators.NewRK45() }

	r.metrics["iae"] = func() sim.Metric { return metrics.NewIAE() }
	r.metrics["ise"] = func() sim.Metric { return metrics.NewISE() }
	r.metrics["itae"] = func() sim.Metric { return metrics.NewITAE() }
	r.metrics["energy"] = func() sim.Metric { return metrics.NewEnergy() }
	r.metrics["peak"] = func() sim.Metric { return metrics.NewPeak() }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(DivergenceBound) }

	return r
}

// GetIntegrator returns a fresh integrator; "" selects DefaultIntegrator.
func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	if name == "" {
		name = DefaultIntegrator
	}
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

// DefaultMetrics returns the observers attached to every time response.
// Tracking-error indices only make sense when the input is a reference, so
// they are added for closed loops only.
func (r *Registry) DefaultMetrics(closedLoop bool) []sim.Metric {
	m := []sim.Metric{
		metrics.NewPeak(),
		metrics.NewEnergy(),
		metrics.NewStability(DivergenceBound),
	}
	if closedLoop {
		m = append(m, metrics.NewIAE(), metrics.NewISE(), metrics.NewITAE())
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
