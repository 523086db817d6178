package automation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/service"
)

type recordingSaver struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingSaver) Save(name string, cfg config.Config, r *response.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return "run-" + name, nil
}

const scenarioYAML = `
name: gain study
description: P loop around a first-order plant
steps:
  - preset: first-order
  - preset: first-order
    controller: p
    params:
      kp: 4
    save_as: p4
  - preset: missing
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "gain study" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Params["kp"] != 4 || sc.Steps[1].SaveAs != "p4" {
		t.Errorf("unexpected step %+v", sc.Steps[1])
	}
}

func TestLoadScenario_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(path, []byte("name: nothing\n"), 0644)
	if _, err := LoadScenario(path); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestScenarioStep_Resolve(t *testing.T) {
	step := ScenarioStep{Preset: "underdamped", Controller: "pd", Params: map[string]float64{"kd": 0.3}}
	cfg, err := step.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Plant.Zeta != 0.2 || !cfg.Controller.Enabled || cfg.Controller.Type != "pd" || cfg.Controller.Kd != 0.3 {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := (ScenarioStep{Params: map[string]float64{"mass": 1}}).Resolve(); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRunScenario(t *testing.T) {
	sc := &Scenario{}
	if err := yamlInto(scenarioYAML, sc); err != nil {
		t.Fatal(err)
	}
	saver := &recordingSaver{}

	outcomes, err := RunScenario(context.Background(), sc, service.New(nil, nil), saver)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Report.ClosedLoop {
		t.Errorf("step 1: %+v", outcomes[0])
	}

	p4 := outcomes[1]
	if p4.Err != nil || p4.RunID != "run-p4" {
		t.Fatalf("step 2: %+v", p4)
	}
	// 4/(s+1) in unity feedback: single pole at -5
	if len(p4.Report.Poles) != 1 || math.Abs(p4.Report.Poles[0].Re+5) > 1e-9 {
		t.Errorf("expected pole at -5, got %v", p4.Report.Poles)
	}
	if outcomes[2].Err == nil {
		t.Error("expected error for unknown preset")
	}
	if len(saver.names) != 1 {
		t.Errorf("expected one save, got %v", saver.names)
	}
}

func TestRunScenario_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Steps: []ScenarioStep{{}, {}}}

	_, err := RunScenario(ctx, sc, service.New(nil, nil), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunSweep(t *testing.T) {
	base := *config.GetPreset("p-loop")
	sweep := &ParameterSweep{
		Base:      base,
		ParamName: "kp",
		ParamMin:  -3,
		ParamMax:  3,
		NumSteps:  7,
		Workers:   3,
	}

	results, err := RunSweep(context.Background(), sweep, service.New(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("kp=%g: %v", r.ParamValue, r.Err)
		}
		if want := float64(i - 3); r.ParamValue != want {
			t.Errorf("result %d: expected kp %g, got %g", i, want, r.ParamValue)
		}
		// closed-loop pole at -(1+kp)
		if stable := r.ParamValue > -1; r.Stable != stable {
			t.Errorf("kp=%g: expected stable=%v", r.ParamValue, stable)
		}
	}
	if results[0].StepInfo != nil {
		t.Error("expected undefined step info for unstable loop")
	}
	if si := results[6].StepInfo; si == nil || math.Abs(si.SteadyStateValue-0.75) > 1e-6 {
		t.Errorf("expected steady state 0.75 at kp=3, got %+v", si)
	}
}

func TestRunSweep_UnknownParam(t *testing.T) {
	sweep := &ParameterSweep{Base: *config.DefaultConfig(), ParamName: "mass", NumSteps: 3}
	if _, err := RunSweep(context.Background(), sweep, service.New(nil, nil)); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestSweepPoint_SetError(t *testing.T) {
	res, err := sweepPoint(context.Background(), *config.DefaultConfig(), "mass", 1, service.New(nil, nil))
	if err != nil {
		t.Fatalf("point failure should not abort the sweep: %v", err)
	}
	if res.Err == nil {
		t.Error("expected the Set error on the result")
	}
	if res.ParamValue != 1 {
		t.Errorf("ParamValue = %v, want 1", res.ParamValue)
	}
}

func TestPerturb(t *testing.T) {
	base := *config.DefaultConfig()
	rng := rand.New(rand.NewSource(7))

	c, values, err := perturb(base, []string{"k"}, 0.1, rng)
	if err != nil {
		t.Fatal(err)
	}
	if c.Plant.K != values["k"] || c.Plant.K < 0.9 || c.Plant.K > 1.1 {
		t.Errorf("k = %v (recorded %v), want within 10%% of 1", c.Plant.K, values["k"])
	}

	if _, _, err := perturb(base, []string{"k", "mass"}, 0.1, rng); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRunMonteCarlo_ZeroSeedReported(t *testing.T) {
	mc := &MonteCarloConfig{
		Base:         *config.DefaultConfig(),
		Params:       []string{"k"},
		Perturbation: 0.1,
		NumTrials:    3,
	}
	svc := service.New(nil, nil)

	results, err := RunMonteCarlo(context.Background(), mc, svc)
	if err != nil {
		t.Fatal(err)
	}
	seed := results[0].Seed
	if seed == 0 {
		t.Fatal("expected the drawn seed in the results")
	}
	for _, r := range results {
		if r.Seed != seed {
			t.Errorf("trial %d: seed %d, want %d", r.TrialID, r.Seed, seed)
		}
	}

	mc.Seed = seed
	again, err := RunMonteCarlo(context.Background(), mc, svc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range results {
		if results[i].Values["k"] != again[i].Values["k"] {
			t.Fatalf("trial %d not reproduced from reported seed", i)
		}
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{
		Base:         *config.GetPreset("pid-loop"),
		Params:       []string{"k", "t"},
		Perturbation: 0.2,
		NumTrials:    20,
		Seed:         42,
	}

	results, err := RunMonteCarlo(context.Background(), mc, service.New(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 20 {
		t.Fatalf("expected 20 trials, got %d", len(results))
	}
	for _, r := range results {
		if k := r.Values["k"]; k < 0.8 || k > 1.2 {
			t.Errorf("trial %d: k=%g outside perturbation band", r.TrialID, k)
		}
	}

	stable, unstable, mean, _ := MonteCarloStats(results)
	if stable != 20 || unstable != 0 {
		t.Errorf("expected all trials stable, got %d/%d", stable, unstable)
	}
	if math.IsNaN(mean) {
		t.Error("expected mean overshoot")
	}

	again, _ := RunMonteCarlo(context.Background(), mc, service.New(nil, nil))
	for i := range results {
		if results[i].Values["t"] != again[i].Values["t"] {
			t.Fatal("same seed produced different trials")
		}
	}
}

func TestMonteCarloStats_Empty(t *testing.T) {
	stable, unstable, mean, std := MonteCarloStats(nil)
	if stable != 0 || unstable != 0 || !math.IsNaN(mean) || !math.IsNaN(std) {
		t.Error("expected zero counts and NaN statistics")
	}
}

func yamlInto(s string, sc *Scenario) error {
	path := filepath.Join(os.TempDir(), "ltilab-scenario-test.yaml")
	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		return err
	}
	defer os.Remove(path)
	loaded, err := LoadScenario(path)
	if err != nil {
		return err
	}
	*sc = *loaded
	return nil
}
