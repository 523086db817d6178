package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/response"
	"gopkg.in/yaml.v3"
)

// Evaluator is satisfied by *service.Service.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg config.Config) (*response.Report, error)
}

// Saver persists an evaluated step under a name, returning its run ID.
type Saver interface {
	Save(name string, cfg config.Config, r *response.Report) (string, error)
}

// Scenario is a scripted sequence of evaluations.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults), applies an optional
// full config and then the named parameter overrides.
type ScenarioStep struct {
	Preset     string             `yaml:"preset"`
	Config     *config.Config     `yaml:"config"`
	Controller string             `yaml:"controller"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

// Outcome is the result of one step. A failed step keeps its error and the
// scenario moves on.
type Outcome struct {
	Step   int
	Config config.Config
	Report *response.Report
	RunID  string
	Err    error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the config a step evaluates.
func (s ScenarioStep) Resolve() (config.Config, error) {
	cfg := *config.DefaultConfig()
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return cfg, fmt.Errorf("unknown preset: %s", s.Preset)
		}
		cfg = *p
	}
	if s.Config != nil {
		cfg = *s.Config
	}
	switch s.Controller {
	case "":
	case "none":
		cfg.Controller.Enabled = false
	default:
		cfg.Controller.Enabled = true
		cfg.Controller.Type = s.Controller
	}
	for name, v := range s.Params {
		var err error
		if cfg, err = cfg.Set(name, v); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// RunScenario evaluates every step in order. Only context cancellation stops
// it early; saver may be nil.
func RunScenario(ctx context.Context, scenario *Scenario, eval Evaluator, saver Saver) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := Outcome{Step: i + 1}

		out.Config, out.Err = step.Resolve()
		if out.Err == nil {
			out.Report, out.Err = eval.Evaluate(ctx, out.Config)
		}
		if out.Err == nil && step.SaveAs != "" && saver != nil {
			out.RunID, out.Err = saver.Save(step.SaveAs, out.Config, out.Report)
		}
		if out.Err != nil {
			out.Err = fmt.Errorf("step %d: %w", i+1, out.Err)
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
