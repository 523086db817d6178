package config

import (
	"fmt"
	"os"

	"github.com/san-kum/ltilab/internal/experiment"
	"github.com/san-kum/ltilab/internal/model"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGain         = 1.0
	DefaultTimeConstant = 1.0
	DefaultZeta         = 1.0
	DefaultWn           = 1.0
	DefaultStart        = 0.0
	DefaultEnd          = 5.0
	DefaultResolutionMs = 10.0
	DefaultFrequency    = 1.0
	DefaultFreqMin      = 1e-2
	DefaultFreqMax      = 1e2
	DefaultFreqPoints   = 50
)

// Config is one complete, self-contained description of an evaluation. It
// holds no references, so copies are independent.
type Config struct {
	Plant      PlantConfig      `yaml:"plant" json:"plant"`
	Controller ControllerConfig `yaml:"controller" json:"controller"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Input      InputConfig      `yaml:"input" json:"input"`
	Frequency  FrequencyConfig  `yaml:"frequency" json:"frequency"`
}

type PlantConfig struct {
	Type string  `yaml:"type" json:"type"`
	K    float64 `yaml:"k" json:"k"`
	T    float64 `yaml:"t" json:"t"`
	Zeta float64 `yaml:"zeta" json:"zeta"`
	Wn   float64 `yaml:"wn" json:"wn"`
	A    float64 `yaml:"a" json:"a"`
	B    float64 `yaml:"b" json:"b"`
	C    float64 `yaml:"c" json:"c"`
	D    float64 `yaml:"d" json:"d"`
	E    float64 `yaml:"e" json:"e"`
}

type ControllerConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Type    string  `yaml:"type" json:"type"`
	Kp      float64 `yaml:"kp" json:"kp"`
	Kd      float64 `yaml:"kd" json:"kd"`
	Ki      float64 `yaml:"ki" json:"ki"`
}

type SimulationConfig struct {
	Start        float64 `yaml:"start" json:"start"`
	End          float64 `yaml:"end" json:"end"`
	ResolutionMs float64 `yaml:"resolution_ms" json:"resolution_ms"`
	Integrator   string  `yaml:"integrator" json:"integrator"`
}

type InputConfig struct {
	Type      string  `yaml:"type" json:"type"`
	Frequency float64 `yaml:"frequency" json:"frequency"`
}

type FrequencyConfig struct {
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
	Points int     `yaml:"points" json:"points"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant: PlantConfig{
			Type: model.FirstOrder.String(),
			K:    DefaultGain,
			T:    DefaultTimeConstant,
			Zeta: DefaultZeta,
			Wn:   DefaultWn,
			A:    1, B: 1, C: 1, D: 1, E: 1,
		},
		Controller: ControllerConfig{
			Type: model.P.String(),
			Kp:   1,
			Kd:   1,
			Ki:   1,
		},
		Simulation: SimulationConfig{
			Start:        DefaultStart,
			End:          DefaultEnd,
			ResolutionMs: DefaultResolutionMs,
			Integrator:   experiment.DefaultIntegrator,
		},
		Input: InputConfig{
			Type:      "step",
			Frequency: DefaultFrequency,
		},
		Frequency: FrequencyConfig{
			Min:    DefaultFreqMin,
			Max:    DefaultFreqMax,
			Points: DefaultFreqPoints,
		},
	}
}

// Load reads a YAML config. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, *DefaultConfig())
}

// LoadOver reads a YAML config on top of base, so fields missing from the
// file keep the values of base.
func LoadOver(path string, base Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params maps the plant and, when enabled, the controller to model specs.
func (c Config) Params() (model.Params, error) {
	kind, err := model.ParsePlantKind(c.Plant.Type)
	if err != nil {
		return model.Params{}, err
	}
	p := model.Params{Plant: model.PlantSpec{
		Kind: kind,
		K:    c.Plant.K,
		T:    c.Plant.T,
		Zeta: c.Plant.Zeta,
		Wn:   c.Plant.Wn,
		A:    c.Plant.A,
		B:    c.Plant.B,
		C:    c.Plant.C,
		D:    c.Plant.D,
		E:    c.Plant.E,
	}}
	if !c.Controller.Enabled {
		return p, nil
	}

	ck, err := model.ParseControllerKind(c.Controller.Type)
	if err != nil {
		return model.Params{}, err
	}
	return p.WithController(model.ControllerSpec{
		Kind: ck,
		Kp:   c.Controller.Kp,
		Kd:   c.Controller.Kd,
		Ki:   c.Controller.Ki,
	}), nil
}

func (c Config) Grid() sim.Grid {
	return sim.NewGrid(c.Simulation.Start, c.Simulation.End, c.Simulation.ResolutionMs)
}

func (c Config) Signal() (sim.Input, error) {
	return sim.NewInput(c.Input.Type, c.Input.Frequency)
}

func (c Config) Options() response.Options {
	opts := response.DefaultOptions()
	if c.Simulation.Integrator != "" {
		opts.Integrator = c.Simulation.Integrator
	}
	if c.Frequency.Min > 0 {
		opts.FreqMin = c.Frequency.Min
	}
	if c.Frequency.Max > 0 {
		opts.FreqMax = c.Frequency.Max
	}
	if c.Frequency.Points > 0 {
		opts.FreqPoints = c.Frequency.Points
	}
	return opts
}

// Validate checks that the config can be evaluated at all: the plant, and
// the closed loop when a controller is enabled, must build. Out-of-range but
// meaningful values (see CheckRanges) are not errors.
func (c Config) Validate() error {
	p, err := c.Params()
	if err != nil {
		return err
	}
	if _, err := p.System(); err != nil {
		return err
	}
	if err := c.Grid().Validate(); err != nil {
		return err
	}
	if _, err := c.Signal(); err != nil {
		return err
	}
	if _, err := experiment.NewRegistry().GetIntegrator(c.Simulation.Integrator); err != nil {
		return err
	}
	if c.Frequency.Points != 0 && c.Frequency.Points < 2 {
		return fmt.Errorf("frequency points must be at least 2, got %d", c.Frequency.Points)
	}
	if c.Frequency.Min < 0 || (c.Frequency.Max != 0 && c.Frequency.Max <= c.Frequency.Min) {
		return fmt.Errorf("invalid frequency range [%g, %g]", c.Frequency.Min, c.Frequency.Max)
	}
	return nil
}
