package config

import (
	"fmt"
	"math"
	"sort"
)

// Range is the interval a numeric field covers in the explorer. Integer
// fields move in whole steps.
type Range struct {
	Min     float64
	Max     float64
	Integer bool
}

// Ranges are the slider bounds of the interactive explorer.
var Ranges = map[string]Range{
	"k":             {Min: -1, Max: 2},
	"t":             {Min: -1, Max: 2},
	"zeta":          {Min: -1, Max: 2},
	"wn":            {Min: -10, Max: 10},
	"kp":            {Min: -1, Max: 5},
	"kd":            {Min: -1, Max: 1},
	"ki":            {Min: -1, Max: 30, Integer: true},
	"start":         {Min: 0, Max: 50},
	"end":           {Min: 0, Max: 50},
	"resolution_ms": {Min: 0, Max: 100, Integer: true},
	"frequency":     {Min: 0, Max: 100, Integer: true},
}

// Clamp limits v to r, rounding integer fields.
func (r Range) Clamp(v float64) float64 {
	if r.Integer {
		v = math.Round(v)
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max && (!r.Integer || v == math.Trunc(v))
}

func (c *Config) fields() map[string]*float64 {
	return map[string]*float64{
		"k":             &c.Plant.K,
		"t":             &c.Plant.T,
		"zeta":          &c.Plant.Zeta,
		"wn":            &c.Plant.Wn,
		"a":             &c.Plant.A,
		"b":             &c.Plant.B,
		"c":             &c.Plant.C,
		"d":             &c.Plant.D,
		"e":             &c.Plant.E,
		"kp":            &c.Controller.Kp,
		"kd":            &c.Controller.Kd,
		"ki":            &c.Controller.Ki,
		"start":         &c.Simulation.Start,
		"end":           &c.Simulation.End,
		"resolution_ms": &c.Simulation.ResolutionMs,
		"frequency":     &c.Input.Frequency,
	}
}

// FieldNames lists the numeric fields accepted by Get and Set.
func FieldNames() []string {
	var c Config
	names := make([]string, 0, len(c.fields()))
	for name := range c.fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Config) Get(name string) (float64, error) {
	p, ok := c.fields()[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter: %s", name)
	}
	return *p, nil
}

// Set returns a copy of c with the named numeric field replaced.
func (c Config) Set(name string, value float64) (Config, error) {
	p, ok := c.fields()[name]
	if !ok {
		return c, fmt.Errorf("unknown parameter: %s", name)
	}
	*p = value
	return c, nil
}

type RangeViolation struct {
	Field string
	Value float64
	Range Range
}

func (v RangeViolation) String() string {
	return fmt.Sprintf("%s=%g outside [%g, %g]", v.Field, v.Value, v.Range.Min, v.Range.Max)
}

// CheckRanges reports fields outside the explorer ranges. Only fields that
// matter for the configured plant, controller and input are checked.
func (c Config) CheckRanges() []RangeViolation {
	relevant := []string{"start", "end", "resolution_ms"}
	if params, err := c.Params(); err == nil {
		for name := range params.Plant.Params() {
			if _, ok := Ranges[name]; ok {
				relevant = append(relevant, name)
			}
		}
	}
	if c.Controller.Enabled {
		relevant = append(relevant, "kp", "kd", "ki")
	}
	if c.Input.Type != "" && c.Input.Type != "step" {
		relevant = append(relevant, "frequency")
	}

	sort.Strings(relevant)
	var out []RangeViolation
	for _, name := range relevant {
		v, _ := c.Get(name)
		if r := Ranges[name]; !r.Contains(v) {
			out = append(out, RangeViolation{Field: name, Value: v, Range: r})
		}
	}
	return out
}
