package config

import "sort"

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

var Presets = map[string]*Config{
	"first-order": DefaultConfig(),
	"integrator": preset(func(c *Config) {
		c.Plant.Type = "first_order_integrator"
		c.Simulation.End = 10
	}),
	"underdamped": preset(func(c *Config) {
		c.Plant.Type = "second_order"
		c.Plant.Zeta = 0.2
		c.Plant.Wn = 2
		c.Simulation.End = 15
	}),
	"undamped": preset(func(c *Config) {
		c.Plant.Type = "second_order"
		c.Plant.Zeta = 0
		c.Plant.Wn = 2
		c.Simulation.End = 15
	}),
	"unstable": preset(func(c *Config) {
		c.Plant.Type = "first_order"
		c.Plant.T = -1
	}),
	"nonminimum-phase": preset(func(c *Config) {
		// (-s + 1) / (s^2 + 2 s + 1)
		c.Plant.Type = "arbitrary"
		c.Plant.A, c.Plant.B = -1, 1
		c.Plant.C, c.Plant.D, c.Plant.E = 1, 2, 1
		c.Simulation.End = 10
	}),
	"p-loop": preset(func(c *Config) {
		c.Controller.Enabled = true
		c.Controller.Type = "p"
		c.Controller.Kp = 4
	}),
	"pd-loop": preset(func(c *Config) {
		c.Plant.Type = "second_order"
		c.Plant.Zeta = 0.2
		c.Plant.Wn = 2
		c.Controller.Enabled = true
		c.Controller.Type = "pd"
		c.Controller.Kp = 2
		c.Controller.Kd = 0.5
		c.Simulation.End = 10
	}),
	"pid-loop": preset(func(c *Config) {
		c.Plant.Type = "first_order_integrator"
		c.Controller.Enabled = true
		c.Controller.Type = "pid"
		c.Controller.Kp = 3
		c.Controller.Kd = 0.5
		c.Controller.Ki = 1
		c.Simulation.End = 20
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
