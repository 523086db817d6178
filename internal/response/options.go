package response

import "github.com/san-kum/ltilab/internal/experiment"

type Options struct {
	// Integrator names the time-stepping scheme, see experiment.Registry.
	Integrator string

	// Bode grid: FreqPoints log-spaced values over [FreqMin, FreqMax] rad/s.
	FreqMin    float64
	FreqMax    float64
	FreqPoints int

	// SettlingThreshold is the relative band around the final value that
	// defines settling. RiseLow and RiseHigh bound the rise time.
	SettlingThreshold float64
	RiseLow           float64
	RiseHigh          float64

	// StepHorizon fixes the StepInfo simulation length in seconds. Zero
	// derives it from the pole locations.
	StepHorizon float64
}

func DefaultOptions() Options {
	return Options{
		Integrator:        experiment.DefaultIntegrator,
		FreqMin:           1e-2,
		FreqMax:           1e2,
		FreqPoints:        50,
		SettlingThreshold: 0.05,
		RiseLow:           0.1,
		RiseHigh:          0.9,
	}
}
