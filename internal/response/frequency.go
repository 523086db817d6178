package response

import (
	"encoding/json"
	"math"
)

// FrequencyResult holds aligned Bode arrays: Omega in rad/s, magnitude in dB
// and phase in degrees.
type FrequencyResult struct {
	Omega       []float64
	MagnitudeDB []float64
	PhaseDeg    []float64
}

func (f *FrequencyResult) Len() int { return len(f.Omega) }

type frequencyJSON struct {
	Omega       []float64  `json:"omega"`
	MagnitudeDB []*float64 `json:"magnitude_db"`
	PhaseDeg    []float64  `json:"phase_deg"`
}

// MarshalJSON writes -Inf magnitudes (a zero response) as null.
func (f *FrequencyResult) MarshalJSON() ([]byte, error) {
	out := frequencyJSON{
		Omega:       f.Omega,
		MagnitudeDB: make([]*float64, len(f.MagnitudeDB)),
		PhaseDeg:    f.PhaseDeg,
	}
	for i := range f.MagnitudeDB {
		if !math.IsInf(f.MagnitudeDB[i], 0) && !math.IsNaN(f.MagnitudeDB[i]) {
			out.MagnitudeDB[i] = &f.MagnitudeDB[i]
		}
	}
	return json.Marshal(out)
}

func (f *FrequencyResult) UnmarshalJSON(data []byte) error {
	var in frequencyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.Omega = in.Omega
	f.PhaseDeg = in.PhaseDeg
	f.MagnitudeDB = make([]float64, len(in.MagnitudeDB))
	for i, m := range in.MagnitudeDB {
		if m == nil {
			f.MagnitudeDB[i] = math.Inf(-1)
		} else {
			f.MagnitudeDB[i] = *m
		}
	}
	return nil
}

// Margins are the classical stability margins of an open loop read off its
// Bode arrays. A margin is only meaningful when its Has flag is set: a loop
// whose magnitude never crosses 0 dB has no phase margin, one whose phase
// never crosses -180 degrees has no gain margin.
type Margins struct {
	GainMarginDB   float64 `json:"gain_margin_db"`
	PhaseCrossover float64 `json:"phase_crossover"`
	HasGainMargin  bool    `json:"has_gain_margin"`

	PhaseMarginDeg float64 `json:"phase_margin_deg"`
	GainCrossover  float64 `json:"gain_crossover"`
	HasPhaseMargin bool    `json:"has_phase_margin"`
}

// StabilityMargins interpolates the 0 dB and -180+360k degree crossings of
// f linearly in log frequency. With several crossings the smallest margin is
// reported.
func StabilityMargins(f *FrequencyResult) Margins {
	var m Margins
	for i := 0; i+1 < f.Len(); i++ {
		w0, w1 := f.Omega[i], f.Omega[i+1]
		m0, m1 := f.MagnitudeDB[i], f.MagnitudeDB[i+1]
		p0, p1 := f.PhaseDeg[i], f.PhaseDeg[i+1]
		if !finite(m0, m1, p0, p1) {
			continue
		}

		if crosses(m0, m1, 0) {
			frac := (0 - m0) / (m1 - m0)
			if m1 == m0 {
				frac = 0
			}
			wc := logInterp(w0, w1, frac)
			pm := wrap180(p0 + frac*(p1-p0) - 180)
			if !m.HasPhaseMargin || pm < m.PhaseMarginDeg {
				m.PhaseMarginDeg, m.GainCrossover, m.HasPhaseMargin = pm, wc, true
			}
		}

		lo, hi := math.Min(p0, p1), math.Max(p0, p1)
		for k := math.Ceil((lo + 180) / 360); -180+360*k <= hi; k++ {
			level := -180 + 360*k
			if !crosses(p0, p1, level) {
				continue
			}
			frac := (level - p0) / (p1 - p0)
			if p1 == p0 {
				frac = 0
			}
			wp := logInterp(w0, w1, frac)
			gm := -(m0 + frac*(m1-m0))
			if !m.HasGainMargin || gm < m.GainMarginDB {
				m.GainMarginDB, m.PhaseCrossover, m.HasGainMargin = gm, wp, true
			}
		}
	}
	return m
}

// crosses reports whether the segment a..b reaches level, counting a touch
// at the left end but not at the right so shared points count once.
func crosses(a, b, level float64) bool {
	if a == level {
		return true
	}
	return (a < level && b > level) || (a > level && b < level)
}

func logInterp(w0, w1, frac float64) float64 {
	return math.Pow(10, math.Log10(w0)+frac*(math.Log10(w1)-math.Log10(w0)))
}

// wrap180 maps an angle in degrees to [-180, 180).
func wrap180(deg float64) float64 {
	return math.Mod(math.Mod(deg+180, 360)+360, 360) - 180
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
