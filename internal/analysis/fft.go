package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrShortRecord = errors.New("analysis: record too short")

// PowerSpectrum returns |X[k]| for k in [0, n/2).
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the angular frequency of the largest non-DC bin
// of data sampled every dt seconds.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	if len(data) < 4 || dt <= 0 {
		return 0, fmt.Errorf("%w: %d samples", ErrShortRecord, len(data))
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	ps := PowerSpectrum(centered)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return 2 * math.Pi * float64(best) / (float64(len(data)) * dt), nil
}

// Tone is the measured steady-state transfer of a sinusoid.
type Tone struct {
	Frequency float64 `json:"frequency"`
	GainDB    float64 `json:"gain_db"`
	PhaseDeg  float64 `json:"phase_deg"`
	Periods   int     `json:"periods"`
	Samples   int     `json:"samples"`
}

// MeasureTone compares output and input at the angular frequency omega over
// the longest whole number of periods that fits in the second half of the
// record, where start-up transients of a stable system have decayed. Times
// must be uniformly spaced.
func MeasureTone(times, u, y []float64, omega float64) (Tone, error) {
	n := len(times)
	if n != len(u) || n != len(y) {
		return Tone{}, fmt.Errorf("analysis: mismatched lengths %d, %d, %d", n, len(u), len(y))
	}
	if omega <= 0 {
		return Tone{}, fmt.Errorf("analysis: tone frequency must be positive, got %g", omega)
	}
	if n < 8 {
		return Tone{}, fmt.Errorf("%w: %d samples", ErrShortRecord, n)
	}

	dt := times[1] - times[0]
	period := 2 * math.Pi / omega
	tail := float64(n-n/2) * dt
	periods := int(tail / period)
	if periods < 1 {
		return Tone{}, fmt.Errorf("%w: %.3gs tail holds no full period of %.3gs", ErrShortRecord, tail, period)
	}

	samples := int(math.Round(float64(periods) * period / dt))
	if samples > n-n/2 {
		samples = n - n/2
	}
	if samples < 4 {
		return Tone{}, fmt.Errorf("%w: %d samples per window", ErrShortRecord, samples)
	}

	start := n - samples
	U := fft.FFTReal(u[start:])
	Y := fft.FFTReal(y[start:])
	if cmplx.Abs(U[periods]) == 0 {
		return Tone{}, fmt.Errorf("analysis: input has no energy at %g rad/s", omega)
	}

	h := Y[periods] / U[periods]
	return Tone{
		Frequency: omega,
		GainDB:    20 * math.Log10(cmplx.Abs(h)),
		PhaseDeg:  cmplx.Phase(h) * 180 / math.Pi,
		Periods:   periods,
		Samples:   samples,
	}, nil
}
