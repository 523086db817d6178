// Package analysis inspects sampled responses in the frequency domain.
//
//   - [PowerSpectrum]: single-sided FFT magnitude of a real signal
//   - [DominantFrequency]: strongest non-DC component, in rad/s
//   - [MeasureTone]: gain and phase of a steady-state sinusoidal response,
//     the empirical counterpart of a Bode sample
//
// # Checking a Bode point
//
//	res, _ := eval.TimeResponse(ctx, sys, grid, sim.Sinusoid{Frequency: w})
//	tone, _ := analysis.MeasureTone(res.Times, res.Inputs, res.Outputs, w)
//	// tone.GainDB ~ 20 log10 |G(jw)| once transients have decayed
package analysis
