// Package response evaluates transfer functions: time response to a step or
// sinusoid, poles and zeros, step-response metrics, Bode magnitude and phase,
// and stability margins.
//
// An [Evaluator] holds only options and is safe for concurrent use; every
// call builds its own simulator.
package response
