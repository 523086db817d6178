// Package lti provides continuous-time, single-input single-output linear
// time-invariant models.
//
// The package covers the pieces every other part of ltilab builds on:
//
//   - [Poly]: real polynomial in descending powers of s
//   - [TransferFunction]: immutable ratio of two polynomials
//   - [StateSpace]: controllable canonical realization of a proper transfer function
//
// Failures are reported with the sentinel errors in errors.go and are meant to
// be checked with errors.Is.
//
// # Example
//
//	g, _ := lti.New([]float64{1}, []float64{1, 1})
//	loop, _ := g.Feedback(lti.Unity())
//	poles, _ := loop.Poles() // [-2]
package lti
