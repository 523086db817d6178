package lti

import "errors"

// Domain errors for model construction and evaluation.
var (
	// ErrInvalidModel indicates a degenerate model: an all-zero or non-finite
	// denominator, or an improper system where a proper one is required.
	ErrInvalidModel = errors.New("lti: invalid model")

	// ErrNumericalInstability indicates a computation produced non-finite values.
	ErrNumericalInstability = errors.New("lti: numerical instability (NaN or Inf detected)")

	// ErrUndefinedMetric indicates a metric was requested for a system that has
	// no well-defined value for it (e.g. settling time of an unstable system).
	ErrUndefinedMetric = errors.New("lti: metric undefined for this system")
)
