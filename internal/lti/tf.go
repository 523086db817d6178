package lti

import (
	"fmt"
	"math"
	"strings"
)

// TransferFunction is the ratio N(s)/D(s) of two real polynomials. Values are
// immutable: constructors copy their inputs and accessors return copies.
//
// Coefficients are kept exactly as given, leading zeros included, so a model
// built from [0 K] / [T 1] reports those arrays back. Numerical work (degree,
// roots, realization) strips leading zeros first.
type TransferFunction struct {
	num Poly
	den Poly
}

// New builds a transfer function from numerator and denominator coefficients
// in descending powers of s. An empty numerator is the zero system.
func New(num, den []float64) (*TransferFunction, error) {
	if len(den) == 0 {
		return nil, fmt.Errorf("%w: empty denominator", ErrInvalidModel)
	}
	d := Poly(den)
	if !d.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite denominator %v", ErrInvalidModel, den)
	}
	if d.IsZero() {
		return nil, fmt.Errorf("%w: denominator is identically zero", ErrInvalidModel)
	}

	n := Poly(num)
	if len(n) == 0 {
		n = Poly{0}
	}
	if !n.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite numerator %v", ErrInvalidModel, num)
	}

	return &TransferFunction{num: n.Clone(), den: d.Clone()}, nil
}

// Unity returns the static gain 1, the feedback path of a unity loop.
func Unity() *TransferFunction {
	return &TransferFunction{num: Poly{1}, den: Poly{1}}
}

func (g *TransferFunction) Num() []float64 { return g.num.Clone() }
func (g *TransferFunction) Den() []float64 { return g.den.Clone() }

// Order is the degree of the denominator.
func (g *TransferFunction) Order() int {
	return g.den.Degree()
}

// IsProper reports whether deg N <= deg D.
func (g *TransferFunction) IsProper() bool {
	return g.num.Degree() <= g.den.Degree()
}

// Mul returns the series connection g*h.
func (g *TransferFunction) Mul(h *TransferFunction) (*TransferFunction, error) {
	return New(g.num.Mul(h.num), g.den.Mul(h.den))
}

// Feedback closes a negative feedback loop with h in the return path:
// g / (1 + g*h).
func (g *TransferFunction) Feedback(h *TransferFunction) (*TransferFunction, error) {
	num := g.num.Mul(h.den)
	den := g.den.Mul(h.den).Add(g.num.Mul(h.num))
	loop, err := New(num, den)
	if err != nil {
		return nil, fmt.Errorf("closing loop: %w", err)
	}
	return loop, nil
}

// Eval returns G(s).
func (g *TransferFunction) Eval(s complex128) complex128 {
	return g.num.Eval(s) / g.den.Eval(s)
}

// DCGain returns G(0). It is +/-Inf when D(0) = 0 and NaN when N(0) = D(0) = 0.
func (g *TransferFunction) DCGain() float64 {
	n := g.num.EvalReal(0)
	d := g.den.EvalReal(0)
	if d == 0 {
		if n == 0 {
			return math.NaN()
		}
		return math.Copysign(math.Inf(1), n)
	}
	return n / d
}

// Poles returns the roots of the denominator.
func (g *TransferFunction) Poles() ([]complex128, error) {
	return g.den.Roots()
}

// Zeros returns the roots of the numerator.
func (g *TransferFunction) Zeros() ([]complex128, error) {
	return g.num.Roots()
}

// String renders the transfer function as a fraction:
//
//	    1
//	---------
//	  s + 1
func (g *TransferFunction) String() string {
	top := g.num.String()
	bottom := g.den.String()
	width := len(top)
	if len(bottom) > width {
		width = len(bottom)
	}
	width += 2
	return center(top, width) + "\n" + strings.Repeat("-", width) + "\n" + center(bottom, width)
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
