package lti

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Poly is a real polynomial with coefficients in descending powers of s.
type Poly []float64

func (p Poly) Clone() Poly {
	c := make(Poly, len(p))
	copy(c, p)
	return c
}

// Trim returns p without leading zero coefficients. The zero polynomial trims
// to an empty Poly.
func (p Poly) Trim() Poly {
	for i, c := range p {
		if c != 0 {
			return p[i:]
		}
	}
	return Poly{}
}

func (p Poly) IsZero() bool {
	return len(p.Trim()) == 0
}

// Degree returns the degree of p, or -1 for the zero polynomial.
func (p Poly) Degree() int {
	return len(p.Trim()) - 1
}

func (p Poly) IsFinite() bool {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Add returns p + q, aligning coefficients on the constant term.
func (p Poly) Add(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	result := make(Poly, n)
	for i := range p {
		result[n-len(p)+i] += p[i]
	}
	for i := range q {
		result[n-len(q)+i] += q[i]
	}
	return result
}

// Mul returns the product p * q.
func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{}
	}
	result := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		for j, b := range q {
			result[i+j] += a * b
		}
	}
	return result
}

func (p Poly) Scale(factor float64) Poly {
	result := make(Poly, len(p))
	for i := range p {
		result[i] = p[i] * factor
	}
	return result
}

// Eval evaluates p at the complex point s with Horner's scheme.
func (p Poly) Eval(s complex128) complex128 {
	var acc complex128
	for _, c := range p {
		acc = acc*s + complex(c, 0)
	}
	return acc
}

// EvalReal evaluates p at the real point x.
func (p Poly) EvalReal(x float64) float64 {
	acc := 0.0
	for _, c := range p {
		acc = acc*x + c
	}
	return acc
}

// Roots returns the roots of p sorted by real then imaginary part. Zeros at
// the origin are split off exactly; the remaining roots are the eigenvalues of
// the companion matrix.
func (p Poly) Roots() ([]complex128, error) {
	t := p.Trim()
	if !t.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite polynomial coefficients", ErrNumericalInstability)
	}
	if len(t) <= 1 {
		return nil, nil
	}

	roots := make([]complex128, 0, len(t)-1)
	for len(t) > 1 && t[len(t)-1] == 0 {
		roots = append(roots, 0)
		t = t[:len(t)-1]
	}

	switch deg := len(t) - 1; {
	case deg == 1:
		roots = append(roots, complex(-t[1]/t[0], 0))
	case deg > 1:
		companion := mat.NewDense(deg, deg, nil)
		for j := 0; j < deg; j++ {
			companion.Set(0, j, -t[j+1]/t[0])
		}
		for i := 1; i < deg; i++ {
			companion.Set(i, i-1, 1)
		}

		var eig mat.Eigen
		if ok := eig.Factorize(companion, mat.EigenNone); !ok {
			return nil, fmt.Errorf("%w: eigenvalue decomposition did not converge", ErrNumericalInstability)
		}
		roots = append(roots, eig.Values(nil)...)
	}

	for _, r := range roots {
		if cmplx.IsNaN(r) || cmplx.IsInf(r) {
			return nil, fmt.Errorf("%w: non-finite root", ErrNumericalInstability)
		}
	}
	SortRoots(roots)
	return roots, nil
}

// SortRoots orders roots by real part, then imaginary part. Real parts closer
// than a relative 1e-9 count as equal so conjugate pairs stay adjacent.
func SortRoots(roots []complex128) {
	sort.SliceStable(roots, func(i, j int) bool {
		ri, rj := real(roots[i]), real(roots[j])
		if math.Abs(ri-rj) > 1e-9*math.Max(1, math.Max(math.Abs(ri), math.Abs(rj))) {
			return ri < rj
		}
		return imag(roots[i]) < imag(roots[j])
	})
}

// Render formats p as a polynomial in the given variable, e.g. "s^2 + 2 s + 4".
func (p Poly) Render(variable string) string {
	t := p.Trim()
	if len(t) == 0 {
		return "0"
	}

	var b strings.Builder
	deg := len(t) - 1
	for i, c := range t {
		if c == 0 {
			continue
		}
		power := deg - i
		mag := math.Abs(c)

		switch {
		case b.Len() == 0 && c < 0:
			b.WriteString("-")
		case b.Len() > 0 && c < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}

		coef := strconv.FormatFloat(mag, 'g', 4, 64)
		switch {
		case power == 0:
			b.WriteString(coef)
		case mag == 1 && power == 1:
			b.WriteString(variable)
		case mag == 1:
			b.WriteString(variable + "^" + strconv.Itoa(power))
		case power == 1:
			b.WriteString(coef + " " + variable)
		default:
			b.WriteString(coef + " " + variable + "^" + strconv.Itoa(power))
		}
	}
	return b.String()
}

func (p Poly) String() string {
	return p.Render("s")
}
