package lti

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateSpace is a SISO realization
//
//	x'(t) = A x(t) + B u(t)
//	y(t)  = C x(t) + D u(t)
//
// A static gain has order zero and nil matrices.
type StateSpace struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

// Realize returns the controllable canonical realization of a proper transfer
// function. Improper systems cannot be realized and fail with ErrInvalidModel.
func Realize(g *TransferFunction) (*StateSpace, error) {
	den := g.den.Trim()
	num := g.num.Trim()
	if len(num) == 0 {
		num = Poly{0}
	}
	if len(num) > len(den) {
		return nil, fmt.Errorf("%w: improper transfer function (numerator degree %d > denominator degree %d)",
			ErrInvalidModel, len(num)-1, len(den)-1)
	}

	lead := den[0]
	a := den.Scale(1 / lead)
	b := make(Poly, len(den))
	copy(b[len(den)-len(num):], num.Scale(1/lead))

	n := len(den) - 1
	if n == 0 {
		return &StateSpace{D: b[0]}, nil
	}

	A := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		A.Set(0, j, -a[j+1])
	}
	for i := 1; i < n; i++ {
		A.Set(i, i-1, 1)
	}

	B := mat.NewVecDense(n, nil)
	B.SetVec(0, 1)

	C := mat.NewVecDense(n, nil)
	for i := 1; i <= n; i++ {
		C.SetVec(i-1, b[i]-a[i]*b[0])
	}

	return &StateSpace{A: A, B: B, C: C, D: b[0]}, nil
}

// Order is the number of states.
func (ss *StateSpace) Order() int {
	if ss.A == nil {
		return 0
	}
	n, _ := ss.A.Dims()
	return n
}

// Output returns C x + D u.
func (ss *StateSpace) Output(x []float64, u float64) float64 {
	y := ss.D * u
	for i, v := range x {
		y += ss.C.AtVec(i) * v
	}
	return y
}

// Derivative returns A x + B u.
func (ss *StateSpace) Derivative(x []float64, u float64) []float64 {
	n := ss.Order()
	dx := mat.NewVecDense(n, nil)
	dx.MulVec(ss.A, mat.NewVecDense(n, x))
	dx.AddScaledVec(dx, u, ss.B)
	return dx.RawVector().Data
}
