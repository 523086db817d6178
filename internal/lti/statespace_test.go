package lti

import (
	"errors"
	"math"
	"testing"
)

func TestRealize_FirstOrder(t *testing.T) {
	g, _ := New([]float64{2}, []float64{4, 2})
	ss, err := Realize(g)
	if err != nil {
		t.Fatal(err)
	}
	if ss.Order() != 1 {
		t.Fatalf("expected order 1, got %d", ss.Order())
	}
	// 2/(4s+2) = 0.5/(s+0.5)
	if a := ss.A.At(0, 0); math.Abs(a+0.5) > 1e-12 {
		t.Errorf("A = %v, want -0.5", a)
	}
	if c := ss.C.AtVec(0); math.Abs(c-0.5) > 1e-12 {
		t.Errorf("C = %v, want 0.5", c)
	}
	if ss.D != 0 {
		t.Errorf("D = %v, want 0", ss.D)
	}
}

func TestRealize_Biproper(t *testing.T) {
	// (s + 3)/(s + 1) = 1 + 2/(s + 1)
	g, _ := New([]float64{1, 3}, []float64{1, 1})
	ss, err := Realize(g)
	if err != nil {
		t.Fatal(err)
	}
	if ss.D != 1 {
		t.Errorf("D = %v, want 1", ss.D)
	}
	if c := ss.C.AtVec(0); math.Abs(c-2) > 1e-12 {
		t.Errorf("C = %v, want 2", c)
	}
}

func TestRealize_Static(t *testing.T) {
	g, _ := New([]float64{3}, []float64{0, 2})
	ss, err := Realize(g)
	if err != nil {
		t.Fatal(err)
	}
	if ss.Order() != 0 {
		t.Errorf("expected order 0, got %d", ss.Order())
	}
	if ss.D != 1.5 {
		t.Errorf("D = %v, want 1.5", ss.D)
	}
	if y := ss.Output(nil, 2); y != 3 {
		t.Errorf("Output = %v, want 3", y)
	}
}

func TestRealize_Improper(t *testing.T) {
	g, _ := New([]float64{1, 1}, []float64{1})
	_, err := Realize(g)
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got %v", err)
	}
}

func TestRealize_PreservesDCGain(t *testing.T) {
	g, _ := New([]float64{4}, []float64{1, 2, 4})
	ss, err := Realize(g)
	if err != nil {
		t.Fatal(err)
	}

	// Steady state: 0 = A x + B  ->  y = C x.
	// For the companion form x = [0, 1/a2] with a2 = 4.
	x := []float64{0, 0.25}
	dx := ss.Derivative(x, 1)
	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("dx[%d] = %v, want 0 at equilibrium", i, v)
		}
	}
	if y := ss.Output(x, 1); math.Abs(y-1) > 1e-12 {
		t.Errorf("steady output = %v, want 1", y)
	}
}
