package lti

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestPoly_Trim(t *testing.T) {
	tests := []struct {
		name string
		in   Poly
		want int
	}{
		{"no leading zeros", Poly{1, 2}, 2},
		{"leading zeros", Poly{0, 0, 3, 1}, 2},
		{"all zeros", Poly{0, 0}, 0},
		{"empty", Poly{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.in.Trim()); got != tt.want {
				t.Errorf("len(Trim()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPoly_Degree(t *testing.T) {
	if d := (Poly{0, 1, 2, 0}).Degree(); d != 2 {
		t.Errorf("expected degree 2, got %d", d)
	}
	if d := (Poly{0}).Degree(); d != -1 {
		t.Errorf("expected degree -1 for zero polynomial, got %d", d)
	}
}

func TestPoly_Arithmetic(t *testing.T) {
	a := Poly{1, 1}    // s + 1
	b := Poly{1, 2, 3} // s^2 + 2s + 3

	sum := a.Add(b)
	if len(sum) != 3 || sum[0] != 1 || sum[1] != 3 || sum[2] != 4 {
		t.Errorf("Add failed: got %v", sum)
	}

	prod := a.Mul(b)
	want := Poly{1, 3, 5, 3}
	for i := range want {
		if prod[i] != want[i] {
			t.Fatalf("Mul failed: got %v, want %v", prod, want)
		}
	}

	scaled := b.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}
}

func TestPoly_Eval(t *testing.T) {
	p := Poly{1, 2, 4}
	if v := p.EvalReal(2); v != 12 {
		t.Errorf("EvalReal(2) = %v, want 12", v)
	}
	if v := p.Eval(complex(-1, math.Sqrt(3))); cmplx.Abs(v) > 1e-12 {
		t.Errorf("expected root at -1+1.732i, got residual %v", v)
	}
}

func TestPoly_Roots(t *testing.T) {
	tests := []struct {
		name string
		p    Poly
		want []complex128
	}{
		{"constant", Poly{3}, nil},
		{"linear", Poly{2, 4}, []complex128{-2}},
		{"integrator", Poly{1, 1, 0}, []complex128{-1, 0}},
		{"double origin", Poly{1, 0, 0}, []complex128{0, 0}},
		{"complex pair", Poly{1, 2, 4}, []complex128{complex(-1, -math.Sqrt(3)), complex(-1, math.Sqrt(3))}},
		{"leading zero", Poly{0, 1, 3, 2}, []complex128{-2, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Roots()
			if err != nil {
				t.Fatalf("Roots() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Roots() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if cmplx.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("root %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPoly_Render(t *testing.T) {
	tests := []struct {
		p    Poly
		want string
	}{
		{Poly{1, 2, 4}, "s^2 + 2 s + 4"},
		{Poly{0, 1}, "1"},
		{Poly{-1, 0, 0.5}, "-s^2 + 0.5"},
		{Poly{2, -1, 0}, "2 s^2 - s"},
		{Poly{0}, "0"},
	}

	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String(%v) = %q, want %q", []float64(tt.p), got, tt.want)
		}
	}
}
