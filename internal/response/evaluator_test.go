package response

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/model"
	"github.com/san-kum/ltilab/internal/sim"
	"gonum.org/v1/gonum/floats"
)

func tf(t *testing.T, num, den []float64) *lti.TransferFunction {
	t.Helper()
	g, err := lti.New(num, den)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestTimeResponse_FirstOrderStep(t *testing.T) {
	e := NewEvaluator(DefaultOptions())

	for _, integ := range []string{"foh", "rk4", "rk45"} {
		t.Run(integ, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Integrator = integ
			e := NewEvaluator(opts)

			res, err := e.TimeResponse(context.Background(), tf(t, []float64{1}, []float64{1, 1}), sim.NewGrid(0, 5, 10), sim.Step{})
			if err != nil {
				t.Fatal(err)
			}
			if res.Len() != 500 {
				t.Fatalf("expected 500 samples, got %d", res.Len())
			}
			if math.Abs(res.Outputs[100]-(1-math.Exp(-1))) > 1e-6 {
				t.Errorf("y(T) = %.6f, want 0.632121", res.Outputs[100])
			}
			if math.Abs(res.Final()-(1-math.Exp(-4.99))) > 1e-6 {
				t.Errorf("y(4.99) = %.6f", res.Final())
			}
		})
	}

	if _, err := e.TimeResponse(context.Background(), tf(t, []float64{1}, []float64{1, 1}), sim.Grid{Start: 0, End: 5, Step: 0}, sim.Step{}); !errors.Is(err, sim.ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid, got %v", err)
	}
}

func TestTimeResponse_Sinusoid(t *testing.T) {
	// 1/(s+1) driven by sin(t) from rest:
	// y = (sin t - cos t + e^{-t}) / 2.
	e := NewEvaluator(DefaultOptions())
	res, err := e.TimeResponse(context.Background(), tf(t, []float64{1}, []float64{1, 1}), sim.NewGrid(0, 10, 10), sim.Sinusoid{Frequency: 1})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < res.Len(); i += 97 {
		tt := res.Times[i]
		want := (math.Sin(tt) - math.Cos(tt) + math.Exp(-tt)) / 2
		if math.Abs(res.Outputs[i]-want) > 5e-5 {
			t.Errorf("y(%.2f) = %.6f, want %.6f", tt, res.Outputs[i], want)
		}
	}
}

func TestTimeResponse_Errors(t *testing.T) {
	e := NewEvaluator(DefaultOptions())
	ctx := context.Background()

	t.Run("improper", func(t *testing.T) {
		_, err := e.TimeResponse(ctx, tf(t, []float64{1, 1}, []float64{1}), sim.NewGrid(0, 1, 10), sim.Step{})
		if !errors.Is(err, lti.ErrInvalidModel) {
			t.Errorf("expected ErrInvalidModel, got %v", err)
		}
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := e.TimeResponse(ctx, tf(t, []float64{1}, []float64{1, -100}), sim.NewGrid(0, 50, 10), sim.Step{})
		if !errors.Is(err, lti.ErrNumericalInstability) {
			t.Fatalf("expected ErrNumericalInstability, got %v", err)
		}
		var simErr *sim.SimulationError
		if !errors.As(err, &simErr) || simErr.Step == 0 {
			t.Errorf("expected SimulationError with step context, got %v", err)
		}
	})

	t.Run("unknown integrator", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Integrator = "leapfrog"
		_, err := NewEvaluator(opts).TimeResponse(ctx, tf(t, []float64{1}, []float64{1, 1}), sim.NewGrid(0, 1, 10), sim.Step{})
		if err == nil {
			t.Error("expected error for unknown integrator")
		}
	})
}

func TestFrequencyResponse(t *testing.T) {
	e := NewEvaluator(DefaultOptions())

	fr, err := e.FrequencyResponse(tf(t, []float64{2}, []float64{1, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if fr.Len() != 50 {
		t.Fatalf("expected 50 points, got %d", fr.Len())
	}
	if math.Abs(fr.Omega[0]-1e-2) > 1e-12 || math.Abs(fr.Omega[49]-1e2) > 1e-9 {
		t.Errorf("grid spans [%g, %g], want [0.01, 100]", fr.Omega[0], fr.Omega[49])
	}
	if math.Abs(fr.MagnitudeDB[0]-20*math.Log10(2)) > 1e-3 {
		t.Errorf("low-frequency magnitude = %.4f dB, want %.4f", fr.MagnitudeDB[0], 20*math.Log10(2))
	}
	if math.Abs(fr.PhaseDeg[49]+90) > 1 {
		t.Errorf("high-frequency phase = %.2f, want about -90", fr.PhaseDeg[49])
	}
	for i := 1; i < fr.Len(); i++ {
		if fr.Omega[i] <= fr.Omega[i-1] || fr.MagnitudeDB[i] > fr.MagnitudeDB[i-1] {
			t.Fatalf("first-order response not monotone at %d", i)
		}
	}
}

func TestBode_Unwrap(t *testing.T) {
	// Three poles at -1 reach -268 degrees at w = 100.
	sys := tf(t, []float64{1}, []float64{1, 3, 3, 1})
	fr, err := Bode(sys, floats.LogSpan(make([]float64, 200), 1e-2, 1e2))
	if err != nil {
		t.Fatal(err)
	}

	want := -3 * math.Atan(100) * 180 / math.Pi
	if got := fr.PhaseDeg[199]; math.Abs(got-want) > 1e-6 {
		t.Errorf("phase at 100 rad/s = %.4f, want %.4f", got, want)
	}
	for i := 1; i < fr.Len(); i++ {
		if math.Abs(fr.PhaseDeg[i]-fr.PhaseDeg[i-1]) > 180 {
			t.Fatalf("phase jumps at %d: %.2f -> %.2f", i, fr.PhaseDeg[i-1], fr.PhaseDeg[i])
		}
	}
}

func TestBode_PoleOnGrid(t *testing.T) {
	_, err := Bode(tf(t, []float64{1}, []float64{1, 0, 1}), []float64{0.5, 1, 2})
	if !errors.Is(err, lti.ErrNumericalInstability) {
		t.Errorf("expected ErrNumericalInstability, got %v", err)
	}
}

func TestBode_ZeroSystem(t *testing.T) {
	fr, err := Bode(tf(t, []float64{0}, []float64{1, 1}), []float64{1, 10})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(fr.MagnitudeDB[0], -1) {
		t.Errorf("zero system magnitude = %v, want -Inf", fr.MagnitudeDB[0])
	}
}

func TestFrequencyResponse_InvalidGrid(t *testing.T) {
	opts := DefaultOptions()
	opts.FreqMin = 0
	if _, err := NewEvaluator(opts).FrequencyResponse(tf(t, []float64{1}, []float64{1, 1})); err == nil {
		t.Error("expected error for zero lower frequency")
	}
}

func TestPolesZeros(t *testing.T) {
	sys, err := model.BuildPlant(model.PlantSpec{Kind: model.SecondOrder, K: 1, Zeta: 0.5, Wn: 2})
	if err != nil {
		t.Fatal(err)
	}

	poles, err := Poles(sys)
	if err != nil {
		t.Fatal(err)
	}
	if len(poles) != 2 {
		t.Fatalf("expected 2 poles, got %v", poles)
	}
	for i, want := range []complex128{complex(-1, -math.Sqrt(3)), complex(-1, math.Sqrt(3))} {
		if math.Abs(real(poles[i])-real(want)) > 1e-9 || math.Abs(imag(poles[i])-imag(want)) > 1e-9 {
			t.Errorf("pole %d = %v, want %v", i, poles[i], want)
		}
	}

	zeros, err := Zeros(tf(t, []float64{1, -2}, []float64{1, 2, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if len(zeros) != 1 || math.Abs(real(zeros[0])-2) > 1e-12 {
		t.Errorf("zeros = %v, want [2]", zeros)
	}
}
