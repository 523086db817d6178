package response

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ltilab/internal/lti"
)

func TestStepInfo_FirstOrder(t *testing.T) {
	e := NewEvaluator(DefaultOptions())
	info, err := e.StepInfo(context.Background(), tf(t, []float64{1}, []float64{1, 1}))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
		tol  float64
	}{
		{"RiseTime", info.RiseTime, math.Log(9), 0.06},
		{"SettlingTime", info.SettlingTime, math.Log(20), 0.06},
		{"Overshoot", info.Overshoot, 0, 1e-9},
		{"Undershoot", info.Undershoot, 0, 1e-9},
		{"SteadyStateValue", info.SteadyStateValue, 1, 1e-12},
		{"Peak", info.Peak, 1, 2e-3},
		{"SettlingMax", info.SettlingMax, 1, 2e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > tt.tol {
				t.Errorf("%s = %.5f, want %.5f", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestStepInfo_SecondOrder(t *testing.T) {
	e := NewEvaluator(DefaultOptions())
	info, err := e.StepInfo(context.Background(), tf(t, []float64{4}, []float64{1, 2, 4}))
	if err != nil {
		t.Fatal(err)
	}

	zeta := 0.5
	overshoot := 100 * math.Exp(-math.Pi*zeta/math.Sqrt(1-zeta*zeta))
	peakTime := math.Pi / math.Sqrt(3)

	if math.Abs(info.Overshoot-overshoot) > 0.05 {
		t.Errorf("Overshoot = %.4f%%, want %.4f%%", info.Overshoot, overshoot)
	}
	if math.Abs(info.PeakTime-peakTime) > 0.05 {
		t.Errorf("PeakTime = %.4f, want %.4f", info.PeakTime, peakTime)
	}
	if math.Abs(info.Peak-(1+overshoot/100)) > 1e-3 {
		t.Errorf("Peak = %.4f, want %.4f", info.Peak, 1+overshoot/100)
	}
	if info.SettlingMin >= 1 || info.SettlingMax <= 1 {
		t.Errorf("settling band [%.3f, %.3f] should straddle 1", info.SettlingMin, info.SettlingMax)
	}
}

func TestStepInfo_NegativeGain(t *testing.T) {
	e := NewEvaluator(DefaultOptions())
	info, err := e.StepInfo(context.Background(), tf(t, []float64{-2}, []float64{1, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if info.SteadyStateValue != -2 || info.Overshoot != 0 || info.Undershoot != 0 {
		t.Errorf("unexpected metrics for -2/(s+1): %+v", info)
	}
	if math.Abs(info.Peak-2) > 5e-3 {
		t.Errorf("Peak = %.4f, want about 2", info.Peak)
	}
}

func TestStepInfo_NonMinimumPhase(t *testing.T) {
	// (1 - s)/(s+1)^2 dips below zero before rising to 1.
	e := NewEvaluator(DefaultOptions())
	info, err := e.StepInfo(context.Background(), tf(t, []float64{-1, 1}, []float64{1, 2, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if info.Undershoot <= 0 {
		t.Errorf("expected undershoot, got %+v", info)
	}
}

func TestStepInfo_Undefined(t *testing.T) {
	e := NewEvaluator(DefaultOptions())

	tests := []struct {
		name     string
		num, den []float64
	}{
		{"unstable", []float64{1}, []float64{-1, 1}},
		{"integrator", []float64{1}, []float64{1, 1, 0}},
		{"undamped", []float64{1}, []float64{1, 0, 1}},
		{"zero gain", []float64{0}, []float64{1, 1}},
		{"derivative zero", []float64{1, 0}, []float64{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.StepInfo(context.Background(), tf(t, tt.num, tt.den))
			if !errors.Is(err, lti.ErrUndefinedMetric) {
				t.Errorf("expected ErrUndefinedMetric, got %v", err)
			}
		})
	}
}

func TestMeasureStep(t *testing.T) {
	e := NewEvaluator(DefaultOptions())
	times := []float64{0, 1, 2, 3, 4, 5}

	t.Run("never settles", func(t *testing.T) {
		_, err := e.MeasureStep(times, []float64{0, 0.5, 0.95, 1.2, 0.8, 1.3}, 1)
		if !errors.Is(err, lti.ErrUndefinedMetric) {
			t.Errorf("expected ErrUndefinedMetric, got %v", err)
		}
	})

	t.Run("never rises", func(t *testing.T) {
		_, err := e.MeasureStep(times, []float64{0, 0.1, 0.2, 0.3, 0.3, 0.3}, 1)
		if !errors.Is(err, lti.ErrUndefinedMetric) {
			t.Errorf("expected ErrUndefinedMetric, got %v", err)
		}
	})

	t.Run("exact samples", func(t *testing.T) {
		info, err := e.MeasureStep(times, []float64{0, 0.5, 0.95, 1.1, 1.02, 1.0}, 1)
		if err != nil {
			t.Fatal(err)
		}
		if info.RiseTime != 1 || info.SettlingTime != 4 || info.PeakTime != 3 {
			t.Errorf("got rise %v settle %v peak time %v, want 1, 4, 3", info.RiseTime, info.SettlingTime, info.PeakTime)
		}
		if math.Abs(info.Overshoot-10) > 1e-9 || info.SettlingMin != 0.95 || info.SettlingMax != 1.1 {
			t.Errorf("unexpected metrics %+v", info)
		}
	})

	t.Run("static gain settles immediately", func(t *testing.T) {
		info, err := e.MeasureStep(times, []float64{2, 2, 2, 2, 2, 2}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if info.RiseTime != 0 || info.SettlingTime != 0 {
			t.Errorf("got %+v", info)
		}
	})
}

func TestStepInfo_AsMap(t *testing.T) {
	info := &StepInfo{RiseTime: 1, Overshoot: 2, SteadyStateValue: 3}
	m := info.AsMap()
	if len(m) != len(StepInfoKeys) {
		t.Fatalf("AsMap has %d keys, want %d", len(m), len(StepInfoKeys))
	}
	for _, k := range StepInfoKeys {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if m["RiseTime"] != 1 || m["Overshoot"] != 2 || m["SteadyStateValue"] != 3 {
		t.Errorf("unexpected values %v", m)
	}
}

func TestStepHorizon(t *testing.T) {
	tfinal, dt := stepHorizon([]complex128{-1})
	if math.Abs(tfinal-math.Log(1000)) > 1e-9 || math.Abs(dt-0.05) > 1e-12 {
		t.Errorf("real pole: tfinal=%v dt=%v", tfinal, dt)
	}

	tfinal, _ = stepHorizon([]complex128{complex(-5, -1), complex(-5, 1)})
	if math.Abs(tfinal-10*math.Pi) > 1e-9 {
		t.Errorf("slow oscillation should give five periods, got %v", tfinal)
	}

	tfinal, dt = stepHorizon(nil)
	if tfinal != 5 || dt != 0.05 {
		t.Errorf("no poles: tfinal=%v dt=%v", tfinal, dt)
	}
}
