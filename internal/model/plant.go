// Package model builds the plant and controller transfer functions explored
// by ltilab and composes them into unity-feedback loops.
package model

import (
	"fmt"
	"strings"

	"github.com/san-kum/ltilab/internal/lti"
)

type PlantKind int

const (
	FirstOrder PlantKind = iota
	FirstOrderIntegrator
	SecondOrder
	Arbitrary
)

var plantNames = map[PlantKind]string{
	FirstOrder:           "first_order",
	FirstOrderIntegrator: "first_order_integrator",
	SecondOrder:          "second_order",
	Arbitrary:            "arbitrary",
}

func (k PlantKind) String() string {
	if name, ok := plantNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PlantKind(%d)", int(k))
}

// ParsePlantKind accepts the names returned by String, with '-' allowed in
// place of '_'.
func ParsePlantKind(s string) (PlantKind, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for k, name := range plantNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown plant type: %q", s)
}

// PlantKinds lists the plant forms in menu order.
func PlantKinds() []PlantKind {
	return []PlantKind{FirstOrder, FirstOrderIntegrator, SecondOrder, Arbitrary}
}

// PlantSpec selects a plant form and carries its parameters. Only the fields
// used by Kind are read: K and T for the first-order forms, K, Zeta and Wn for
// SecondOrder, and A..E for Arbitrary.
type PlantSpec struct {
	Kind PlantKind
	K    float64 // gain
	T    float64 // time constant
	Zeta float64 // damping ratio
	Wn   float64 // natural frequency, rad/s

	A, B, C, D, E float64
}

// BuildPlant maps a PlantSpec to its transfer function:
//
//	FirstOrder            K / (T s + 1)
//	FirstOrderIntegrator  K / (T s^2 + s)
//	SecondOrder           K Wn^2 / (s^2 + 2 Zeta Wn s + Wn^2)
//	Arbitrary             (A s + B) / (C s^2 + D s + E)
//
// Parameters are not range checked; unstable and non-minimum-phase plants are
// valid models. A denominator that is identically zero fails with
// lti.ErrInvalidModel.
func BuildPlant(spec PlantSpec) (*lti.TransferFunction, error) {
	var num, den []float64
	switch spec.Kind {
	case FirstOrder:
		num, den = []float64{spec.K}, []float64{spec.T, 1}
	case FirstOrderIntegrator:
		num, den = []float64{spec.K}, []float64{spec.T, 1, 0}
	case SecondOrder:
		w2 := spec.Wn * spec.Wn
		num, den = []float64{spec.K * w2}, []float64{1, 2 * spec.Zeta * spec.Wn, w2}
	case Arbitrary:
		num, den = []float64{spec.A, spec.B}, []float64{spec.C, spec.D, spec.E}
	default:
		return nil, fmt.Errorf("%w: unknown plant kind %d", lti.ErrInvalidModel, int(spec.Kind))
	}

	g, err := lti.New(num, den)
	if err != nil {
		return nil, fmt.Errorf("plant %s: %w", spec.Kind, err)
	}
	return g, nil
}

// Formula is the symbolic form of the plant.
func (p PlantSpec) Formula() string {
	switch p.Kind {
	case FirstOrder:
		return "P(s) = K / (Ts + 1)"
	case FirstOrderIntegrator:
		return "P(s) = K / (s(Ts + 1))"
	case SecondOrder:
		return "P(s) = K wn^2 / (s^2 + 2 zeta wn s + wn^2)"
	case Arbitrary:
		return "P(s) = (As + B) / (Cs^2 + Ds + E)"
	}
	return ""
}

// Params returns the named parameters relevant to Kind.
func (p PlantSpec) Params() map[string]float64 {
	switch p.Kind {
	case FirstOrder, FirstOrderIntegrator:
		return map[string]float64{"k": p.K, "t": p.T}
	case SecondOrder:
		return map[string]float64{"k": p.K, "zeta": p.Zeta, "wn": p.Wn}
	case Arbitrary:
		return map[string]float64{"a": p.A, "b": p.B, "c": p.C, "d": p.D, "e": p.E}
	}
	return nil
}
