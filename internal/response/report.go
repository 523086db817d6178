package response

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/model"
	"github.com/san-kum/ltilab/internal/sim"
)

// Root is a complex root split into parts for encoding.
type Root struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func (r Root) Complex() complex128 { return complex(r.Re, r.Im) }

func (r Root) String() string {
	switch {
	case r.Im == 0:
		return fmt.Sprintf("%.4g", r.Re)
	case r.Im > 0:
		return fmt.Sprintf("%.4g + %.4gi", r.Re, r.Im)
	default:
		return fmt.Sprintf("%.4g - %.4gi", r.Re, -r.Im)
	}
}

func Roots(rs []complex128) []Root {
	out := make([]Root, len(rs))
	for i, r := range rs {
		out[i] = Root{Re: real(r), Im: imag(r)}
	}
	return out
}

// Polynomials are the coefficients of a transfer function, descending powers.
type Polynomials struct {
	Num []float64 `json:"num"`
	Den []float64 `json:"den"`
}

func polynomials(g *lti.TransferFunction) Polynomials {
	return Polynomials{Num: g.Num(), Den: g.Den()}
}

// Report is everything evaluated for one parameter set. System is the
// plant, or the closed loop when ClosedLoop is set; OpenLoop is the
// plant-controller series connection whose margins are reported.
type Report struct {
	Name       string      `json:"name"`
	ClosedLoop bool        `json:"closed_loop"`
	Plant      Polynomials `json:"plant"`
	OpenLoop   Polynomials `json:"open_loop"`
	System     Polynomials `json:"system"`
	Formula    string      `json:"formula"`

	Poles  []Root `json:"poles"`
	Zeros  []Root `json:"zeros"`
	Stable bool   `json:"stable"`

	Input     string           `json:"input"`
	Time      *TimeResult      `json:"time"`
	Frequency *FrequencyResult `json:"frequency"`
	Margins   Margins          `json:"margins"`

	StepInfo      *StepInfo `json:"step_info,omitempty"`
	StepInfoError string    `json:"step_info_error,omitempty"`
}

// Evaluate builds the system described by p and runs every evaluation on it.
// Model, time-response and frequency-response failures abort; an undefined
// step metric is recorded in StepInfoError and the report is still returned.
func (e *Evaluator) Evaluate(ctx context.Context, p model.Params, grid sim.Grid, in sim.Input) (*Report, error) {
	plant, err := model.BuildPlant(p.Plant)
	if err != nil {
		return nil, err
	}
	sys, open := plant, plant
	formula := p.Plant.Formula()
	if p.Controller != nil {
		ctrl, err := model.BuildController(*p.Controller)
		if err != nil {
			return nil, err
		}
		if open, err = plant.Mul(ctrl); err != nil {
			return nil, fmt.Errorf("open loop: %w", err)
		}
		if sys, err = model.ClosedLoop(plant, ctrl); err != nil {
			return nil, err
		}
		formula = fmt.Sprintf("%s, %s, G(s) = PK / (1 + PK)", formula, p.Controller.Formula())
	}

	poles, err := sys.Poles()
	if err != nil {
		return nil, fmt.Errorf("poles: %w", err)
	}
	zeros, err := sys.Zeros()
	if err != nil {
		return nil, fmt.Errorf("zeros: %w", err)
	}

	r := &Report{
		Name:       p.Name(),
		ClosedLoop: p.Controller != nil,
		Plant:      polynomials(plant),
		OpenLoop:   polynomials(open),
		System:     polynomials(sys),
		Formula:    formula,
		Poles:      Roots(poles),
		Zeros:      Roots(zeros),
		Stable:     IsStable(poles),
		Input:      in.String(),
	}

	metrics := e.registry.DefaultMetrics(r.ClosedLoop)
	if r.Time, err = e.TimeResponse(ctx, sys, grid, in, metrics...); err != nil {
		return nil, fmt.Errorf("time response: %w", err)
	}

	if r.Frequency, err = e.FrequencyResponse(sys); err != nil {
		return nil, fmt.Errorf("frequency response: %w", err)
	}
	if openFR, err := e.FrequencyResponse(open); err == nil {
		r.Margins = StabilityMargins(openFR)
	}

	r.StepInfo, err = e.StepInfo(ctx, sys)
	switch {
	case errors.Is(err, lti.ErrUndefinedMetric), errors.Is(err, lti.ErrNumericalInstability):
		r.StepInfoError = err.Error()
	case err != nil:
		return nil, fmt.Errorf("step info: %w", err)
	}

	return r, nil
}

// IsStable reports whether every pole lies in the open left half-plane.
func IsStable(poles []complex128) bool {
	for _, p := range poles {
		if real(p) >= -stabilityMargin*math.Max(1, math.Hypot(real(p), imag(p))) {
			return false
		}
	}
	return true
}
