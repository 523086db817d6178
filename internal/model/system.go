package model

import (
	"fmt"

	"github.com/san-kum/ltilab/internal/lti"
)

// ClosedLoop returns plant*controller under unity negative feedback:
//
//	G(s) = P(s)K(s) / (1 + P(s)K(s))
func ClosedLoop(plant, controller *lti.TransferFunction) (*lti.TransferFunction, error) {
	open, err := plant.Mul(controller)
	if err != nil {
		return nil, fmt.Errorf("open loop: %w", err)
	}
	return open.Feedback(lti.Unity())
}

// Params is the immutable description of one explored system: a plant and,
// when Controller is set, the unity-feedback loop it closes. Views of the
// plant alone and of the loop share one Params value.
type Params struct {
	Plant      PlantSpec
	Controller *ControllerSpec
}

func (p Params) ClosedLoop() bool {
	return p.Controller != nil
}

// WithController returns a copy of p that closes the loop with c.
func (p Params) WithController(c ControllerSpec) Params {
	p.Controller = &c
	return p
}

// PlantOnly returns a copy of p without a controller.
func (p Params) PlantOnly() Params {
	p.Controller = nil
	return p
}

// System builds the transfer function to evaluate: the plant, or the closed
// loop when a controller is configured.
func (p Params) System() (*lti.TransferFunction, error) {
	plant, err := BuildPlant(p.Plant)
	if err != nil {
		return nil, err
	}
	if p.Controller == nil {
		return plant, nil
	}

	ctrl, err := BuildController(*p.Controller)
	if err != nil {
		return nil, err
	}
	return ClosedLoop(plant, ctrl)
}

// Name is a short label such as "second_order" or "first_order+pid".
func (p Params) Name() string {
	if p.Controller == nil {
		return p.Plant.Kind.String()
	}
	return fmt.Sprintf("%s+%s", p.Plant.Kind, p.Controller.Kind)
}
