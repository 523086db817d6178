package model

import (
	"fmt"
	"strings"

	"github.com/san-kum/ltilab/internal/lti"
)

type ControllerKind int

const (
	P ControllerKind = iota
	PD
	PID
)

var controllerNames = map[ControllerKind]string{
	P:   "p",
	PD:  "pd",
	PID: "pid",
}

func (k ControllerKind) String() string {
	if name, ok := controllerNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ControllerKind(%d)", int(k))
}

func ParseControllerKind(s string) (ControllerKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range controllerNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown controller type: %q", s)
}

func ControllerKinds() []ControllerKind {
	return []ControllerKind{P, PD, PID}
}

// ControllerSpec selects a controller form. Kd is ignored by P, Ki by P and PD.
type ControllerSpec struct {
	Kind ControllerKind
	Kp   float64
	Kd   float64
	Ki   float64
}

// BuildController maps a ControllerSpec to its transfer function:
//
//	P    Kp
//	PD   Kd s + Kp
//	PID  (Kd s^2 + Kp s + Ki) / s  =  Kp + Ki/s + Kd s
//
// PD and PID are improper on their own; only the loop they close is simulated.
func BuildController(spec ControllerSpec) (*lti.TransferFunction, error) {
	var num, den []float64
	switch spec.Kind {
	case P:
		num, den = []float64{spec.Kp}, []float64{1}
	case PD:
		num, den = []float64{spec.Kd, spec.Kp}, []float64{1}
	case PID:
		num, den = []float64{spec.Kd, spec.Kp, spec.Ki}, []float64{1, 0}
	default:
		return nil, fmt.Errorf("%w: unknown controller kind %d", lti.ErrInvalidModel, int(spec.Kind))
	}

	k, err := lti.New(num, den)
	if err != nil {
		return nil, fmt.Errorf("controller %s: %w", spec.Kind, err)
	}
	return k, nil
}

func (c ControllerSpec) Formula() string {
	switch c.Kind {
	case P:
		return "K(s) = Kp"
	case PD:
		return "K(s) = Kp + Kd s"
	case PID:
		return "K(s) = Kp + Ki/s + Kd s"
	}
	return ""
}
