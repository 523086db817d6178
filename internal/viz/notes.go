package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/ltilab/internal/response"
)

// Notes explains what the pole and zero locations of a report imply for its
// time response.
func Notes(r *response.Report) []string {
	var notes []string

	var slowest, fastest *response.Root
	oscillatory := false
	for i := range r.Poles {
		p := &r.Poles[i]
		if slowest == nil || p.Re > slowest.Re {
			slowest = p
		}
		if fastest == nil || p.Re < fastest.Re {
			fastest = p
		}
		if p.Im != 0 {
			oscillatory = true
		}
	}

	switch {
	case slowest == nil:
		notes = append(notes, "No poles: the output is a scaled copy of the input.")
	case slowest.Re >= 0:
		notes = append(notes, fmt.Sprintf("Pole at %s is not in the left half-plane: the response does not settle.", slowest))
	default:
		tau := -1 / slowest.Re
		notes = append(notes, fmt.Sprintf(
			"Slowest pole %s dominates: time constant about %.3g s, settling (5%%) after about %.3g s.",
			slowest, tau, 3*tau))
		if fastest != slowest && fastest.Re < 5*slowest.Re {
			notes = append(notes, "Poles further left respond faster; the fast ones here die out early.")
		}
	}

	if oscillatory {
		for _, p := range r.Poles {
			if p.Im > 0 {
				wn := math.Hypot(p.Re, p.Im)
				notes = append(notes, fmt.Sprintf(
					"Complex pair %s oscillates at %.3g rad/s with damping ratio %.3g; a larger imaginary part oscillates faster.",
					p, p.Im, -p.Re/wn))
				break
			}
		}
	} else if slowest != nil {
		notes = append(notes, "All poles are real: the response does not oscillate.")
	}

	nonMinimum := false
	for _, z := range r.Zeros {
		if z.Re > 0 {
			notes = append(notes, fmt.Sprintf(
				"Zero %s is in the right half-plane (non-minimum phase): expect an initial dip against the final direction.", z))
			nonMinimum = true
			break
		}
	}
	if len(r.Zeros) > 0 && !nonMinimum {
		notes = append(notes, "No zeros in the right half-plane (minimum phase).")
	}

	return notes
}
