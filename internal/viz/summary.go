package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/response"
)

// TransferFunctionText renders num/den as a fraction.
func TransferFunctionText(p response.Polynomials) string {
	g, err := lti.New(p.Num, p.Den)
	if err != nil {
		return fmt.Sprintf("%v / %v", p.Num, p.Den)
	}
	return g.String()
}

func roots(rs []response.Root) string {
	if len(rs) == 0 {
		return "none"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// Summary renders the model, its roots, step metrics, margins and run
// metrics of a report.
func Summary(r *response.Report, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Header.Render(r.Name) + "\n")
	b.WriteString(s.Muted.Render(r.Formula) + "\n\n")
	b.WriteString(TransferFunctionText(r.System) + "\n\n")

	row := func(label, value string) {
		b.WriteString(s.Label.Render(fmt.Sprintf("%-20s", label)) + " " + s.Value.Render(value) + "\n")
	}

	if r.Stable {
		row("stability", s.Stable.Render("stable"))
	} else {
		row("stability", s.Unstable.Render("unstable"))
	}
	row("poles", roots(r.Poles))
	row("zeros", roots(r.Zeros))
	row("input", r.Input)
	b.WriteString("\n")

	b.WriteString(s.Title.Render("step response") + "\n")
	if r.StepInfo != nil {
		m := r.StepInfo.AsMap()
		for _, key := range response.StepInfoKeys {
			row(key, fmt.Sprintf("%.4g", m[key]))
		}
	} else {
		b.WriteString(s.Warning.Render(r.StepInfoError) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Title.Render("margins") + "\n")
	if r.Margins.HasGainMargin {
		row("gain margin", fmt.Sprintf("%.4g dB at %.4g rad/s", r.Margins.GainMarginDB, r.Margins.PhaseCrossover))
	} else {
		row("gain margin", "none in range")
	}
	if r.Margins.HasPhaseMargin {
		row("phase margin", fmt.Sprintf("%.4g deg at %.4g rad/s", r.Margins.PhaseMarginDeg, r.Margins.GainCrossover))
	} else {
		row("phase margin", "none in range")
	}

	if r.Time != nil && len(r.Time.Metrics) > 0 {
		b.WriteString("\n" + s.Title.Render("run metrics") + "\n")
		names := make([]string, 0, len(r.Time.Metrics))
		for name := range r.Time.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row(name, fmt.Sprintf("%.4g", r.Time.Metrics[name]))
		}
	}

	return b.String()
}

// Panel wraps content in the theme's bordered panel with a title line.
func Panel(title, content string, s Styles) string {
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(title), content))
}
