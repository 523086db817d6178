package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ltilab/internal/response"
)

const (
	DefaultPlotWidth  = 80
	DefaultPlotHeight = 15
)

// ResponsePlot charts the output of a time response, with the input overlaid
// when overlayInput is set.
func ResponsePlot(tr *response.TimeResult, width, height int, overlayInput bool) string {
	if tr == nil || tr.Len() == 0 {
		return "no samples"
	}
	caption := fmt.Sprintf("y(t), t = %.3g..%.3g s", tr.Times[0], tr.Times[tr.Len()-1])
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	}
	if overlayInput {
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow))
		return asciigraph.PlotMany([][]float64{tr.Outputs, tr.Inputs}, opts...)
	}
	return asciigraph.Plot(tr.Outputs, opts...)
}

// BodePlot charts magnitude and phase against sample index; the Bode grid
// is log-spaced so the x axis is log10 of frequency.
func BodePlot(f *response.FrequencyResult, width, height int) string {
	if f == nil || f.Len() == 0 {
		return "no frequency points"
	}
	span := fmt.Sprintf("w = %.3g..%.3g rad/s (log)", f.Omega[0], f.Omega[f.Len()-1])

	mag := make([]float64, f.Len())
	finite := false
	for i, m := range f.MagnitudeDB {
		if math.IsInf(m, 0) {
			mag[i] = math.NaN()
			continue
		}
		mag[i] = m
		finite = true
	}

	var magPlot string
	if finite {
		magPlot = asciigraph.Plot(mag,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption("magnitude [dB], "+span))
	} else {
		magPlot = "magnitude: -Inf dB (zero response)"
	}
	phasePlot := asciigraph.Plot(f.PhaseDeg,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("phase [deg], "+span))

	return magPlot + "\n\n" + phasePlot
}

// CanvasPlot draws a compact Braille chart of ys over xs with its y range.
func CanvasPlot(xs, ys []float64, width, height int) string {
	c := NewCanvas(width, height)
	lo, hi := c.Plot(xs, ys)
	return fmt.Sprintf("%.3g\n%s%.3g", hi, c.String(), lo)
}
