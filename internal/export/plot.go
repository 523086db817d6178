// Package export renders reports as image files with gonum/plot.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/ltilab/internal/response"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var (
	outputColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	inputColor  = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	bandColor   = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// Format returns the image format implied by a file extension.
func Format(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "svg", "pdf", "jpg", "jpeg", "eps", "tif", "tiff":
		return ext, nil
	}
	return "", fmt.Errorf("unsupported image format %q", filepath.Ext(path))
}

// SaveFile creates path and renders into it in the format of its extension.
func SaveFile(path string, render func(w io.Writer, format string) error) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := render(bw, format); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.Add(plotter.NewGrid())
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func addLine(p *plot.Plot, pts plotter.XYs, c color.Color, dashed bool) (*plotter.Line, error) {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}
	p.Add(line)
	return line, nil
}

func write(w io.Writer, format string, width, height vg.Length, drawTo func(dc draw.Canvas)) error {
	c, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return err
	}
	drawTo(draw.New(c))
	_, err = c.WriteTo(w)
	return err
}

// Response plots the output of tr, the input dashed behind it. With info
// set, the 5% settling band around the steady-state value is drawn too.
func Response(w io.Writer, format string, tr *response.TimeResult, info *response.StepInfo, title string) error {
	if tr == nil || tr.Len() == 0 {
		return fmt.Errorf("no samples to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = "output"
	stylePlot(p)

	in, err := addLine(p, xys(tr.Times, tr.Inputs), inputColor, true)
	if err != nil {
		return err
	}
	out, err := addLine(p, xys(tr.Times, tr.Outputs), outputColor, false)
	if err != nil {
		return err
	}
	p.Legend.Add("u", in)
	p.Legend.Add("y", out)
	p.Legend.Top = true

	if info != nil {
		t0, t1 := tr.Times[0], tr.Times[tr.Len()-1]
		band := 0.05 * math.Abs(info.SteadyStateValue)
		for _, level := range []float64{info.SteadyStateValue - band, info.SteadyStateValue + band} {
			if _, err := addLine(p, plotter.XYs{{X: t0, Y: level}, {X: t1, Y: level}}, bandColor, true); err != nil {
				return err
			}
		}
	}

	return write(w, format, DefaultWidth, DefaultHeight, p.Draw)
}

// Bode plots magnitude over phase on a shared log frequency axis. Points of
// zero magnitude (-Inf dB) are left out.
func Bode(w io.Writer, format string, f *response.FrequencyResult, title string) error {
	if f == nil || f.Len() == 0 {
		return fmt.Errorf("no frequency points to plot")
	}

	mag := plot.New()
	mag.Title.Text = title
	mag.Y.Label.Text = "magnitude [dB]"
	phase := plot.New()
	phase.X.Label.Text = "frequency [rad/s]"
	phase.Y.Label.Text = "phase [deg]"

	for _, p := range []*plot.Plot{mag, phase} {
		stylePlot(p)
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	if pts := xys(f.Omega, f.MagnitudeDB); len(pts) > 0 {
		if _, err := addLine(mag, pts, outputColor, false); err != nil {
			return err
		}
	} else {
		mag.Title.Text += " (zero response)"
		mag.X.Min, mag.X.Max = f.Omega[0], f.Omega[f.Len()-1]
	}
	if _, err := addLine(phase, xys(f.Omega, f.PhaseDeg), outputColor, false); err != nil {
		return err
	}

	return write(w, format, DefaultWidth, 2*DefaultHeight, func(dc draw.Canvas) {
		tiles := draw.Tiles{Rows: 2, Cols: 1, PadX: vg.Millimeter, PadY: vg.Millimeter}
		canvases := plot.Align([][]*plot.Plot{{mag}, {phase}}, tiles, dc)
		mag.Draw(canvases[0][0])
		phase.Draw(canvases[1][0])
	})
}

// PoleZero draws the s-plane with poles as crosses and zeros as rings.
func PoleZero(w io.Writer, format string, poles, zeros []response.Root, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Re"
	p.Y.Label.Text = "Im"
	stylePlot(p)

	extent := 1.0
	for _, r := range append(append([]response.Root{}, poles...), zeros...) {
		extent = math.Max(extent, math.Max(math.Abs(r.Re), math.Abs(r.Im)))
	}
	extent *= 1.2
	p.X.Min, p.X.Max = -extent, extent
	p.Y.Min, p.Y.Max = -extent, extent

	axes := []plotter.XYs{
		{{X: -extent, Y: 0}, {X: extent, Y: 0}},
		{{X: 0, Y: -extent}, {X: 0, Y: extent}},
	}
	for _, a := range axes {
		if _, err := addLine(p, a, bandColor, false); err != nil {
			return err
		}
	}

	add := func(rs []response.Root, shape draw.GlyphDrawer, label string) error {
		if len(rs) == 0 {
			return nil
		}
		pts := make(plotter.XYs, len(rs))
		for i, r := range rs {
			pts[i] = plotter.XY{X: r.Re, Y: r.Im}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = shape
		s.GlyphStyle.Radius = vg.Points(5)
		s.GlyphStyle.Color = outputColor
		p.Add(s)
		p.Legend.Add(label, s)
		return nil
	}
	if err := add(poles, draw.CrossGlyph{}, "pole"); err != nil {
		return err
	}
	if err := add(zeros, draw.RingGlyph{}, "zero"); err != nil {
		return err
	}

	return write(w, format, DefaultHeight, DefaultHeight, p.Draw)
}
