package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/ltilab/internal/analysis"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/experiment"
	"github.com/san-kum/ltilab/internal/export"
	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/viz"
	"github.com/spf13/cobra"
)

var (
	asJSON     bool
	themeName  string
	plotOut    string
	plotKind   string
	stepWidth  int
	stepHeight int
	bodeWidth  int
	bodeHeight int
)

func evalCommands() []*cobra.Command {
	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate the configured system",
		RunE:  evalSystem,
	}
	evalCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	evalCmd.Flags().StringVar(&themeName, "theme", "scope", "color theme")

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "plot the time response",
		RunE:  stepResponse,
	}
	stepCmd.Flags().IntVar(&stepWidth, "width", viz.DefaultPlotWidth, "plot width")
	stepCmd.Flags().IntVar(&stepHeight, "height", viz.DefaultPlotHeight, "plot height")

	bodeCmd := &cobra.Command{
		Use:   "bode",
		Short: "plot the frequency response and margins",
		RunE:  bodeResponse,
	}
	bodeCmd.Flags().IntVar(&bodeWidth, "width", viz.DefaultPlotWidth, "plot width")
	bodeCmd.Flags().IntVar(&bodeHeight, "height", 10, "plot height")

	polesCmd := &cobra.Command{
		Use:   "poles",
		Short: "list poles and zeros",
		RunE:  polesZeros,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show the resolved configuration and available components",
		RunE:  showInfo,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPLANT\tCONTROLLER")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				ctrl := "none"
				if p.Controller.Enabled {
					ctrl = p.Controller.Type
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Plant.Type, ctrl)
			}
			return w.Flush()
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "render a response, bode or pole-zero plot to svg, png or pdf",
		RunE:  plotFile,
	}
	plotCmd.Flags().StringVarP(&plotOut, "out", "o", "", "output file")
	plotCmd.Flags().StringVar(&plotKind, "kind", "response", "response, bode or polezero")
	plotCmd.MarkFlagRequired("out")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum",
		Short: "check a sine response against the frequency response",
		RunE:  spectrum,
	}

	return []*cobra.Command{evalCmd, stepCmd, bodeCmd, polesCmd, infoCmd, presetsCmd, plotCmd, spectrumCmd}
}

// evaluate resolves the config from flags and evaluates it once.
func evaluate(cmd *cobra.Command, mod func(*config.Config)) (config.Config, *response.Report, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	if mod != nil {
		mod(&cfg)
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, closeCache := newService(ctx, newLogger())
	defer closeCache()

	r, err := svc.Evaluate(ctx, cfg)
	return cfg, r, err
}

func evalSystem(cmd *cobra.Command, args []string) error {
	_, r, err := evaluate(cmd, nil)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	styles := viz.ThemeByName(themeName).Styles()
	fmt.Println(viz.Summary(r, styles))
	if notes := viz.Notes(r); len(notes) > 0 {
		fmt.Println(viz.Panel("notes", strings.Join(notes, "\n"), styles))
	}
	return nil
}

func stepResponse(cmd *cobra.Command, args []string) error {
	_, r, err := evaluate(cmd, nil)
	if err != nil {
		return err
	}

	fmt.Println(r.Name)
	fmt.Println(viz.ResponsePlot(r.Time, stepWidth, stepHeight, r.Input != "step"))
	fmt.Println()

	if r.StepInfo == nil {
		fmt.Printf("step info: %s\n", r.StepInfoError)
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	m := r.StepInfo.AsMap()
	for _, key := range response.StepInfoKeys {
		fmt.Fprintf(w, "%s\t%.6g\n", key, m[key])
	}
	return w.Flush()
}

func bodeResponse(cmd *cobra.Command, args []string) error {
	_, r, err := evaluate(cmd, nil)
	if err != nil {
		return err
	}

	fmt.Println(r.Name)
	fmt.Println(viz.BodePlot(r.Frequency, bodeWidth, bodeHeight))
	fmt.Println()

	m := r.Margins
	if m.HasGainMargin {
		fmt.Printf("gain margin:  %.4g dB at %.4g rad/s\n", m.GainMarginDB, m.PhaseCrossover)
	} else {
		fmt.Println("gain margin:  none (phase never crosses -180 deg)")
	}
	if m.HasPhaseMargin {
		fmt.Printf("phase margin: %.4g deg at %.4g rad/s\n", m.PhaseMarginDeg, m.GainCrossover)
	} else {
		fmt.Println("phase margin: none (magnitude never crosses 0 dB)")
	}
	return nil
}

func polesZeros(cmd *cobra.Command, args []string) error {
	_, r, err := evaluate(cmd, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tRE\tIM")
	for _, p := range r.Poles {
		fmt.Fprintf(w, "pole\t%.6g\t%.6g\n", p.Re, p.Im)
	}
	for _, z := range r.Zeros {
		fmt.Fprintf(w, "zero\t%.6g\t%.6g\n", z.Re, z.Im)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.PoleZeroMap(r.Poles, r.Zeros, 61, 21))
	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "plant\t%s\n", cfg.Plant.Type)
	if cfg.Controller.Enabled {
		fmt.Fprintf(w, "controller\t%s\n", cfg.Controller.Type)
	} else {
		fmt.Fprintln(w, "controller\tnone")
	}
	fmt.Fprintf(w, "input\t%s\n", cfg.Input.Type)
	fmt.Fprintf(w, "integrator\t%s\n", cfg.Simulation.Integrator)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FIELD\tVALUE\tRANGE")
	for _, name := range config.FieldNames() {
		v, _ := cfg.Get(name)
		rng := ""
		if r, ok := config.Ranges[name]; ok {
			rng = fmt.Sprintf("[%g, %g]", r.Min, r.Max)
		}
		fmt.Fprintf(w, "%s\t%g\t%s\n", name, v, rng)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if violations := cfg.CheckRanges(); len(violations) > 0 {
		fmt.Println("\noutside recommended ranges:")
		for _, v := range violations {
			fmt.Printf("  %s\n", v)
		}
	}

	reg := experiment.NewRegistry()
	fmt.Printf("\nintegrators: %s (default %s)\n", strings.Join(reg.ListIntegrators(), ", "), experiment.DefaultIntegrator)
	fmt.Printf("metrics:     %s\n", strings.Join(reg.ListMetrics(), ", "))

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\ninvalid: %v\n", err)
	}
	return nil
}

func plotFile(cmd *cobra.Command, args []string) error {
	_, r, err := evaluate(cmd, nil)
	if err != nil {
		return err
	}

	var render func(w io.Writer, format string) error
	switch plotKind {
	case "response":
		render = func(w io.Writer, format string) error {
			return export.Response(w, format, r.Time, r.StepInfo, r.Name)
		}
	case "bode":
		render = func(w io.Writer, format string) error {
			return export.Bode(w, format, r.Frequency, r.Name)
		}
	case "polezero":
		render = func(w io.Writer, format string) error {
			return export.PoleZero(w, format, r.Poles, r.Zeros, r.Name)
		}
	default:
		return fmt.Errorf("unknown plot kind: %s (want response, bode or polezero)", plotKind)
	}

	if err := export.SaveFile(plotOut, render); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", plotOut)
	return nil
}

// spectrum drives the system with a sine and compares the measured
// steady-state gain and phase with the analytic frequency response.
func spectrum(cmd *cobra.Command, args []string) error {
	cfg, r, err := evaluate(cmd, func(c *config.Config) { c.Input.Type = "sine" })
	if err != nil {
		return err
	}
	if !r.Stable {
		return fmt.Errorf("%s is unstable: no steady-state sine response", r.Name)
	}

	omega := cfg.Input.Frequency
	tr := r.Time
	tone, err := analysis.MeasureTone(tr.Times, tr.Inputs, tr.Outputs, omega)
	if err != nil {
		return err
	}

	sys, err := lti.New(r.System.Num, r.System.Den)
	if err != nil {
		return err
	}
	predicted, err := response.Bode(sys, []float64{omega})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "frequency\t%.4g rad/s\t(%d periods, %d samples)\n", omega, tone.Periods, tone.Samples)
	fmt.Fprintln(w, "\tMEASURED\tPREDICTED")
	fmt.Fprintf(w, "gain [dB]\t%.4f\t%.4f\n", tone.GainDB, predicted.MagnitudeDB[0])
	fmt.Fprintf(w, "phase [deg]\t%.4f\t%.4f\n", tone.PhaseDeg, predicted.PhaseDeg[0])
	if err := w.Flush(); err != nil {
		return err
	}

	dt := cfg.Simulation.ResolutionMs / 1000
	if dom, err := analysis.DominantFrequency(tr.Outputs, dt); err == nil {
		fmt.Printf("dominant output frequency: %.4g rad/s\n", dom)
	}
	return nil
}
