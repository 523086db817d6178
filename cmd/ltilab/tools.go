package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/ltilab/internal/automation"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/model"
	"github.com/san-kum/ltilab/internal/optim"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/server"
	"github.com/spf13/cobra"
)

var (
	tuneMetric string
	tuneMethod string
	tuneEvals  int
	tuneSteps  int
	tuneMax    float64

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	workers    int

	mcParams  []string
	mcPerturb float64
	mcTrials  int
	mcSeed    int64

	saveRuns     bool
	listenAddr   string
	serveWorkers int
)

func toolCommands() []*cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "tune controller gains against a tracking-error metric",
		RunE:  tuneController,
	}
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "cost metric: iae, ise or itae")
	tuneCmd.Flags().StringVar(&tuneMethod, "method", "nelder-mead", "grid or nelder-mead")
	tuneCmd.Flags().IntVar(&tuneEvals, "evals", 400, "evaluation budget (nelder-mead)")
	tuneCmd.Flags().IntVar(&tuneSteps, "grid-steps", 9, "values per gain (grid)")
	tuneCmd.Flags().Float64Var(&tuneMax, "grid-max", 5, "upper gain bound (grid)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "step one parameter and tabulate stability and step metrics",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "kp", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 5, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent evaluations (0 = GOMAXPROCS)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "evaluate random parameter perturbations",
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().StringSliceVar(&mcParams, "params", []string{"k", "t"}, "parameters to perturb")
	mcCmd.Flags().Float64Var(&mcPerturb, "perturb", 0.1, "relative perturbation")
	mcCmd.Flags().IntVar(&mcTrials, "trials", 100, "number of trials")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 1, "random seed (0 = from the clock)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of evaluations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveRuns, "save", true, "save steps that name save_as")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive explorer",
		RunE:  runTUI,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve evaluations over HTTP",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 4, "concurrent evaluations per batch")

	return []*cobra.Command{tuneCmd, sweepCmd, mcCmd, scenarioCmd, tuiCmd, serveCmd}
}

func tuneController(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Controller.Enabled {
		return fmt.Errorf("tuning needs a controller, set --controller p, pd or pid")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	tuner := &optim.Tuner{
		Eval:   response.NewEvaluator(cfg.Options()),
		Plant:  p.Plant,
		Kind:   p.Controller.Kind,
		Metric: tuneMetric,
		Grid:   cfg.Grid(),
	}
	logger := newLogger()

	var best model.ControllerSpec
	var cost float64
	switch tuneMethod {
	case "grid":
		names := optim.GainNames(tuner.Kind)
		ranges := make([][]float64, len(names))
		for i := range names {
			ranges[i] = optim.Linspace(0, tuneMax, tuneSteps)
		}
		gains, c, err := optim.NewGridSearch(names, ranges).Search(ctx, tuner.Objective())
		if err != nil {
			return err
		}
		best = model.ControllerSpec{Kind: tuner.Kind, Kp: gains["kp"], Kd: gains["kd"], Ki: gains["ki"]}
		cost = c
	case "nelder-mead":
		res, err := tuner.NelderMead(ctx, *p.Controller, tuneEvals)
		if err != nil {
			return err
		}
		logger.Debug("nelder-mead finished", "evaluations", res.Evaluations)
		best, cost = res.Controller, res.Cost
	default:
		return fmt.Errorf("unknown method: %s (want grid or nelder-mead)", tuneMethod)
	}

	if cost >= optim.UnstablePenalty {
		return fmt.Errorf("no stabilizing gains found")
	}
	fmt.Printf("%s on %s, %s = %.6g\n", best.Kind, cfg.Plant.Type, tuneMetric, cost)
	for _, name := range optim.GainNames(best.Kind) {
		v := map[string]float64{"kp": best.Kp, "kd": best.Kd, "ki": best.Ki}[name]
		fmt.Printf("  %s = %.6g\n", name, v)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc, closeCache := newService(ctx, newLogger())
	defer closeCache()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Workers:   workers,
	}, svc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTABLE\tOVERSHOOT\tSETTLING\tPHASE MARGIN\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%.4g\terror: %v\t\t\t\n", r.ParamValue, r.Err)
			continue
		}
		overshoot, settling := "-", "-"
		if r.StepInfo != nil {
			overshoot = fmt.Sprintf("%.2f%%", r.StepInfo.Overshoot)
			settling = fmt.Sprintf("%.3gs", r.StepInfo.SettlingTime)
		}
		pm := "-"
		if r.Margins.HasPhaseMargin {
			pm = fmt.Sprintf("%.1f deg", r.Margins.PhaseMarginDeg)
		}
		fmt.Fprintf(w, "%.4g\t%v\t%s\t%s\t%s\n", r.ParamValue, r.Stable, overshoot, settling, pm)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc, closeCache := newService(ctx, newLogger())
	defer closeCache()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Params:       mcParams,
		Perturbation: mcPerturb,
		NumTrials:    mcTrials,
		Seed:         mcSeed,
	}, svc)
	if err != nil {
		return err
	}

	stable, unstable, mean, std := automation.MonteCarloStats(results)
	fmt.Printf("%d trials perturbing %s by +/-%.0f%%\n", len(results), strings.Join(mcParams, ", "), mcPerturb*100)
	if len(results) > 0 {
		fmt.Printf("  seed:     %d\n", results[0].Seed)
	}
	fmt.Printf("  stable:   %d\n", stable)
	fmt.Printf("  unstable or failed: %d\n", unstable)
	if !math.IsNaN(mean) {
		fmt.Printf("  overshoot: %.3g%% +/- %.3g%%\n", mean, std)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	logger := newLogger()
	svc, closeCache := newService(ctx, logger)
	defer closeCache()

	var saver automation.Saver
	if saveRuns {
		st, err := openStore()
		if err != nil {
			return err
		}
		saver = st
	}

	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps))
	outcomes, err := automation.RunScenario(ctx, sc, svc, saver)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSYSTEM\tSTABLE\tRUN")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%d\terror: %v\t\t\n", o.Step, o.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%s\n", o.Step, o.Report.Name, o.Report.Stable, o.RunID)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger()
	svc, closeCache := newService(ctx, logger)
	defer closeCache()

	srv := server.New(svc, server.Options{
		Addr:    listenAddr,
		Workers: serveWorkers,
		Logger:  logger,
	})
	logger.Info("presets available", "names", config.ListPresets())
	return srv.Start(ctx)
}
