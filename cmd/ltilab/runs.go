package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ltilab/internal/optim"
	"github.com/san-kum/ltilab/internal/storage"
	"github.com/san-kum/ltilab/internal/viz"
	"github.com/spf13/cobra"
)

var (
	runName string
	outFile string
)

func runCommands() []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "evaluate and save a run",
		RunE:  saveRun,
	}
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the system name)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's time response to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "re-evaluate a run's config and export the full report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	identifyCmd := &cobra.Command{
		Use:   "identify [run_id]",
		Short: "fit a first-order model to a saved step response",
		Args:  cobra.ExactArgs(1),
		RunE:  identifyRun,
	}

	return []*cobra.Command{runCmd, listCmd, showCmd, exportCSVCmd, exportJSONCmd, identifyCmd}
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// output opens outFile, or stdout when it is unset.
func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func saveRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	cfg, r, err := evaluate(cmd, nil)
	if err != nil {
		return err
	}

	name := runName
	if name == "" {
		name = r.Name
	}
	runID, err := st.Save(name, cfg, r)
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("system: %s\n", r.Name)
	fmt.Printf("stable: %v\n", r.Stable)
	fmt.Printf("samples: %d\n", r.Time.Len())
	if len(r.Time.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for name, val := range r.Time.Metrics {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tINPUT\tINTEG\tSTABLE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Input,
			run.Integrator,
			run.Stable,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadResponse(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s\n", meta.System)
	fmt.Printf("samples: %d\n\n", tr.Len())

	graph := asciigraph.PlotMany([][]float64{tr.Outputs, tr.Inputs},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
		asciigraph.Caption(fmt.Sprintf("%s input (yellow) and output (cyan)", meta.Input)),
	)
	fmt.Println(graph)

	if f, err := st.LoadBode(runID); err == nil && f.Len() > 0 {
		fmt.Println()
		fmt.Println(viz.BodePlot(f, 80, 8))
	}

	if len(meta.StepInfo) > 0 {
		fmt.Println("\nstep info:")
		for k, v := range meta.StepInfo {
			fmt.Printf("  %s: %.6g\n", k, v)
		}
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}

	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteResponseCSV(w, tr); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc, closeCache := newService(ctx, newLogger())
	defer closeCache()

	r, err := svc.Evaluate(ctx, *cfg)
	if err != nil {
		return err
	}

	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, r); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func identifyRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if meta.Input != "step" {
		return fmt.Errorf("run %s was driven by %s, identification needs a step response", meta.ID, meta.Input)
	}
	tr, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}

	fit, err := optim.IdentifyFirstOrder(tr.Times, tr.Outputs)
	if err != nil {
		return err
	}
	fmt.Printf("fitted K / (Ts + 1) to %s:\n", meta.System)
	fmt.Printf("  K    = %.6g\n", fit.K)
	fmt.Printf("  T    = %.6g\n", fit.T)
	fmt.Printf("  rmse = %.3g\n", fit.RMSE)
	return nil
}
