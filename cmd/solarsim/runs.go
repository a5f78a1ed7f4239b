package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/solarsim/internal/analysis"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/export"
	"github.com/san-kum/solarsim/internal/storage"
)

var (
	plotBody  int
	plotField string
	diagStep  int
	outFile   string
	svgPlane  string
	svgWidth  int
	svgHeight int
	svgFrame  bool
	showPower bool
)

// runCommands are the commands that read stored runs. Each takes an
// optional run id and defaults to the latest run.
func runCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one field of one body over time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBody, "body", 1, "body id")
	plotCmd.Flags().StringVar(&plotField, "field", "r", "x, y, z, vx, vy, vz, r, speed, lz, kinetic, potential or total")

	diagnoseCmd := &cobra.Command{
		Use:   "diagnose [run_id]",
		Short: "print per-body diagnostics at a step",
		Args:  cobra.MaximumNArgs(1),
		RunE:  diagnoseRun,
	}
	diagnoseCmd.Flags().IntVar(&diagStep, "step", -1, "step to show, -1 for the last")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states to CSV on stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export trajectories to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().StringVar(&svgPlane, "plane", "xy", "projection plane (xy, xz, yz)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")
	exportSVGCmd.Flags().BoolVar(&svgFrame, "frame", false, "render the final frame as the live view draws it")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital period and apsides of one body",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&plotBody, "body", 1, "body id")
	analyzeCmd.Flags().BoolVar(&showPower, "spectrum", false, "plot the power spectrum of the radius")

	return []*cobra.Command{listCmd, plotCmd, diagnoseCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd}
}

func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
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
	fmt.Fprintln(w, "ID\tTIME\tMETHOD\tTOPOLOGY\tDT\tSTEPS\tBODIES\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "stopped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d/%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Topology,
			run.Dt,
			run.StepsTaken, run.Steps,
			run.Bodies,
			status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	data, err := storage.Series(snaps, dynamo.BodyID(plotBody), plotField)
	if err != nil {
		return err
	}
	if len(data) < 2 {
		return fmt.Errorf("not enough data for body %d field %s", plotBody, plotField)
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("samples: %d\n\n", len(data))
	graph := asciigraph.Plot(data,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("body %d %s vs step", plotBody, plotField)),
	)
	fmt.Println(graph)
	return nil
}

func diagnoseRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("run %s has no states", runID)
	}

	snap := snaps[len(snaps)-1]
	if diagStep >= 0 {
		if diagStep >= len(snaps) {
			return fmt.Errorf("step %d out of range (0-%d)", diagStep, len(snaps)-1)
		}
		snap = snaps[diagStep]
	}
	return printDiagnostics(os.Stdout, snap)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, snaps)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	run, err := st.LoadRun(runID)
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.ExportJSONStdout(run)
	}
	if err := storage.ExportJSONFile(outFile, run); err != nil {
		return err
	}
	logger.Info("exported", "run", runID, "path", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("run %s has no states", runID)
	}

	var svg string
	if svgFrame {
		svg = export.CanvasToSVG(export.RenderFrame(snaps[len(snaps)-1], 60, 24), 4)
	} else {
		plane, err := export.ParsePlane(svgPlane)
		if err != nil {
			return err
		}
		svg = export.TrajectoriesToSVG(snaps, plane, svgWidth, svgHeight)
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("exported", "run", runID, "path", path)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	radii, err := storage.Series(snaps, dynamo.BodyID(plotBody), "r")
	if err != nil {
		return err
	}
	apsides, err := analysis.FindApsides(radii)
	if err != nil {
		return fmt.Errorf("body %d: %w", plotBody, err)
	}
	period, err := analysis.DominantPeriod(radii, meta.Dt)
	if err != nil {
		return fmt.Errorf("body %d: %w", plotBody, err)
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("body: %d\n\n", plotBody)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "periapsis\t%.4f\n", apsides.Periapsis)
	fmt.Fprintf(w, "apoapsis\t%.4f\n", apsides.Apoapsis)
	fmt.Fprintf(w, "eccentricity\t%.4f\n", apsides.Eccentricity)
	if period > 0 {
		fmt.Fprintf(w, "radial period\t%.2f\n", period)
	} else {
		fmt.Fprintln(w, "radial period\tn/a")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showPower {
		ps := analysis.PowerSpectrum(radii)
		if len(ps) > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(ps[1:],
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("radius power spectrum"),
			))
		}
	}
	return nil
}
