package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/analysis"
	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/experiment"
	"github.com/san-kum/solarsim/internal/physics"
	"github.com/san-kum/solarsim/internal/storage"
	"github.com/san-kum/solarsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	method     string
	topology   string
	dt         float64
	steps      int
	seed       int64
	noValidate bool
	noSave     bool

	perturbation float64
	compareNames []string
	metricNames  []string

	scatterCount   int
	scatterCentral float64
	scatterPlanet  float64
	scatterDist    float64
	scatterSpeed   float64

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "solarsim",
	})
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "solarsim",
		Short:         "gravitational n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".solarsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to record (default all)")

	scatterCmd := &cobra.Command{
		Use:   "scatter",
		Short: "launch a batch of planets in random directions around a fixed star",
		Args:  cobra.NoArgs,
		RunE:  runScatter,
	}
	addSimFlags(scatterCmd)
	scatterCmd.Flags().IntVar(&scatterCount, "count", 5, "number of planets (1-10)")
	scatterCmd.Flags().Float64Var(&scatterCentral, "central-mass", config.DefaultCentralMass, "central body mass")
	scatterCmd.Flags().Float64Var(&scatterPlanet, "planet-mass", 1, "planet mass")
	scatterCmd.Flags().Float64Var(&scatterDist, "distance", 100, "launch distance on the x axis")
	scatterCmd.Flags().Float64Var(&scatterSpeed, "speed", 3.16, "launch speed")
	scatterCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	scatterCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to record (default all)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return viz.RunLive(cfg)
		},
	}
	addSimFlags(liveCmd)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare Euler and Leapfrog on the same system",
		Args:  cobra.NoArgs,
		RunE:  compareMethods,
	}
	addSimFlags(compareCmd)
	compareCmd.Flags().StringSliceVar(&compareNames, "methods", nil, "methods to compare (default all)")

	chaosCmd := &cobra.Command{
		Use:   "chaos",
		Short: "estimate the largest Lyapunov exponent of a system",
		Args:  cobra.NoArgs,
		RunE:  estimateChaos,
	}
	addSimFlags(chaosCmd)
	chaosCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial offset of the first orbiting body")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in systems",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, scatterCmd, liveCmd, compareCmd, chaosCmd, presetsCmd)
	rootCmd.AddCommand(runCommands()...)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in system")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "integration method (Euler, Leapfrog)")
	cmd.Flags().StringVar(&topology, "topology", config.DefaultTopology, "interaction topology (full, central)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for scatter")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "keep stepping through non-finite states")
}

// resolveConfig layers the preset, the config file and explicitly set
// flags, in that order. With neither preset nor file the circular preset
// is used.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	case configFile == "":
		cfg = config.GetPreset("circular")
	default:
		cfg = config.DefaultConfig()
	}

	if configFile != "" {
		loaded, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debug("loaded config", "path", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("topology") {
		cfg.Topology = topology
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("no-validate") {
		cfg.ValidateState = !noValidate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return execute(cfg)
}

func runScatter(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Name = "scatter"
	cfg.Bodies = nil
	cfg.Scatter = &config.ScatterConfig{
		Count:       scatterCount,
		CentralMass: scatterCentral,
		PlanetMass:  scatterPlanet,
		Distance:    scatterDist,
		Speed:       scatterSpeed,
	}
	if !cmd.Flags().Changed("seed") {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return execute(cfg)
}

// execute runs cfg, stores the result and prints a summary. A run that
// stops early is still stored before its error is returned.
func execute(cfg *config.Config) error {
	exp, err := experiment.FromConfig(cfg,
		experiment.WithLogger(logger),
		experiment.WithMetrics(metricNames...),
	)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.Run{
			Name:      cfg.Name,
			Config:    exp.Config(),
			Snapshots: result.Snapshots,
			Metrics:   result.Metrics,
			Err:       runErr,
		})
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed %d/%d steps in %v\n", result.StepsTaken, cfg.Steps, result.Elapsed.Round(time.Millisecond))
	printMetrics(result.Metrics)
	fmt.Println()
	if err := printDiagnostics(os.Stdout, result.Final()); err != nil {
		return err
	}
	return runErr
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-24s %.6g\n", name, metrics[name])
	}
}

// printDiagnostics writes one row per body. The per-body potential counts
// every pair in both bodies, so the system energy is listed separately.
func printDiagnostics(out io.Writer, snap dynamo.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "step %d  t=%.2f\n", snap.Step, snap.Time)
	fmt.Fprintln(w, "BODY\tROLE\tMASS\tPOSITION\tVELOCITY\tL\tKINETIC\tPOTENTIAL\tTOTAL")
	for _, b := range snap.Bodies {
		d := b.Diagnostics
		if !d.Valid {
			fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\t-\t-\t-\t-\n", b.ID, b.Role, b.Mass, fmtVec(b.Position), fmtVec(b.Velocity))
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			b.ID, b.Role, b.Mass, fmtVec(b.Position), fmtVec(b.Velocity),
			fmtVec(d.AngularMomentum), d.Kinetic, d.Potential, d.Total)
	}
	fmt.Fprintf(w, "\nsystem energy\t%.6g\n", physics.Energy(snap))
	return w.Flush()
}

func compareMethods(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	methods := registry.ListMethods()
	if len(compareNames) > 0 {
		methods = methods[:0]
		for _, name := range compareNames {
			m, err := registry.GetMethod(name)
			if err != nil {
				return err
			}
			methods = append(methods, m)
		}
	}

	cfgs := make([]*config.Config, len(methods))
	for i, m := range methods {
		c := *base
		c.Name = m.String()
		c.Method = m.String()
		cfgs[i] = &c
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcomes, err := experiment.RunEnsemble(ctx, cfgs, experiment.WithLogger(logger.WithPrefix("compare")))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		logger.Warn("some methods failed", "err", err)
	}

	fmt.Printf("comparing methods (dt=%g, steps=%d, topology=%s)\n\n", base.Dt, base.Steps, base.Topology)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tENERGY_DRIFT\tL_DRIFT\tRADIUS_BOUND\tTIME_MS\tSTATUS")
	for _, o := range outcomes {
		res := o.Result
		if res == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t%v\n", o.Name, o.Err)
			continue
		}
		status := "ok"
		switch {
		case errors.Is(o.Err, dynamo.ErrInvalidState):
			status = "non-finite"
		case o.Err != nil:
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%.2e\t%.2e\t%.2e\t%.2f\t%s\n",
			o.Name, res.StepsTaken, base.Steps,
			res.Metrics["energy_drift"], res.Metrics["angular_momentum_drift"], res.Metrics["radius_bound"],
			float64(res.Elapsed.Microseconds())/1000, status)
	}
	return w.Flush()
}

func estimateChaos(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !(perturbation > 0) {
		return fmt.Errorf("perturbation must be positive, got %v", perturbation)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("estimating lyapunov exponent", "system", cfg.Name, "method", cfg.Method, "steps", cfg.Steps)
	lambda, err := analysis.LyapunovExponent(ctx, cfg, perturbation)
	if err != nil {
		return err
	}

	fmt.Printf("lyapunov exponent: %.6g\n", lambda)
	if lambda > 0.01 {
		fmt.Println("motion is sensitive to initial conditions")
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tTOPOLOGY\tDT\tSTEPS\tBODIES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		bodies := fmt.Sprint(len(p.Bodies))
		if p.Scatter != nil {
			bodies = fmt.Sprintf("1+%d random", p.Scatter.Count)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%s\n", name, p.Method, p.Topology, p.Dt, p.Steps, bodies)
	}
	return w.Flush()
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
