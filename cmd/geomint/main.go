package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/geomint/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	integrator string
	tableauArg string
	stages     int
	dt         float64
	steps      int
	seed       uint64
	paths      int
	truncation float64
	onFailure  string
	workers    int

	coord  int
	xAxis  int
	yAxis  int
	phase  bool
	levels int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "geomint",
		Short:         "structure-preserving integrators for ODEs, DAEs and SDEs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".geomint", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem and save the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExperiment,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&workers, "workers", 0, "parallel sample paths (0 = GOMAXPROCS)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a coordinate or phase portrait of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&coord, "coord", -1, "coordinate to plot (-1 = all)")
	plotCmd.Flags().BoolVar(&phase, "phase", false, "draw a phase portrait instead")
	plotCmd.Flags().IntVar(&xAxis, "x-axis", 0, "coordinate on the x axis")
	plotCmd.Flags().IntVar(&yAxis, "y-axis", 1, "coordinate on the y axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&coord, "coord", 0, "coordinate to analyze")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [integrator...]",
		Short: "compare integrators on the same problem",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addRunFlags(compareCmd)

	orderCmd := &cobra.Command{
		Use:   "order [problem] [integrator]",
		Short: "estimate the convergence order by step halving",
		Args:  cobra.ExactArgs(2),
		RunE:  orderStudy,
	}
	addRunFlags(orderCmd)
	orderCmd.Flags().IntVar(&levels, "levels", 4, "number of step sizes")

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "integrate with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&xAxis, "x-axis", 0, "coordinate on the x axis")
	liveCmd.Flags().IntVar(&yAxis, "y-axis", 1, "coordinate on the y axis (-1 = momentum or time)")

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list integrators, tableaus and problems",
		RunE:  listMethods,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				cfg := config.GetPreset(args[0], p)
				fmt.Printf("  %-12s %s/%s dt=%g steps=%d\n", p, cfg.Integrator, cfg.Tableau, cfg.Dt, cfg.Steps)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, compareCmd, orderCmd, liveCmd, methodsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&integrator, "integrator", "firk", "integrator")
	f.StringVar(&tableauArg, "tableau", "gauss", "tableau family")
	f.IntVar(&stages, "stages", config.DefaultStages, "number of stages")
	f.Float64Var(&dt, "dt", config.DefaultDt, "time step")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.Uint64Var(&seed, "seed", 0, "Wiener seed of path 0")
	f.IntVar(&paths, "paths", 1, "number of sample paths")
	f.Float64Var(&truncation, "truncation", 0, "clip Wiener increments to [-A, A] (0 = off)")
	f.StringVar(&onFailure, "on-failure", "continue", "policy at the iteration limit (continue, abort)")
}

// resolveConfig layers defaults, a preset, a config file and changed
// flags, in that order.
func resolveConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(problem, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for %s (available: %v)", preset, problem, config.ListPresets(problem))
		}
	}
	if configFile != "" {
		c, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if problem != "" {
		cfg.Problem = problem
	}

	f := cmd.Flags()
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("tableau") {
		cfg.Tableau = tableauArg
	}
	if f.Changed("stages") {
		cfg.Stages = stages
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("paths") {
		cfg.Paths = paths
	}
	if f.Changed("truncation") {
		cfg.Truncation = truncation
	}
	if f.Changed("on-failure") {
		cfg.OnFailure = onFailure
	}
	if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger, nil
}
