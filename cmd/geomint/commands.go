package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/geomint/internal/analysis"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/experiment"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/storage"
	"github.com/san-kum/geomint/internal/tableau"
	"github.com/san-kum/geomint/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func problemArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func newExperiment(cmd *cobra.Command, problem string) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, problem)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	e, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return nil, err
	}
	e.SetLogger(logger)
	return e, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	e, err := newExperiment(cmd, problemArg(args))
	if err != nil {
		return err
	}
	e.SetWorkers(workers)
	cfg := e.Config()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s...\n", e)
	out, runErr := e.Run(ctx)
	if out == nil {
		return runErr
	}

	meta, err := e.Metadata(out)
	if err != nil {
		return err
	}
	runID, err := st.Save(meta, out.Trajectories.Path(0))
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", out.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%d not converged)\n", meta.StepsTaken, meta.NonConverged)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Printf("  %-22s %.6g\n", name, meta.Metrics[name])
	}
	if cfg.Paths > 1 {
		printEnsemble(out.Trajectories.Final())
	}
	if runErr != nil {
		fmt.Println(errorStyle.Render("\nrun stopped early: " + runErr.Error()))
		return runErr
	}
	return nil
}

// printEnsemble reports the mean and standard deviation of each final
// coordinate over the sample paths.
func printEnsemble(final []dynamo.State) {
	if len(final) == 0 || len(final[0]) == 0 {
		return
	}
	fmt.Printf("\nensemble of %d paths at final time:\n", len(final))
	col := make([]float64, len(final))
	for k := range final[0] {
		for i, q := range final {
			col[i] = q[k]
		}
		mean, std := stat.MeanStdDev(col, nil)
		fmt.Printf("  q[%d]  mean %.6g  std %.6g\n", k, mean, std)
	}
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
	fmt.Fprintln(w, "ID\tPROBLEM\tINTEGRATOR\tTIME\tDT\tSTEPS\tPATHS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%d\n",
			run.ID,
			run.Problem,
			run.Integrator,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dt,
			run.StepsTaken,
			run.Paths,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if sol.Len() < 2 {
		return fmt.Errorf("run %s has no data to plot", meta.ID)
	}

	fmt.Println(titleStyle.Render(meta.ID))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%s, %s, %d samples", meta.Problem, meta.Integrator, sol.Len())))
	fmt.Println()

	if phase {
		pp, err := analysis.NewPhasePortrait(sol, xAxis, yAxis)
		if err != nil {
			return err
		}
		fmt.Print(analysis.ASCII(pp.Points, 80, 24))
		fmt.Println(mutedStyle.Render(fmt.Sprintf("q[%d] vs q[%d]", yAxis, xAxis)))
		return nil
	}

	coords := []int{coord}
	if coord < 0 {
		coords = coords[:0]
		for k := 0; k < min(sol.Dim(), 6); k++ {
			coords = append(coords, k)
		}
	}
	for _, k := range coords {
		data, err := sol.Coordinate(k)
		if err != nil {
			return err
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("q[%d] vs time", k)),
		))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	data, err := sol.Coordinate(coord)
	if err != nil {
		return err
	}
	omega, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(data)
	fmt.Println(asciigraph.Plot(ps[:max(len(ps)/4, 2)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (q[%d])", coord)),
	))
	fmt.Println()
	fmt.Printf("dominant angular frequency: %.4f rad/s\n", omega)
	fmt.Printf("period: %.4f s\n", 2*math.Pi/omega)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, sol)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger(base.LogLevel)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tMAX ERROR\tENERGY DRIFT\tMEAN ITER\tTIME")
	for _, name := range args[1:] {
		cfg := base.Clone()
		cfg.Integrator = name
		e, err := experiment.New(cfg, nil)
		if err != nil {
			return err
		}
		e.SetLogger(logger)
		out, err := e.Run(ctx)
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t\t\t\n", name, errorStyle.Render(err.Error()))
			continue
		}

		maxErr := "-"
		if exact, ok := e.Problem().Equation.(dynamo.Exact); ok {
			v, err := analysis.MaxError(out.Trajectories.Path(0), exact)
			if err != nil {
				return err
			}
			maxErr = fmt.Sprintf("%.3e", v)
		}
		sum := out.Summary()
		drift := "-"
		if v, ok := sum["energy_drift"]; ok {
			drift = fmt.Sprintf("%.3e", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%v\n", name, maxErr, drift, sum["iterations"], out.Elapsed.Round(time.Microsecond))
	}
	return w.Flush()
}

func orderStudy(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	cfg.Integrator = args[1]
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, nil)
	if err != nil {
		return err
	}
	exact, ok := e.Problem().Equation.(dynamo.Exact)
	if !ok {
		return fmt.Errorf("%w: problem %s has no closed form solution", dynamo.ErrConfiguration, cfg.Problem)
	}
	if cfg.Dt <= 0 || levels < 2 {
		return fmt.Errorf("%w: need dt > 0 and at least two levels", dynamo.ErrConfiguration)
	}

	dts := make([]float64, levels)
	for i := range dts {
		dts[i] = cfg.Dt / math.Pow(2, float64(i))
	}
	build := func(h float64) (integrators.Integrator, error) {
		c := cfg.Clone()
		c.Dt = h
		c.Steps = int(math.Round(cfg.Duration() / h))
		ex, err := experiment.New(c, nil)
		if err != nil {
			return nil, err
		}
		ex.SetLogger(logger)
		return ex.Integrator(0)
	}

	ctx, cancel := signalContext()
	defer cancel()
	table, studyErr := analysis.Study(ctx, build, exact, cfg.Duration(), dts)
	if table == nil {
		return studyErr
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s on %s, t = %g", cfg.Integrator, cfg.Problem, cfg.Duration())))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tERROR\tORDER")
	for i := range table.Dt {
		order := "-"
		if i > 0 && i-1 < len(table.Order) {
			order = fmt.Sprintf("%.2f", table.Order[i-1])
		}
		fmt.Fprintf(w, "%g\t%.3e\t%s\n", table.Dt[i], table.Error[i], order)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if studyErr != nil {
		return studyErr
	}
	fmt.Printf("fitted order: %.2f\n", table.Fitted)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, problemArg(args))
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, nil)
	if err != nil {
		return err
	}
	// Log lines would tear the terminal view.
	e.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	opts := viz.Options{Title: cfg.Problem, X: xAxis, Y: yAxis}
	if e.Problem().Dim() < 2 && !cmd.Flags().Changed("y-axis") {
		opts.Y = -1
	}
	if h, ok := e.Problem().Equation.(dynamo.Hamiltonian); ok {
		opts.Energy = h
	}
	if cmd.Flags().Changed("steps") {
		opts.MaxSteps = cfg.Steps
	}

	m, err := viz.NewModel(func() (integrators.Integrator, error) { return e.Integrator(0) }, opts)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	return final.(viz.Model).Err()
}

func listMethods(cmd *cobra.Command, args []string) error {
	r := experiment.NewRegistry()

	fmt.Println(titleStyle.Render("integrators"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range r.ListIntegrators() {
		m, err := r.Method(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", name, m.Kind, m.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("tableaus"))
	fmt.Println("  " + strings.Join(tableau.Names(), ", "))
	fmt.Println(mutedStyle.Render("  sirk: midpoint, gauss"))

	fmt.Println()
	fmt.Println(titleStyle.Render("problems"))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range r.ListProblems() {
		p, err := problems.New(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", name, p.Kind, p.Description,
			strings.Join(r.ListFor(p.Kind), " "))
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
