// Package experiment assembles a run from a config: it resolves the problem
// and integrator, integrates every sample path and summarizes the outcome.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/san-kum/geomint/internal/config"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/sim"
	"github.com/san-kum/geomint/internal/storage"
	"github.com/san-kum/geomint/internal/trajectory"
)

type Experiment struct {
	cfg      *config.Config
	problem  *problems.Problem
	registry *Registry
	logger   *slog.Logger
	log      *slog.Logger
	workers  int
}

// New validates cfg and instantiates its problem with cfg.Params applied.
func New(cfg *config.Config, registry *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if _, err := registry.Method(cfg.Integrator); err != nil {
		return nil, err
	}
	p, err := problems.New(cfg.Problem)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.SetParam(k, cfg.Params[k]); err != nil {
			return nil, err
		}
	}

	return &Experiment{
		cfg:      cfg,
		problem:  p,
		registry: registry,
		logger:   slog.Default(),
		log:      slog.Default().With(slog.String("component", "experiment")),
	}, nil
}

func (e *Experiment) SetLogger(l *slog.Logger) {
	e.logger = l
	e.log = l.With(slog.String("component", "experiment"))
}

func (e *Experiment) SetWorkers(n int)           { e.workers = n }
func (e *Experiment) Problem() *problems.Problem { return e.problem }
func (e *Experiment) Config() *config.Config     { return e.cfg }

func (e *Experiment) paths() int { return max(e.cfg.Paths, 1) }

// Integrator builds a fresh integrator for sample path i. Paths differ
// only in their Wiener seed.
func (e *Experiment) Integrator(path int) (integrators.Integrator, error) {
	icfg, err := e.cfg.IntegratorConfig(path, e.logger.With(slog.Int("path", path)))
	if err != nil {
		return nil, err
	}
	if icfg.Periodicity == nil {
		icfg.Periodicity = e.problem.Periodicity
	}
	return e.registry.Build(e.problem, e.cfg, icfg)
}

type Outcome struct {
	Results      []*sim.Result
	Trajectories *trajectory.Ensemble
	Elapsed      time.Duration
}

// Run integrates every path. A failed path keeps its partial trajectory;
// the returned error joins all path failures.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if _, err := e.Integrator(0); err != nil {
		return nil, err
	}

	n := e.paths()
	store := trajectory.NewEnsemble(n, e.cfg.Steps+1)
	ens := sim.NewEnsemble(e.Integrator, n).
		WithWorkers(e.workers).
		WithLogger(e.logger).
		WithMetrics(func() []sim.Metric { return e.registry.DefaultMetrics(e.problem) })

	e.log.Info("starting experiment",
		slog.String("problem", e.cfg.Problem),
		slog.String("integrator", e.cfg.Integrator),
		slog.Int("paths", n),
		slog.Int("steps", e.cfg.Steps),
		slog.Float64("dt", e.cfg.Dt))

	start := time.Now()
	results, err := ens.Run(ctx, sim.Config{Steps: e.cfg.Steps, ValidateState: true}, store)
	out := &Outcome{Results: results, Trajectories: store, Elapsed: time.Since(start)}
	if err != nil {
		e.log.Error("experiment failed", slog.Any("error", err))
		return out, err
	}
	e.log.Info("experiment finished", slog.Duration("elapsed", out.Elapsed))
	return out, nil
}

// Summary merges per-path metrics: the maximum for every metric except
// the mean iteration count and the convergence rate, which are averaged.
func (o *Outcome) Summary() map[string]float64 {
	out := make(map[string]float64)
	count := 0
	for _, r := range o.Results {
		if r == nil {
			continue
		}
		count++
		for k, v := range r.Metrics {
			switch k {
			case "iterations", "convergence":
				out[k] += v
			default:
				if cur, ok := out[k]; !ok || v > cur {
					out[k] = v
				}
			}
		}
	}
	if count > 0 {
		for _, k := range []string{"iterations", "convergence"} {
			if _, ok := out[k]; ok {
				out[k] /= float64(count)
			}
		}
	}
	return out
}

func (o *Outcome) StepsTaken() (total, nonConverged int) {
	for _, r := range o.Results {
		if r != nil {
			total += r.StepsTaken
			nonConverged += r.NonConverged
		}
	}
	return total, nonConverged
}

// Metadata describes the run for storage.
func (e *Experiment) Metadata(o *Outcome) (storage.RunMetadata, error) {
	in, err := e.Integrator(0)
	if err != nil {
		return storage.RunMetadata{}, err
	}
	meta := storage.RunMetadata{
		Problem:    e.cfg.Problem,
		Integrator: in.Name(),
		Tableau:    e.cfg.Tableau,
		Timestamp:  time.Now(),
		Seed:       e.cfg.Seed,
		Dt:         e.cfg.Dt,
		Steps:      e.cfg.Steps,
		Paths:      e.paths(),
	}
	if o != nil {
		meta.StepsTaken, meta.NonConverged = o.StepsTaken()
		meta.Metrics = o.Summary()
	}
	return meta, nil
}

func (e *Experiment) String() string {
	return fmt.Sprintf("%s/%s dt=%g steps=%d", e.cfg.Problem, e.cfg.Integrator, e.cfg.Dt, e.cfg.Steps)
}
