package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/trajectory"
)

// Factory builds the integrator of sample path i. Every call must return a
// fresh integrator; paths share nothing.
type Factory func(path int) (integrators.Integrator, error)

// Ensemble integrates independent sample paths in parallel.
type Ensemble struct {
	factory  Factory
	numPaths int
	workers  int
	metrics  func() []Metric
	logger   *slog.Logger
}

func NewEnsemble(factory Factory, numPaths int) *Ensemble {
	return &Ensemble{factory: factory, numPaths: numPaths}
}

// WithWorkers bounds the number of paths integrated at once. Zero uses
// GOMAXPROCS.
func (e *Ensemble) WithWorkers(n int) *Ensemble {
	e.workers = n
	return e
}

// WithMetrics installs fresh metrics on every path.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

func (e *Ensemble) WithLogger(l *slog.Logger) *Ensemble {
	e.logger = l
	return e
}

// Run integrates every path into its own cell range of store. Results are
// indexed by path; a failed path keeps its partial result and the joined
// error names every failed path.
func (e *Ensemble) Run(ctx context.Context, cfg Config, store *trajectory.Ensemble) ([]*Result, error) {
	if e.numPaths <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one path, got %d", dynamo.ErrConfiguration, e.numPaths)
	}
	if store != nil && store.Len() != e.numPaths {
		return nil, dynamo.Mismatch("ensemble store", store.Len(), e.numPaths)
	}

	results := make([]*Result, e.numPaths)
	errs := make([]error, e.numPaths)

	pool := newWorkerPool(e.workers)
	for i := 0; i < e.numPaths; i++ {
		idx := i
		pool.Go(func() {
			integ, err := e.factory(idx)
			if err != nil {
				errs[idx] = fmt.Errorf("path %d: %w", idx, err)
				return
			}
			sim := New(integ)
			if e.logger != nil {
				sim.SetLogger(e.logger.With(slog.Int("path", idx)))
			}
			if store != nil {
				sim.AddSink(store.Path(idx))
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					sim.AddMetric(m)
				}
			}
			results[idx], err = sim.Run(ctx, cfg)
			if err != nil {
				errs[idx] = fmt.Errorf("path %d: %w", idx, err)
			}
		})
	}
	pool.Wait()

	return results, errors.Join(errs...)
}
