package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/nlsolve"
)

type Simulator struct {
	integrator integrators.Integrator
	sinks      []dynamo.Sink
	metrics    []Metric
	observers  []Observer
	log        *slog.Logger
}

func New(integrator integrators.Integrator, sinks ...dynamo.Sink) *Simulator {
	return &Simulator{
		integrator: integrator,
		sinks:      sinks,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        slog.Default().With(slog.String("component", "sim")),
	}
}

func (s *Simulator) AddSink(k dynamo.Sink)              { s.sinks = append(s.sinks, k) }
func (s *Simulator) AddMetric(m Metric)                 { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)             { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger)           { s.log = l.With(slog.String("component", "sim")) }
func (s *Simulator) Integrator() integrators.Integrator { return s.integrator }

// Run records the initial snapshot as cell 0, then takes cfg.Steps steps
// and records cell n after step n. It stops at the first step error, sink
// error or invalid state and returns the partial result with the error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	snap := s.integrator.Snapshot()
	if err := s.record(0, snap, integrators.Report{Time: snap.T, Status: nlsolve.Converged}); err != nil {
		return s.finish(result, snap, err)
	}

	for i := 1; i <= cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return s.finish(result, snap, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()))
		default:
		}

		rep, err := s.integrator.Step()
		if err != nil {
			return s.finish(result, snap, err)
		}
		result.StepsTaken++
		result.Iterations += rep.Iterations
		result.MaxResidual = math.Max(result.MaxResidual, rep.Residual)
		if !rep.Converged() {
			result.NonConverged++
		}

		snap = s.integrator.Snapshot()
		if cfg.ValidateState && !snap.IsValid() {
			return s.finish(result, snap, &dynamo.StepError{
				Integrator: s.integrator.Name(),
				Step:       i,
				Time:       snap.T,
				Wrapped:    dynamo.ErrInvalidState,
			})
		}
		if err := s.record(i, snap, rep); err != nil {
			return s.finish(result, snap, err)
		}
	}

	s.log.Info("run finished",
		slog.String("integrator", s.integrator.Name()),
		slog.Int("steps", result.StepsTaken),
		slog.Int("non_converged", result.NonConverged),
		slog.Float64("t", snap.T))
	return s.finish(result, snap, nil)
}

func (s *Simulator) record(n int, snap dynamo.Snapshot, rep integrators.Report) error {
	for _, k := range s.sinks {
		if err := k.Record(n, snap); err != nil {
			return fmt.Errorf("record step %d: %w", n, err)
		}
	}
	for _, m := range s.metrics {
		m.Observe(n, snap, rep)
	}
	for _, obs := range s.observers {
		obs.OnStep(n, snap, rep)
	}
	return nil
}

func (s *Simulator) finish(result *Result, snap dynamo.Snapshot, err error) (*Result, error) {
	result.Final = snap
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if err != nil {
		result.Errors = append(result.Errors, err)
		s.log.Error("run stopped",
			slog.String("integrator", s.integrator.Name()),
			slog.Int("steps", result.StepsTaken),
			slog.Any("err", err))
	}
	return result, err
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrConfiguration, cfg.Steps)
	}
	return nil
}

// RunWithCallback steps until callback returns false, the context is done
// or steps is reached. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, steps int, callback func(dynamo.Snapshot, integrators.Report) bool) error {
	if err := s.validateConfig(Config{Steps: steps}); err != nil {
		return err
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		rep, err := s.integrator.Step()
		if err != nil {
			return err
		}
		if !callback(s.integrator.Snapshot(), rep) {
			return nil
		}
	}
	return nil
}
