package integrators

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/nlsolve"
)

// Integrator advances one equation by fixed steps.
type Integrator interface {
	Name() string
	Dim() int
	Time() float64
	Steps() int
	Step() (Report, error)
	Snapshot() dynamo.Snapshot
}

// Report describes one attempted step.
type Report struct {
	Step       int
	Time       float64
	Status     nlsolve.Status
	Iterations int
	Residual   float64
	Tolerance  float64
}

func (r Report) Converged() bool { return r.Status == nlsolve.Converged }

// scheme is the per-method part of an implicit step. The stepper owns the
// order of operations, schemes only fill in the blanks.
type scheme interface {
	Size() int
	Residual(x, b []float64) error
	// prepare runs once per step before the guess, e.g. to draw noise.
	prepare()
	guess(x []float64)
	// update writes the reconstructed state into Parameters from the
	// solved unknowns x.
	update(x []float64) error
}

type stepper struct {
	name   string
	dim    int
	cfg    Config
	log    *slog.Logger
	params *Parameters
	solver *nlsolve.Solver
	x      []float64
	b      []float64
	n      int

	shift []float64
	last  nlsolve.Result
}

func newStepper(name string, dim, size int, t0, dt float64, q0 []float64, cfg Config) (*stepper, error) {
	if len(q0) != dim {
		return nil, dynamo.Mismatch("initial q", len(q0), dim)
	}
	if dt < 0 {
		return nil, fmt.Errorf("%w: negative time step %g", dynamo.ErrConfiguration, dt)
	}
	if !dynamo.State(q0).IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	if err := cfg.validate(dim); err != nil {
		return nil, err
	}
	solver, err := nlsolve.New(size, cfg.Solver)
	if err != nil {
		return nil, err
	}
	return &stepper{
		name:   name,
		dim:    dim,
		cfg:    cfg,
		log:    cfg.logger(name),
		params: newParameters(t0, dt, q0),
		solver: solver,
		x:      make([]float64, size),
		b:      make([]float64, size),
		shift:  make([]float64, dim),
	}, nil
}

func (s *stepper) Name() string              { return s.name }
func (s *stepper) Dim() int                  { return s.dim }
func (s *stepper) Time() float64             { return s.params.T }
func (s *stepper) Steps() int                { return s.n }
func (s *stepper) Params() *Parameters       { return s.params }
func (s *stepper) LastSolve() nlsolve.Result { return s.last }

func (s *stepper) fail(err error) error {
	return &dynamo.StepError{Integrator: s.name, Step: s.n + 1, Time: s.params.T, Wrapped: err}
}

// advance performs one step of sc: guess, solve, check, reconstruct.
func (s *stepper) advance(sc scheme) (Report, error) {
	rep := Report{Step: s.n + 1, Time: s.params.T}

	sc.prepare()
	sc.guess(s.x)
	res, err := s.solver.Solve(s.x, sc.Residual)
	s.last = res
	rep.Status = res.Status
	rep.Iterations = res.Iterations
	rep.Residual = res.Residual
	rep.Tolerance = res.Tolerance
	if err != nil {
		return rep, s.fail(err)
	}

	switch res.Status {
	case nlsolve.Diverged:
		s.log.Error("solver diverged",
			slog.Int("step", rep.Step),
			slog.Float64("t", rep.Time),
			slog.Int("iterations", res.Iterations))
		return rep, s.fail(dynamo.ErrNumericalDivergence)
	case nlsolve.IterationLimit:
		s.log.Warn("solver did not converge",
			slog.Int("step", rep.Step),
			slog.Float64("t", rep.Time),
			slog.Int("iterations", res.Iterations),
			slog.Float64("residual", res.Residual),
			slog.Float64("tolerance", res.Tolerance),
			slog.String("policy", s.cfg.Policy.String()))
		if s.cfg.Policy == Abort {
			return rep, s.fail(dynamo.ErrSolverNonConvergence)
		}
	}

	if err := sc.update(s.x); err != nil {
		return rep, s.fail(err)
	}
	s.n++
	s.log.Debug("step",
		slog.Int("step", rep.Step),
		slog.Float64("t", s.params.T),
		slog.Int("iterations", res.Iterations),
		slog.Float64("residual", res.Residual))
	return rep, nil
}

// accept finishes a step: wraps periodic coordinates of qNew, moves the
// history and advances time. qNew and vNew are consumed.
func (s *stepper) accept(qNew, vNew []float64) error {
	if !dynamo.State(qNew).IsValid() {
		return dynamo.ErrNumericalDivergence
	}
	Wrap(qNew, s.cfg.Periodicity, s.shift)
	s.params.advance(qNew, vNew)
	s.params.shift(s.shift)
	return nil
}

func (s *stepper) snapshot() dynamo.Snapshot {
	p := s.params
	snap := dynamo.Snapshot{T: p.T, Q: dynamo.State(p.Q).Clone()}
	if p.P != nil {
		snap.P = dynamo.State(p.P).Clone()
	}
	if p.Lambda != nil {
		snap.Lambda = dynamo.State(p.Lambda).Clone()
	}
	return snap
}
