package integrators

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/nlsolve"
)

// FailurePolicy decides what a step does when the solver reaches its
// iteration limit. Divergence is always fatal.
type FailurePolicy int

const (
	// Continue logs a warning and accepts the last iterate.
	Continue FailurePolicy = iota
	// Abort returns ErrSolverNonConvergence and leaves the state untouched.
	Abort
)

func (p FailurePolicy) String() string {
	switch p {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("FailurePolicy(%d)", int(p))
}

func ParsePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "continue", "warn":
		return Continue, nil
	case "abort", "fail":
		return Abort, nil
	}
	return Continue, fmt.Errorf("%w: unknown failure policy %q", dynamo.ErrConfiguration, s)
}

type Config struct {
	Solver nlsolve.Config
	Policy FailurePolicy

	// Periodicity holds one period per coordinate; zero entries are not
	// wrapped. Nil disables wrapping.
	Periodicity []float64

	// Truncation clips each Wiener increment component to [-A, A] when
	// positive.
	Truncation float64
	// Wiener overrides the increment source of stochastic integrators.
	// When nil a Gaussian source seeded with Seed is used.
	Wiener WienerSource
	Seed   uint64

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Solver: nlsolve.DefaultConfig(),
		Policy: Continue,
	}
}

func (c Config) validate(dim int) error {
	if c.Policy != Continue && c.Policy != Abort {
		return fmt.Errorf("%w: unknown failure policy %d", dynamo.ErrConfiguration, c.Policy)
	}
	if c.Periodicity != nil && len(c.Periodicity) != dim {
		return dynamo.Mismatch("periodicity", len(c.Periodicity), dim)
	}
	for k, p := range c.Periodicity {
		if p < 0 {
			return fmt.Errorf("%w: negative period %g for coordinate %d", dynamo.ErrConfiguration, p, k)
		}
	}
	if c.Truncation < 0 {
		return fmt.Errorf("%w: negative truncation bound %g", dynamo.ErrConfiguration, c.Truncation)
	}
	return c.Solver.Validate()
}

func (c Config) logger(name string) *slog.Logger {
	l := c.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("component", name))
}
