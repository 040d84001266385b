// Package nlsolve drives Newton and simplified Newton iterations on the flat
// stage systems built by the implicit integrators.
//
// The Jacobian is approximated by finite differences and factorized with a
// dense LU decomposition. A Solver owns all of its workspace and is meant to
// be reused for every step of one integrator; it is not safe for concurrent
// use.
package nlsolve

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Function evaluates the residual fx = F(x). It returns an error only for
// layout problems; non-finite values are left in fx for the solver to see.
type Function func(x, fx []float64) error

type JacobianStrategy int

const (
	Forward JacobianStrategy = iota
	Central
)

func (j JacobianStrategy) String() string {
	switch j {
	case Forward:
		return "forward"
	case Central:
		return "central"
	}
	return fmt.Sprintf("JacobianStrategy(%d)", int(j))
}

// ParseJacobian maps "forward" and "central" to a strategy.
func ParseJacobian(s string) (JacobianStrategy, error) {
	switch s {
	case "", "forward":
		return Forward, nil
	case "central":
		return Central, nil
	}
	return Forward, fmt.Errorf("%w: unknown jacobian strategy %q", dynamo.ErrConfiguration, s)
}

type Config struct {
	AbsTol  float64
	RelTol  float64
	MaxIter int

	Jacobian JacobianStrategy
	// JacobianUpdate is the number of iterations between Jacobian
	// refreshes. 1 gives the full Newton method.
	JacobianUpdate int
	// Step overrides the finite difference step; zero keeps the default of
	// the chosen formula.
	Step float64
}

func DefaultConfig() Config {
	return Config{
		AbsTol:         1e-12,
		RelTol:         0,
		MaxIter:        25,
		Jacobian:       Forward,
		JacobianUpdate: 1,
	}
}

func (c Config) Validate() error {
	if c.AbsTol < 0 || c.RelTol < 0 {
		return fmt.Errorf("%w: solver tolerances must be non-negative", dynamo.ErrConfiguration)
	}
	if c.AbsTol == 0 && c.RelTol == 0 {
		return fmt.Errorf("%w: solver needs a positive absolute or relative tolerance", dynamo.ErrConfiguration)
	}
	if c.MaxIter < 0 {
		return fmt.Errorf("%w: max_iter must be non-negative, got %d", dynamo.ErrConfiguration, c.MaxIter)
	}
	if c.JacobianUpdate < 1 {
		return fmt.Errorf("%w: jacobian_update must be at least 1, got %d", dynamo.ErrConfiguration, c.JacobianUpdate)
	}
	if c.Jacobian != Forward && c.Jacobian != Central {
		return fmt.Errorf("%w: unknown jacobian strategy %d", dynamo.ErrConfiguration, c.Jacobian)
	}
	if c.Step < 0 {
		return fmt.Errorf("%w: finite difference step must be non-negative", dynamo.ErrConfiguration)
	}
	return nil
}

type Status int

const (
	Converged Status = iota
	IterationLimit
	Diverged
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case IterationLimit:
		return "iteration limit"
	case Diverged:
		return "diverged"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Result struct {
	Status     Status
	Iterations int
	// Residual is ‖F(x)‖∞ at the returned iterate.
	Residual float64
	// Tolerance is the ε the residual was tested against.
	Tolerance float64

	ResidualEvals int
	JacobianEvals int
	// IllConditioned is set when some Newton step was solved with a
	// Jacobian whose condition number exceeds mat.ConditionTolerance.
	IllConditioned bool
}

func (r Result) Converged() bool { return r.Status == Converged }

type Solver struct {
	n   int
	cfg Config

	jac  *mat.Dense
	lu   mat.LU
	r    []float64
	dx   *mat.VecDense
	rhs  *mat.VecDense
	jset fd.JacobianSettings
}

// New allocates a solver for systems of size n.
func New(n int, cfg Config) (*Solver, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: solver size must be positive, got %d", dynamo.ErrConfiguration, n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		n:   n,
		cfg: cfg,
		jac: mat.NewDense(n, n, nil),
		r:   make([]float64, n),
		dx:  mat.NewVecDense(n, nil),
		rhs: mat.NewVecDense(n, nil),
	}
	switch cfg.Jacobian {
	case Central:
		s.jset.Formula = fd.Central
	default:
		s.jset.Formula = fd.Forward
	}
	s.jset.Step = cfg.Step
	return s, nil
}

func (s *Solver) Size() int      { return s.n }
func (s *Solver) Config() Config { return s.cfg }

// Solve iterates from the guess in x and leaves the last iterate in x.
//
// The returned error is non-nil only when f reports a layout error or x has
// the wrong length; convergence failures are reported through Result.Status.
func (s *Solver) Solve(x []float64, f Function) (Result, error) {
	var res Result
	if len(x) != s.n {
		return res, dynamo.Mismatch("solver unknowns", len(x), s.n)
	}

	var ferr error
	eval := func(x, fx []float64) {
		res.ResidualEvals++
		if err := f(x, fx); err != nil && ferr == nil {
			ferr = err
		}
	}

	eval(x, s.r)
	if ferr != nil {
		return res, ferr
	}
	if !finite(s.r) {
		res.Residual = math.NaN()
		res.Status = Diverged
		return res, nil
	}
	norm := infNorm(s.r)
	res.Residual = norm
	res.Tolerance = math.Max(s.cfg.AbsTol, s.cfg.RelTol*norm)

	jacobian := func(y, xx []float64) { eval(xx, y) }

	for {
		if norm <= res.Tolerance {
			res.Status = Converged
			return res, nil
		}
		if res.Iterations >= s.cfg.MaxIter {
			res.Status = IterationLimit
			return res, nil
		}

		if res.Iterations%s.cfg.JacobianUpdate == 0 {
			if s.cfg.Jacobian == Forward {
				s.jset.OriginValue = s.r
			} else {
				s.jset.OriginValue = nil
			}
			fd.Jacobian(s.jac, jacobian, x, &s.jset)
			res.JacobianEvals++
			if ferr != nil {
				return res, ferr
			}
			s.lu.Factorize(s.jac)
		}

		for i, v := range s.r {
			s.rhs.SetVec(i, -v)
		}
		if err := s.lu.SolveVecTo(s.dx, false, s.rhs); err != nil {
			// A finite condition estimate still yields a usable step.
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) {
				res.Status = Diverged
				return res, nil
			}
			res.IllConditioned = true
		}
		dx := s.dx.RawVector().Data
		if !finite(dx) {
			res.Status = Diverged
			return res, nil
		}

		floats.Add(x, dx)
		res.Iterations++

		eval(x, s.r)
		if ferr != nil {
			return res, ferr
		}
		norm = infNorm(s.r)
		res.Residual = norm
		if !finite(s.r) {
			res.Status = Diverged
			return res, nil
		}
	}
}

func infNorm(v []float64) float64 {
	return floats.Norm(v, math.Inf(1))
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
