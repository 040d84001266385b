package integrators

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/nlsolve"
	"github.com/san-kum/geomint/internal/tableau"
)

// Explicit runs an explicit Runge-Kutta tableau on an ODE. It needs no
// solver and serves as a baseline for the implicit schemes.
type Explicit struct {
	name string
	eq   dynamo.ODE
	tab  *tableau.Tableau
	cfg  Config
	log  *slog.Logger

	t, dt float64
	q     dynamo.State
	n     int

	k       []dynamo.State
	scratch dynamo.State
	shift   []float64
}

func NewExplicit(eq dynamo.ODE, tab *tableau.Tableau, t0 float64, q0 []float64, dt float64, cfg Config) (*Explicit, error) {
	if !tab.Explicit() {
		return nil, fmt.Errorf("%w: tableau %q is not explicit", dynamo.ErrConfiguration, tab.Name)
	}
	d := eq.Dim()
	if len(q0) != d {
		return nil, dynamo.Mismatch("initial q", len(q0), d)
	}
	if err := cfg.validate(d); err != nil {
		return nil, err
	}
	e := &Explicit{
		name: tab.Name,
		eq:   eq,
		tab:  tab,
		cfg:  cfg,
		log:  cfg.logger(tab.Name),
		t:    t0,
		dt:   dt,
		q:    dynamo.State(q0).Clone(),
	}
	e.ensureScratch(d)
	return e, nil
}

// NewEuler is the explicit Euler method.
func NewEuler(eq dynamo.ODE, t0 float64, q0 []float64, dt float64, cfg Config) (*Explicit, error) {
	return NewExplicit(eq, tableau.ExplicitEuler(), t0, q0, dt, cfg)
}

// NewRK4 is the classical fourth order Runge-Kutta method.
func NewRK4(eq dynamo.ODE, t0 float64, q0 []float64, dt float64, cfg Config) (*Explicit, error) {
	return NewExplicit(eq, tableau.ClassicalRK4(), t0, q0, dt, cfg)
}

func (e *Explicit) ensureScratch(n int) {
	if len(e.scratch) != n || len(e.k) != e.tab.S {
		e.k = make([]dynamo.State, e.tab.S)
		for i := range e.k {
			e.k[i] = make(dynamo.State, n)
		}
		e.scratch = make(dynamo.State, n)
		e.shift = make([]float64, n)
	}
}

func (e *Explicit) Name() string  { return e.name }
func (e *Explicit) Dim() int      { return len(e.q) }
func (e *Explicit) Time() float64 { return e.t }
func (e *Explicit) Steps() int    { return e.n }

func (e *Explicit) Snapshot() dynamo.Snapshot {
	return dynamo.Snapshot{T: e.t, Q: e.q.Clone()}
}

func (e *Explicit) Step() (Report, error) {
	n := len(e.q)
	rep := Report{Step: e.n + 1, Time: e.t, Status: nlsolve.Converged}

	for i := 0; i < e.tab.S; i++ {
		for k := 0; k < n; k++ {
			sum := 0.0
			for j := 0; j < i; j++ {
				sum += e.tab.A.At(i, j) * e.k[j][k]
			}
			e.scratch[k] = e.q[k] + e.dt*sum
		}
		e.eq.VectorField(e.t+e.tab.C[i]*e.dt, e.scratch, e.k[i])
	}

	for k := 0; k < n; k++ {
		sum := 0.0
		for i := 0; i < e.tab.S; i++ {
			sum += e.tab.B[i] * e.k[i][k]
		}
		e.scratch[k] = e.q[k] + e.dt*sum
	}
	if !e.scratch.IsValid() {
		e.log.Error("state diverged", slog.Int("step", rep.Step), slog.Float64("t", e.t))
		return rep, &dynamo.StepError{Integrator: e.name, Step: rep.Step, Time: e.t, Wrapped: dynamo.ErrNumericalDivergence}
	}
	Wrap(e.scratch, e.cfg.Periodicity, e.shift)
	copy(e.q, e.scratch)
	e.t += e.dt
	e.n++
	return rep, nil
}

// Verlet is velocity Verlet for second order systems written as
// q = (x, ẋ) with the accelerations in the second half of the field.
type Verlet struct {
	eq    dynamo.ODE
	cfg   Config
	t, dt float64
	q     dynamo.State
	n     int

	dx, dxNew, scratch dynamo.State
	shift              []float64
}

func NewVerlet(eq dynamo.ODE, t0 float64, q0 []float64, dt float64, cfg Config) (*Verlet, error) {
	d := eq.Dim()
	if d%2 != 0 {
		return nil, fmt.Errorf("%w: verlet needs an even dimension, got %d", dynamo.ErrConfiguration, d)
	}
	if len(q0) != d {
		return nil, dynamo.Mismatch("initial q", len(q0), d)
	}
	if err := cfg.validate(d); err != nil {
		return nil, err
	}
	return &Verlet{
		eq:      eq,
		cfg:     cfg,
		t:       t0,
		dt:      dt,
		q:       dynamo.State(q0).Clone(),
		dx:      make(dynamo.State, d),
		dxNew:   make(dynamo.State, d),
		scratch: make(dynamo.State, d),
		shift:   make([]float64, d),
	}, nil
}

func (v *Verlet) Name() string  { return "velocity Verlet" }
func (v *Verlet) Dim() int      { return len(v.q) }
func (v *Verlet) Time() float64 { return v.t }
func (v *Verlet) Steps() int    { return v.n }

func (v *Verlet) Snapshot() dynamo.Snapshot {
	return dynamo.Snapshot{T: v.t, Q: v.q.Clone()}
}

func (v *Verlet) Step() (Report, error) {
	n := len(v.q)
	half := n / 2
	rep := Report{Step: v.n + 1, Time: v.t, Status: nlsolve.Converged}

	v.eq.VectorField(v.t, v.q, v.dx)
	dt2 := v.dt * v.dt
	for i := 0; i < half; i++ {
		v.scratch[i] = v.q[i] + v.q[half+i]*v.dt + 0.5*v.dx[half+i]*dt2
		v.scratch[half+i] = v.q[half+i]
	}

	v.eq.VectorField(v.t+v.dt, v.scratch, v.dxNew)
	halfDt := 0.5 * v.dt
	for i := 0; i < half; i++ {
		v.scratch[half+i] = v.q[half+i] + (v.dx[half+i]+v.dxNew[half+i])*halfDt
	}

	if !v.scratch.IsValid() {
		return rep, &dynamo.StepError{Integrator: v.Name(), Step: rep.Step, Time: v.t, Wrapped: dynamo.ErrNumericalDivergence}
	}
	Wrap(v.scratch, v.cfg.Periodicity, v.shift)
	copy(v.q, v.scratch)
	v.t += v.dt
	v.n++
	return rep, nil
}
