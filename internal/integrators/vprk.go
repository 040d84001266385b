package integrators

import (
	"fmt"

	"github.com/san-kum/geomint/internal/basis"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/tableau"
)

// VPRK is a variational partitioned Runge-Kutta integrator for implicit
// equations p = ϑ(q, v), ṗ = f(q, v). The unknowns are the stage velocities
// V_i at i*D+k; the q half of the tableau builds the stage positions, the p
// half integrates the forces.
type VPRK struct {
	*stepper
	eq    dynamo.IODE
	tab   *tableau.Partitioned
	cache *vprkCache

	// ends[i] = ℓ_i(1) on the stage nodes, used to extrapolate a velocity
	// for the predictor when the equation cannot supply one.
	ends []float64

	qNew, pNew, vNew []float64
}

func NewVPRK(eq dynamo.IODE, tab *tableau.Partitioned, t0 float64, q0, p0 []float64, dt float64, cfg Config) (*VPRK, error) {
	d := eq.Dim()
	if len(p0) != d {
		return nil, dynamo.Mismatch("initial p", len(p0), d)
	}
	if !dynamo.State(p0).IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	s := tab.S()
	st, err := newStepper(tab.Name, d, d*s, t0, dt, q0, cfg)
	if err != nil {
		return nil, err
	}
	v := &VPRK{
		stepper: st,
		eq:      eq,
		tab:     tab,
		cache:   newVPRKCache(s, d),
		ends:    make([]float64, s),
		qNew:    make([]float64, d),
		pNew:    make([]float64, d),
		vNew:    make([]float64, d),
	}
	l, err := basis.NewLagrange(tab.Q.C)
	if err != nil {
		return nil, fmt.Errorf("%s: stage nodes: %w", tab.Name, err)
	}
	for i := range v.ends {
		v.ends[i] = l.Evaluate(i, 1)
	}

	st.params.P = append([]float64(nil), p0...)
	if g, ok := eq.(dynamo.VelocityGuess); ok {
		g.InitialVelocity(t0, st.params.Q, st.params.P, v.vNew)
	}
	st.params.initHistory(v.vNew)
	return v, nil
}

func (v *VPRK) Size() int                     { return v.dim * v.tab.S() }
func (v *VPRK) Tableau() *tableau.Partitioned { return v.tab }
func (v *VPRK) Snapshot() dynamo.Snapshot     { return v.snapshot() }
func (v *VPRK) Step() (Report, error)         { return v.advance(v) }

// Residual evaluates b_i = ϑ(Q_i, V_i) - p - Δt Σ_j ā_ij f(Q_j, V_j) with
// Q_i = q + Δt Σ_j a_ij V_j.
func (v *VPRK) Residual(x, b []float64) error {
	if err := checkSize(x, b, v.Size()); err != nil {
		return err
	}
	p, c, d := v.params, v.cache, v.dim
	s := v.tab.S()
	a, abar := v.tab.Q.A, v.tab.P.A
	unpackStrided(x, 0, d, c.V)

	for i := 0; i < s; i++ {
		for k := 0; k < d; k++ {
			sum := 0.0
			for j := 0; j < s; j++ {
				sum += a.At(i, j) * c.V[j][k]
			}
			c.Q[i][k] = p.Q[k] + p.Dt*sum
		}
	}

	for i := 0; i < s; i++ {
		ti := p.T + v.tab.Q.C[i]*p.Dt
		v.eq.OneForm(ti, c.Q[i], c.V[i], c.P[i])
		v.eq.Force(ti, c.Q[i], c.V[i], c.F[i])
	}

	for i := 0; i < s; i++ {
		for k := 0; k < d; k++ {
			sum := 0.0
			for j := 0; j < s; j++ {
				sum += abar.At(i, j) * c.F[j][k]
			}
			b[i*d+k] = c.P[i][k] - p.P[k] - p.Dt*sum
		}
	}
	return nil
}

func (v *VPRK) prepare() {}

func (v *VPRK) guess(x []float64) {
	for i := 0; i < v.tab.S(); i++ {
		v.params.predict(v.tab.Q.C[i], nil, x[i*v.dim:(i+1)*v.dim])
	}
}

func (v *VPRK) update(x []float64) error {
	if err := v.Residual(x, v.b); err != nil {
		return err
	}
	p, c, d := v.params, v.cache, v.dim
	s := v.tab.S()
	for k := 0; k < d; k++ {
		sq, sp, sv := 0.0, 0.0, 0.0
		for i := 0; i < s; i++ {
			sq += v.tab.Q.B[i] * c.V[i][k]
			sp += v.tab.P.B[i] * c.F[i][k]
			sv += v.ends[i] * c.V[i][k]
		}
		v.qNew[k] = p.Q[k] + p.Dt*sq
		v.pNew[k] = p.P[k] + p.Dt*sp
		v.vNew[k] = sv
	}
	if !dynamo.State(v.pNew).IsValid() {
		return dynamo.ErrNumericalDivergence
	}
	if err := v.accept(v.qNew, v.vNew); err != nil {
		return err
	}
	copy(p.P, v.pNew)
	if g, ok := v.eq.(dynamo.VelocityGuess); ok {
		g.InitialVelocity(p.T, p.Q, p.P, p.hist.v)
	}
	return nil
}
