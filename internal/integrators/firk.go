package integrators

import (
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/tableau"
	"gonum.org/v1/gonum/floats"
)

// FIRK is a fully implicit Runge-Kutta integrator for q̇ = v(t, q). The
// unknowns are the stage velocities V_i, stored at i*D+k.
type FIRK struct {
	*stepper
	eq    dynamo.ODE
	tab   *tableau.Tableau
	cache *rkCache

	qNew, vNew []float64
}

func NewFIRK(eq dynamo.ODE, tab *tableau.Tableau, t0 float64, q0 []float64, dt float64, cfg Config) (*FIRK, error) {
	d := eq.Dim()
	st, err := newStepper("FIRK "+tab.Name, d, d*tab.S, t0, dt, q0, cfg)
	if err != nil {
		return nil, err
	}
	f := &FIRK{
		stepper: st,
		eq:      eq,
		tab:     tab,
		cache:   newRKCache(tab.S, d),
		qNew:    make([]float64, d),
		vNew:    make([]float64, d),
	}
	eq.VectorField(t0, st.params.Q, f.vNew)
	st.params.initHistory(f.vNew)
	return f, nil
}

func (f *FIRK) Size() int                 { return f.dim * f.tab.S }
func (f *FIRK) Tableau() *tableau.Tableau { return f.tab }
func (f *FIRK) Snapshot() dynamo.Snapshot { return f.snapshot() }
func (f *FIRK) Step() (Report, error)     { return f.advance(f) }

// Residual evaluates b_i = V_i - v(t + c_i Δt, q + Δt Σ_j a_ij V_j).
func (f *FIRK) Residual(x, b []float64) error {
	if err := checkSize(x, b, f.Size()); err != nil {
		return err
	}
	p, c, d := f.params, f.cache, f.dim
	s := f.tab.S
	unpackStrided(x, 0, d, c.V)

	for i := 0; i < s; i++ {
		for k := 0; k < d; k++ {
			sum := 0.0
			for j := 0; j < s; j++ {
				sum += f.tab.A.At(i, j) * c.V[j][k]
			}
			c.Q[i][k] = p.Q[k] + p.Dt*sum
		}
	}

	for i := 0; i < s; i++ {
		bi := b[i*d : (i+1)*d]
		f.eq.VectorField(p.T+f.tab.C[i]*p.Dt, c.Q[i], bi)
		floats.SubTo(bi, c.V[i], bi)
	}
	return nil
}

func (f *FIRK) prepare() {}

func (f *FIRK) guess(x []float64) {
	for i := 0; i < f.tab.S; i++ {
		f.params.predict(f.tab.C[i], nil, x[i*f.dim:(i+1)*f.dim])
	}
}

func (f *FIRK) update(x []float64) error {
	p, d := f.params, f.dim
	copy(f.qNew, p.Q)
	for i := 0; i < f.tab.S; i++ {
		floats.AddScaled(f.qNew, p.Dt*f.tab.B[i], x[i*d:(i+1)*d])
	}
	if err := f.accept(f.qNew, f.vNew); err != nil {
		return err
	}
	f.eq.VectorField(p.T, p.Q, p.hist.v)
	return nil
}
