package integrators

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/tableau"
	"gonum.org/v1/gonum/mat"
)

// SIRK is a stochastic implicit Runge-Kutta integrator for Stratonovich
// SDEs dq = a(t, q) dt + B(t, q) ∘ dW. The unknowns are the stage
// increments Y_i at i*D+k with Q_i = q + Y_i.
type SIRK struct {
	*stepper
	eq     dynamo.SDE
	tab    *tableau.Stochastic
	cache  *sirkCache
	wiener WienerSource
	noise  int

	qNew, vNew []float64
	b0         *mat.Dense
	bw         *mat.VecDense
}

func NewSIRK(eq dynamo.SDE, tab *tableau.Stochastic, t0 float64, q0 []float64, dt float64, cfg Config) (*SIRK, error) {
	d, m := eq.Dim(), eq.NoiseDim()
	if m < 1 {
		return nil, fmt.Errorf("%w: SDE noise dimension must be positive, got %d", dynamo.ErrConfiguration, m)
	}
	st, err := newStepper("SIRK "+tab.Name, d, d*tab.S, t0, dt, q0, cfg)
	if err != nil {
		return nil, err
	}
	w := cfg.Wiener
	if w == nil {
		w = NewGaussianWiener(cfg.Seed)
	}
	s := &SIRK{
		stepper: st,
		eq:      eq,
		tab:     tab,
		cache:   newSIRKCache(tab.S, d, m),
		wiener:  w,
		noise:   m,
		qNew:    make([]float64, d),
		vNew:    make([]float64, d),
		b0:      mat.NewDense(d, m, nil),
		bw:      mat.NewVecDense(d, nil),
	}
	st.params.DW = make([]float64, m)
	eq.Drift(t0, st.params.Q, s.vNew)
	st.params.initHistory(s.vNew)
	return s, nil
}

func (s *SIRK) Size() int                    { return s.dim * s.tab.S }
func (s *SIRK) NoiseDim() int                { return s.noise }
func (s *SIRK) Tableau() *tableau.Stochastic { return s.tab }
func (s *SIRK) Snapshot() dynamo.Snapshot    { return s.snapshot() }
func (s *SIRK) Step() (Report, error)        { return s.advance(s) }

// Increment returns the (truncated) Wiener increment of the last step.
func (s *SIRK) Increment() []float64 { return s.params.DW }

// Residual evaluates b_i = Y_i - Δt Σ_j A_ij a(Q_j) - Σ_j Bd_ij B(Q_j) ΔW.
// ΔW is read from Parameters; it is drawn and truncated before the solve.
func (s *SIRK) Residual(x, b []float64) error {
	if err := checkSize(x, b, s.Size()); err != nil {
		return err
	}
	p, c, d, t := s.params, s.cache, s.dim, s.tab
	unpackStrided(x, 0, d, c.Y)
	s.loadNoise()

	for i := 0; i < t.S; i++ {
		for k := 0; k < d; k++ {
			c.Q[i][k] = p.Q[k] + c.Y[i][k]
		}
		ti := p.T + t.C[i]*p.Dt
		s.eq.Drift(ti, c.Q[i], c.V[i])
		s.eq.Diffusion(ti, c.Q[i], c.B[i])
		s.contract(c.B[i], c.BW[i])
	}

	for i := 0; i < t.S; i++ {
		for k := 0; k < d; k++ {
			drift, diff := 0.0, 0.0
			for j := 0; j < t.S; j++ {
				drift += t.A.At(i, j) * c.V[j][k]
				diff += t.Bd.At(i, j) * c.BW[j][k]
			}
			b[i*d+k] = c.Y[i][k] - p.Dt*drift - diff
		}
	}
	return nil
}

func (s *SIRK) loadNoise() {
	for m, w := range s.params.DW {
		s.cache.dw.SetVec(m, w)
	}
}

// contract writes B·ΔW into out.
func (s *SIRK) contract(b *mat.Dense, out []float64) {
	s.bw.MulVec(b, s.cache.dw)
	copy(out, s.bw.RawVector().Data)
}

// prepare draws and truncates this step's increment. It runs exactly once
// per step, never inside the assembler.
func (s *SIRK) prepare() {
	s.wiener.Increment(s.params.Dt, s.params.DW)
	Truncate(s.params.DW, s.cfg.Truncation)
}

// guess takes one explicit Euler-Maruyama stage scaled by c_i.
func (s *SIRK) guess(x []float64) {
	p, d := s.params, s.dim
	s.loadNoise()
	s.eq.Drift(p.T, p.Q, s.vNew)
	s.eq.Diffusion(p.T, p.Q, s.b0)
	s.contract(s.b0, s.qNew)
	for i := 0; i < s.tab.S; i++ {
		ci := s.tab.C[i]
		for k := 0; k < d; k++ {
			x[i*d+k] = ci * (p.Dt*s.vNew[k] + s.qNew[k])
		}
	}
}

func (s *SIRK) update(x []float64) error {
	if err := s.Residual(x, s.b); err != nil {
		return err
	}
	p, c, d, t := s.params, s.cache, s.dim, s.tab
	for k := 0; k < d; k++ {
		drift, diff := 0.0, 0.0
		for i := 0; i < t.S; i++ {
			drift += t.Alpha[i] * c.V[i][k]
			diff += t.Beta[i] * c.BW[i][k]
		}
		s.qNew[k] = p.Q[k] + p.Dt*drift + diff
	}
	if err := s.accept(s.qNew, s.vNew); err != nil {
		return err
	}
	s.eq.Drift(p.T, p.Q, p.hist.v)
	return nil
}
