package integrators

import (
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/tableau"
)

// PARK is a projected additive Runge-Kutta integrator for partitioned
// differential-algebraic equations.
//
// Unknown layout: internal stage i holds (Y_i, Z_i) at 2D·i, projective
// stage j holds (Ỹ_j, Z̃_j, Λ_j) at 2D·S + 3D·j. Stage values are offsets
// from the current state, Q_i = q + Y_i and P_i = p + Z_i.
type PARK struct {
	*stepper
	eq    dynamo.PDAE
	tab   *tableau.Additive
	cache *parkCache

	qNew, pNew, vNew []float64
	u, g             []float64
}

func NewPARK(eq dynamo.PDAE, tab *tableau.Additive, t0 float64, q0, p0, lambda0 []float64, dt float64, cfg Config) (*PARK, error) {
	d := eq.Dim()
	if len(p0) != d {
		return nil, dynamo.Mismatch("initial p", len(p0), d)
	}
	if lambda0 == nil {
		lambda0 = make([]float64, d)
	}
	if len(lambda0) != d {
		return nil, dynamo.Mismatch("initial λ", len(lambda0), d)
	}
	if !dynamo.State(p0).IsValid() || !dynamo.State(lambda0).IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	st, err := newStepper("PARK "+tab.Name, d, parkSize(d, tab.S, tab.R), t0, dt, q0, cfg)
	if err != nil {
		return nil, err
	}
	k := &PARK{
		stepper: st,
		eq:      eq,
		tab:     tab,
		cache:   newPARKCache(tab.S, tab.R, d),
		qNew:    make([]float64, d),
		pNew:    make([]float64, d),
		vNew:    make([]float64, d),
		u:       make([]float64, d),
		g:       make([]float64, d),
	}
	p := st.params
	p.P = append([]float64(nil), p0...)
	p.Lambda = append([]float64(nil), lambda0...)
	k.velocity(t0, p.Q, p.P, p.Lambda, k.vNew)
	p.initHistory(k.vNew)
	return k, nil
}

func parkSize(d, s, r int) int { return 2*d*s + 3*d*r }

func (k *PARK) internalOffset(i int) int   { return 2 * k.dim * i }
func (k *PARK) projectiveOffset(j int) int { return 2*k.dim*k.tab.S + 3*k.dim*j }

func (k *PARK) Size() int                  { return parkSize(k.dim, k.tab.S, k.tab.R) }
func (k *PARK) Tableau() *tableau.Additive { return k.tab }
func (k *PARK) Snapshot() dynamo.Snapshot  { return k.snapshot() }
func (k *PARK) Step() (Report, error)      { return k.advance(k) }

// velocity writes v + u at (q, p, λ).
func (k *PARK) velocity(t float64, q, p, lambda, out []float64) {
	k.eq.Velocity(t, q, p, out)
	k.eq.Projection(t, q, p, lambda, k.u, k.g)
	for i := range out {
		out[i] += k.u[i]
	}
}

func (k *PARK) unpack(x []float64) {
	c, d := k.cache, k.dim
	unpackStrided(x, k.internalOffset(0), 2*d, c.Y)
	unpackStrided(x, k.internalOffset(0)+d, 2*d, c.Z)
	unpackStrided(x, k.projectiveOffset(0), 3*d, c.Yt)
	unpackStrided(x, k.projectiveOffset(0)+d, 3*d, c.Zt)
	unpackStrided(x, k.projectiveOffset(0)+2*d, 3*d, c.Lt)
}

// Residual evaluates the internal stage equations, the projective stage
// equations and the constraint φ(Q̃_j, P̃_j) at every projective stage.
func (k *PARK) Residual(x, b []float64) error {
	if err := checkSize(x, b, k.Size()); err != nil {
		return err
	}
	p, c, d, t := k.params, k.cache, k.dim, k.tab
	k.unpack(x)

	for i := 0; i < t.S; i++ {
		for m := 0; m < d; m++ {
			c.Q[i][m] = p.Q[m] + c.Y[i][m]
			c.P[i][m] = p.P[m] + c.Z[i][m]
		}
		ti := p.T + t.C[i]*p.Dt
		k.eq.Velocity(ti, c.Q[i], c.P[i], c.V[i])
		k.eq.Force(ti, c.Q[i], c.P[i], c.F[i])
	}
	for j := 0; j < t.R; j++ {
		for m := 0; m < d; m++ {
			c.Qt[j][m] = p.Q[m] + c.Yt[j][m]
			c.Pt[j][m] = p.P[m] + c.Zt[j][m]
		}
		tj := p.T + t.CTilde[j]*p.Dt
		k.eq.Projection(tj, c.Qt[j], c.Pt[j], c.Lt[j], c.U[j], c.G[j])
		k.eq.Constraint(tj, c.Qt[j], c.Pt[j], c.Phi[j])
	}

	for i := 0; i < t.S; i++ {
		off := k.internalOffset(i)
		for m := 0; m < d; m++ {
			y, z := 0.0, 0.0
			for l := 0; l < t.S; l++ {
				y += t.Aq.At(i, l) * c.V[l][m]
				z += t.Ap.At(i, l) * c.F[l][m]
			}
			for l := 0; l < t.R; l++ {
				y += t.AqHat.At(i, l) * c.U[l][m]
				z += t.ApHat.At(i, l) * c.G[l][m]
			}
			b[off+m] = c.Y[i][m] - p.Dt*y
			b[off+d+m] = c.Z[i][m] - p.Dt*z
		}
	}
	for j := 0; j < t.R; j++ {
		off := k.projectiveOffset(j)
		for m := 0; m < d; m++ {
			y, z := 0.0, 0.0
			for l := 0; l < t.S; l++ {
				y += t.AqTilde.At(j, l) * c.V[l][m]
				z += t.ApTilde.At(j, l) * c.F[l][m]
			}
			for l := 0; l < t.R; l++ {
				y += t.AqCheck.At(j, l) * c.U[l][m]
				z += t.ApCheck.At(j, l) * c.G[l][m]
			}
			b[off+m] = c.Yt[j][m] - p.Dt*y
			b[off+d+m] = c.Zt[j][m] - p.Dt*z
			b[off+2*d+m] = c.Phi[j][m]
		}
	}
	return nil
}

func (k *PARK) prepare() {}

// guess extrapolates the stage positions from the history, moves p with
// one explicit Euler substep and keeps the previous multiplier.
func (k *PARK) guess(x []float64) {
	p, c, d, t := k.params, k.cache, k.dim, k.tab
	k.eq.Force(p.T, p.Q, p.P, k.pNew)
	k.eq.Projection(p.T, p.Q, p.P, p.Lambda, k.u, k.g)

	for i := 0; i < t.S; i++ {
		p.predict(t.C[i], c.Q[i], nil)
		for m := 0; m < d; m++ {
			c.Y[i][m] = c.Q[i][m] - p.Q[m]
			c.Z[i][m] = t.C[i] * p.Dt * (k.pNew[m] + k.g[m])
		}
	}
	for j := 0; j < t.R; j++ {
		p.predict(t.CTilde[j], c.Qt[j], nil)
		for m := 0; m < d; m++ {
			c.Yt[j][m] = c.Qt[j][m] - p.Q[m]
			c.Zt[j][m] = t.CTilde[j] * p.Dt * (k.pNew[m] + k.g[m])
			c.Lt[j][m] = p.Lambda[m]
		}
	}
	packStrided(c.Y, k.internalOffset(0), 2*d, x)
	packStrided(c.Z, k.internalOffset(0)+d, 2*d, x)
	packStrided(c.Yt, k.projectiveOffset(0), 3*d, x)
	packStrided(c.Zt, k.projectiveOffset(0)+d, 3*d, x)
	packStrided(c.Lt, k.projectiveOffset(0)+2*d, 3*d, x)
}

func (k *PARK) update(x []float64) error {
	if err := k.Residual(x, k.b); err != nil {
		return err
	}
	p, c, d, t := k.params, k.cache, k.dim, k.tab
	for m := 0; m < d; m++ {
		sq, sp := 0.0, 0.0
		for i := 0; i < t.S; i++ {
			sq += t.Bq[i] * c.V[i][m]
			sp += t.Bp[i] * c.F[i][m]
		}
		for j := 0; j < t.R; j++ {
			sq += t.BetaQ[j] * c.U[j][m]
			sp += t.BetaP[j] * c.G[j][m]
		}
		k.qNew[m] = p.Q[m] + p.Dt*sq
		k.pNew[m] = p.P[m] + p.Dt*sp
	}
	lambda := c.Lt[t.R-1]
	if !dynamo.State(k.pNew).IsValid() || !dynamo.State(lambda).IsValid() {
		return dynamo.ErrNumericalDivergence
	}
	tNew := p.T + p.Dt
	k.velocity(tNew, k.qNew, k.pNew, lambda, k.vNew)
	if err := k.accept(k.qNew, k.vNew); err != nil {
		return err
	}
	copy(p.P, k.pNew)
	copy(p.Lambda, lambda)
	return nil
}
