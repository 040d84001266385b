package integrators

import (
	"fmt"

	"github.com/san-kum/geomint/internal/basis"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/quadrature"
	"gonum.org/v1/gonum/mat"
)

// Equation consumed by DGVI: an implicit ODE whose one-form Jacobian can be
// contracted with a jump.
type ProjectedIODE interface {
	dynamo.IODE
	dynamo.Projector
}

// DGVI is a discontinuous Galerkin variational integrator. On each element
// the trajectory is Σ_i X_i φ_i(τ); the unknowns are the S coefficients X_i
// at i*D+k followed by the boundary value q_{n+1} at S*D+k. Jumps between
// elements enter through numerical fluxes at ϕ± = jump averages, with the
// jump itself λ± contracted by the projection.
type DGVI struct {
	*stepper
	eq    ProjectedIODE
	basis basis.Basis
	quad  quadrature.Rule
	cache *dgviCache

	s, r    int
	c, w    []float64
	m, a    *mat.Dense // R×S: φ_i(c_j), φ_i'(c_j)
	rMinus  []float64  // φ_i(1)
	rPlus   []float64  // φ_i(0)
	dEnd    []float64  // φ_i'(1)
	nodes   []float64  // basis nodes when the basis is nodal
	qNew    []float64
	pNew    []float64
	vNew    []float64
}

type nodal interface {
	Nodes() []float64
}

func NewDGVI(eq dynamo.IODE, b basis.Basis, q quadrature.Rule, t0 float64, q0, p0 []float64, dt float64, cfg Config) (*DGVI, error) {
	peq, ok := eq.(ProjectedIODE)
	if !ok {
		return nil, fmt.Errorf("%w: DGVI needs an equation with a projection", dynamo.ErrConfiguration)
	}
	d := eq.Dim()
	if len(p0) != d {
		return nil, dynamo.Mismatch("initial p", len(p0), d)
	}
	if !dynamo.State(p0).IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	s, c, w := b.Len(), q.Nodes(), q.Weights()
	r := len(c)
	if s < 1 || r < 1 || len(w) != r {
		return nil, fmt.Errorf("%w: DGVI needs a non-empty basis and quadrature (S=%d, R=%d, weights=%d)",
			dynamo.ErrConfiguration, s, r, len(w))
	}

	name := fmt.Sprintf("DGVI(S=%d,R=%d)", s, r)
	st, err := newStepper(name, d, d*(s+1), t0, dt, q0, cfg)
	if err != nil {
		return nil, err
	}
	g := &DGVI{
		stepper: st,
		eq:      peq,
		basis:   b,
		quad:    q,
		cache:   newDGVICache(s, r, d),
		s:       s,
		r:       r,
		c:       append([]float64(nil), c...),
		w:       append([]float64(nil), w...),
		m:       mat.NewDense(r, s, nil),
		a:       mat.NewDense(r, s, nil),
		rMinus:  make([]float64, s),
		rPlus:   make([]float64, s),
		dEnd:    make([]float64, s),
		qNew:    make([]float64, d),
		pNew:    make([]float64, d),
		vNew:    make([]float64, d),
	}
	for j := 0; j < r; j++ {
		for i := 0; i < s; i++ {
			g.m.Set(j, i, b.Evaluate(i, c[j]))
			g.a.Set(j, i, b.Derivative(i, c[j]))
		}
	}
	for i := 0; i < s; i++ {
		g.rMinus[i] = b.Evaluate(i, 1)
		g.rPlus[i] = b.Evaluate(i, 0)
		g.dEnd[i] = b.Derivative(i, 1)
	}
	if n, ok := b.(nodal); ok && len(n.Nodes()) == s {
		g.nodes = append([]float64(nil), n.Nodes()...)
	}

	p := st.params
	p.P = append([]float64(nil), p0...)
	p.QMinus = append([]float64(nil), q0...)
	p.QPlus = append([]float64(nil), q0...)
	if vg, ok := eq.(dynamo.VelocityGuess); ok {
		vg.InitialVelocity(t0, p.Q, p.P, g.vNew)
	}
	p.initHistory(g.vNew)
	return g, nil
}

func (g *DGVI) Size() int                 { return g.dim * (g.s + 1) }
func (g *DGVI) Snapshot() dynamo.Snapshot { return g.snapshot() }
func (g *DGVI) Step() (Report, error)     { return g.advance(g) }

// Residual assembles the S Galerkin blocks followed by the jump condition
// at the start of the element.
func (g *DGVI) Residual(x, b []float64) error {
	if err := checkSize(x, b, g.Size()); err != nil {
		return err
	}
	p, c, d := g.params, g.cache, g.dim
	unpackStrided(x, 0, d, c.X)
	copy(c.qNext, x[g.s*d:])

	for j := 0; j < g.r; j++ {
		for k := 0; k < d; k++ {
			q, v := 0.0, 0.0
			for i := 0; i < g.s; i++ {
				q += g.m.At(j, i) * c.X[i][k]
				v += g.a.At(j, i) * c.X[i][k]
			}
			c.Q[j][k] = q
			if p.Dt != 0 {
				c.V[j][k] = v / p.Dt
			} else {
				c.V[j][k] = 0
			}
		}
	}

	for k := 0; k < d; k++ {
		qp, qm := 0.0, 0.0
		for i := 0; i < g.s; i++ {
			qp += g.rPlus[i] * c.X[i][k]
			qm += g.rMinus[i] * c.X[i][k]
		}
		c.qPlus[k], c.qMinus[k] = qp, qm
		c.phiPlus[k] = 0.5 * (p.Q[k] + qp)
		c.lambdaPlus[k] = qp - p.Q[k]
		c.phiMinus[k] = 0.5 * (qm + c.qNext[k])
		c.lambdaMinus[k] = c.qNext[k] - qm
	}

	for j := 0; j < g.r; j++ {
		tj := p.T + g.c[j]*p.Dt
		g.eq.OneForm(tj, c.Q[j], c.V[j], c.P[j])
		g.eq.Force(tj, c.Q[j], c.V[j], c.F[j])
	}
	tEnd := p.T + p.Dt
	g.eq.OneForm(p.T, c.phiPlus, c.zero, c.thetaPlus)
	g.eq.OneForm(tEnd, c.phiMinus, c.zero, c.thetaMinus)
	g.eq.Projection(p.T, c.phiPlus, c.lambdaPlus, c.gPlus)
	g.eq.Projection(tEnd, c.phiMinus, c.lambdaMinus, c.gMinus)

	for i := 0; i < g.s; i++ {
		for k := 0; k < d; k++ {
			sum := 0.0
			for j := 0; j < g.r; j++ {
				sum += g.w[j] * (p.Dt*c.F[j][k]*g.m.At(j, i) + c.P[j][k]*g.a.At(j, i))
			}
			sum += g.rPlus[i] * (c.thetaPlus[k] + 0.5*c.gPlus[k])
			sum += g.rMinus[i] * (0.5*c.gMinus[k] - c.thetaMinus[k])
			b[i*d+k] = sum
		}
	}
	last := b[g.s*d:]
	for k := 0; k < d; k++ {
		last[k] = p.P[k] - c.thetaPlus[k] + 0.5*c.gPlus[k]
	}
	return nil
}

func (g *DGVI) prepare() {}

func (g *DGVI) guess(x []float64) {
	p, d := g.params, g.dim
	for i := 0; i < g.s; i++ {
		xi := x[i*d : (i+1)*d]
		if g.nodes != nil {
			p.predict(g.nodes[i], xi, nil)
		} else {
			copy(xi, p.Q)
		}
	}
	p.predict(1, x[g.s*d:], nil)
}

func (g *DGVI) update(x []float64) error {
	if err := g.Residual(x, g.b); err != nil {
		return err
	}
	p, c, d := g.params, g.cache, g.dim
	for k := 0; k < d; k++ {
		g.qNew[k] = c.qNext[k]
		g.pNew[k] = c.thetaMinus[k] + 0.5*c.gMinus[k]
		if p.Dt != 0 {
			v := 0.0
			for i := 0; i < g.s; i++ {
				v += g.dEnd[i] * c.X[i][k]
			}
			g.vNew[k] = v / p.Dt
		} else {
			g.vNew[k] = p.hist.v[k]
		}
	}
	if !dynamo.State(g.pNew).IsValid() {
		return dynamo.ErrNumericalDivergence
	}
	if err := g.accept(g.qNew, g.vNew); err != nil {
		return err
	}
	copy(p.P, g.pNew)
	for k := 0; k < d; k++ {
		p.QMinus[k] = c.qMinus[k] + g.shift[k]
		p.QPlus[k] = c.qPlus[k] + g.shift[k]
	}
	return nil
}
