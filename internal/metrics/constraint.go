package metrics

import (
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"gonum.org/v1/gonum/floats"
)

// ConstraintViolation tracks max_n ‖φ(t_n, q_n, p_n)‖∞ for a PDAE.
type ConstraintViolation struct {
	name string
	eq   dynamo.PDAE
	phi  []float64
	max  float64
}

func NewConstraintViolation(eq dynamo.PDAE) *ConstraintViolation {
	return &ConstraintViolation{
		name: "constraint_violation",
		eq:   eq,
		phi:  make([]float64, eq.Dim()),
	}
}

func (c *ConstraintViolation) Name() string { return c.name }

func (c *ConstraintViolation) Observe(n int, snap dynamo.Snapshot, rep integrators.Report) {
	if snap.P == nil {
		return
	}
	c.eq.Constraint(snap.T, snap.Q, snap.P, c.phi)
	c.max = math.Max(c.max, floats.Norm(c.phi, math.Inf(1)))
}

func (c *ConstraintViolation) Value() float64 { return c.max }
func (c *ConstraintViolation) Reset()         { c.max = 0 }

// MomentumConsistency tracks max_n ‖p_n - ϑ(t_n, q_n, v_n)‖∞ for an IODE.
// The velocity comes from the equation's VelocityGuess when it has one and
// is zero otherwise.
type MomentumConsistency struct {
	name  string
	eq    dynamo.IODE
	v, th []float64
	max   float64
}

func NewMomentumConsistency(eq dynamo.IODE) *MomentumConsistency {
	d := eq.Dim()
	return &MomentumConsistency{
		name: "momentum_consistency",
		eq:   eq,
		v:    make([]float64, d),
		th:   make([]float64, d),
	}
}

func (m *MomentumConsistency) Name() string { return m.name }

func (m *MomentumConsistency) Observe(n int, snap dynamo.Snapshot, rep integrators.Report) {
	if snap.P == nil {
		return
	}
	if g, ok := m.eq.(dynamo.VelocityGuess); ok {
		g.InitialVelocity(snap.T, snap.Q, snap.P, m.v)
	}
	m.eq.OneForm(snap.T, snap.Q, m.v, m.th)
	floats.Sub(m.th, snap.P)
	m.max = math.Max(m.max, floats.Norm(m.th, math.Inf(1)))
}

func (m *MomentumConsistency) Value() float64 { return m.max }
func (m *MomentumConsistency) Reset()         { m.max = 0 }
