package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/nlsolve"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/sim"
	"github.com/san-kum/geomint/internal/tableau"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ sim.Metric = (*EnergyDrift)(nil)
	_ sim.Metric = (*ConstraintViolation)(nil)
	_ sim.Metric = (*MomentumConsistency)(nil)
	_ sim.Metric = (*Iterations)(nil)
	_ sim.Metric = (*Convergence)(nil)
	_ sim.Metric = (*Residual)(nil)
)

func TestEnergyDrift(t *testing.T) {
	osc := problems.NewOscillator()
	m := NewEnergyDrift(osc)

	q0 := dynamo.State{1, 0}
	m.Observe(0, dynamo.Snapshot{Q: q0}, integrators.Report{})
	m.Observe(1, dynamo.Snapshot{Q: dynamo.State{1.1, 0}}, integrators.Report{})
	m.Observe(2, dynamo.Snapshot{Q: dynamo.State{1, 0}}, integrators.Report{})

	if math.Abs(m.Value()-0.21) > 1e-12 {
		t.Errorf("expected drift 0.21, got %g", m.Value())
	}
	assert.InDelta(t, 0.25, m.Current(), 1e-15)

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}

	m.Observe(0, dynamo.Snapshot{Q: dynamo.State{0, 0}}, integrators.Report{})
	m.Observe(1, dynamo.Snapshot{Q: dynamo.State{0, 2}}, integrators.Report{})
	assert.Equal(t, 2.0, m.Value())
}

func TestConstraintViolation(t *testing.T) {
	pdae := problems.NewOscillatorPDAE()
	m := NewConstraintViolation(pdae)
	m.Observe(0, dynamo.Snapshot{Q: pdae.Q0(), P: pdae.P0()}, integrators.Report{})
	assert.Equal(t, 0.0, m.Value())
	m.Observe(1, dynamo.Snapshot{Q: dynamo.State{0, 1}, P: dynamo.State{3, 0}}, integrators.Report{})
	assert.Equal(t, 2.0, m.Value())
	m.Observe(2, dynamo.Snapshot{Q: dynamo.State{0, 1}}, integrators.Report{})
	assert.Equal(t, 2.0, m.Value())
}

func TestMomentumConsistency(t *testing.T) {
	m := NewMomentumConsistency(problems.NewOscillatorIODE())
	m.Observe(0, dynamo.Snapshot{Q: dynamo.State{0.5, 0.25}, P: dynamo.State{0.25, 0}}, integrators.Report{})
	assert.Equal(t, 0.0, m.Value())
	m.Observe(1, dynamo.Snapshot{Q: dynamo.State{0.5, 0}, P: dynamo.State{1, 0}}, integrators.Report{})
	assert.Equal(t, 1.0, m.Value())
}

func TestSolverStatistics(t *testing.T) {
	it, conv, res := NewIterations(), NewConvergence(), NewResidual()
	reports := []integrators.Report{
		{},
		{Iterations: 2, Status: nlsolve.Converged, Residual: 1e-13, Tolerance: 1e-12},
		{Iterations: 4, Status: nlsolve.IterationLimit, Residual: 1e-10, Tolerance: 1e-12},
	}
	for n, rep := range reports {
		it.Observe(n, dynamo.Snapshot{}, rep)
		conv.Observe(n, dynamo.Snapshot{}, rep)
		res.Observe(n, dynamo.Snapshot{}, rep)
	}
	assert.Equal(t, 3.0, it.Value())
	assert.Equal(t, 0.5, conv.Value())
	assert.InDelta(t, 100, res.Value(), 1e-9)

	conv.Reset()
	assert.Equal(t, 1.0, conv.Value())
}

func TestMetricsOnPARKRun(t *testing.T) {
	base, err := tableau.GaussLegendre(2)
	require.NoError(t, err)
	tab, err := tableau.StandardProjection(base)
	require.NoError(t, err)
	pdae := problems.NewOscillatorPDAE()
	cfg := integrators.DefaultConfig()
	cfg.Solver.AbsTol = 1e-13
	park, err := integrators.NewPARK(pdae, tab, 0, pdae.Q0(), pdae.P0(), nil, 0.1, cfg)
	require.NoError(t, err)

	s := sim.New(park)
	phi, it, drift := NewConstraintViolation(pdae), NewIterations(), NewEnergyDrift(pdae)
	s.AddMetric(phi)
	s.AddMetric(it)
	s.AddMetric(drift)

	res, err := s.Run(context.Background(), sim.Config{Steps: 50})
	require.NoError(t, err)
	assert.Less(t, res.Metrics["constraint_violation"], 1e-10)
	assert.Greater(t, res.Metrics["iterations"], 0.0)
	// Gauss collocation preserves the quadratic energy of the oscillator.
	assert.Less(t, res.Metrics["energy_drift"], 1e-9)
}
