package integrators

import (
	"errors"
	"testing"

	"github.com/san-kum/geomint/internal/basis"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/quadrature"
	"github.com/san-kum/geomint/internal/tableau"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinearDGVI(t *testing.T, dt float64) (*DGVI, *problems.OscillatorIODE) {
	t.Helper()
	b, err := basis.NewLagrange([]float64{0, 1})
	require.NoError(t, err)
	q, err := quadrature.GaussLegendre(1)
	require.NoError(t, err)
	osc := problems.NewOscillatorIODE()
	g, err := NewDGVI(osc, b, q, 0, osc.Q0(), osc.P0(), dt, testConfig())
	require.NoError(t, err)
	return g, osc
}

func TestDGVILinearIsImplicitMidpoint(t *testing.T) {
	g, _ := newLinearDGVI(t, 0.1)
	assert.Equal(t, "DGVI(S=2,R=1)", g.Name())
	assert.Equal(t, 6, g.Size())

	osc := problems.NewOscillator()
	f, err := NewFIRK(osc, tableau.ImplicitMidpoint(), 0, osc.Q0(), 0.1, testConfig())
	require.NoError(t, err)

	for n := 0; n < 20; n++ {
		run(t, g, 1)
		run(t, f, 1)
		require.Less(t, maxDiff(g.Snapshot().Q, f.Snapshot().Q), 1e-10, "step %d", n+1)
	}

	// the element is continuous for this basis
	p := g.Params()
	assert.Less(t, maxDiff(p.QMinus, p.Q), 1e-10)
}

func TestDGVITracesFollowPeriodicWrap(t *testing.T) {
	b, err := basis.NewLagrange([]float64{0, 1})
	require.NoError(t, err)
	q, err := quadrature.GaussLegendre(1)
	require.NoError(t, err)
	osc := problems.NewOscillatorIODE()
	cfg := testConfig()
	cfg.Periodicity = []float64{1, 0}
	g, err := NewDGVI(osc, b, q, 0, osc.Q0(), osc.P0(), 0.1, cfg)
	require.NoError(t, err)

	wrapped := false
	for n := 0; n < 30; n++ {
		run(t, g, 1)
		p := g.Params()
		require.GreaterOrEqual(t, p.Q[0], 0.0)
		require.Less(t, p.Q[0], 1.0)
		require.Less(t, maxDiff(p.QMinus, p.Q), 1e-10, "step %d", n+1)
		if p.Q[0] > 0.6 {
			wrapped = true
		}
	}
	assert.True(t, wrapped, "q1 should leave [0, 0.5] through the wrap")
}

func TestDGVIOrder(t *testing.T) {
	dgviError := func(dt float64) float64 {
		g, osc := newLinearDGVI(t, dt)
		run(t, g, int(10/dt+0.5))
		return oscillatorError(osc, g.Time(), g.Snapshot().Q)
	}
	coarse, fine := dgviError(0.1), dgviError(0.05)
	assert.InDelta(t, 2, observedOrder(coarse, fine), 0.3, "errors %g -> %g", coarse, fine)
}

func TestDGVIZeroStep(t *testing.T) {
	g, osc := newLinearDGVI(t, 0)
	rep, err := g.Step()
	require.NoError(t, err)
	assert.True(t, rep.Converged())
	assert.Equal(t, 0, rep.Iterations)
	assert.Equal(t, osc.Q0(), []float64(g.Snapshot().Q))
	assert.Equal(t, osc.P0(), []float64(g.Snapshot().P))
}

type bareIODE struct{ dynamo.IODE }

func TestNewDGVIValidation(t *testing.T) {
	b, err := basis.NewLagrange([]float64{0, 1})
	require.NoError(t, err)
	q, err := quadrature.GaussLegendre(2)
	require.NoError(t, err)
	osc := problems.NewOscillatorIODE()

	_, err = NewDGVI(bareIODE{osc}, b, q, 0, osc.Q0(), osc.P0(), 0.1, DefaultConfig())
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	_, err = NewDGVI(osc, b, q, 0, osc.Q0(), []float64{0, 0, 0}, 0.1, DefaultConfig())
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
}
