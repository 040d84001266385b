package basis

import (
	"errors"
	"testing"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLagrangeKronecker(t *testing.T) {
	nodes := []float64{0, 0.3, 0.7, 1}
	l, err := NewLagrange(nodes)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, 3, l.Degree())

	for i := range nodes {
		for j, x := range nodes {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, l.Evaluate(i, x), 1e-14, "φ_%d(x_%d)", i, j)
		}
	}
}

func TestLagrangePartitionOfUnity(t *testing.T) {
	l, err := NewLagrange([]float64{0.1, 0.5, 0.9})
	require.NoError(t, err)

	for _, x := range []float64{0, 0.25, 0.6, 1} {
		sum, dsum := 0.0, 0.0
		for i := 0; i < l.Len(); i++ {
			sum += l.Evaluate(i, x)
			dsum += l.Derivative(i, x)
		}
		assert.InDelta(t, 1.0, sum, 1e-14)
		assert.InDelta(t, 0.0, dsum, 1e-13)
	}
}

func TestLagrangeDerivativeReproducesLinear(t *testing.T) {
	// Σ x_i φ_i'(x) = 1 for any node set with at least two nodes.
	nodes := []float64{0, 0.5, 1}
	l, err := NewLagrange(nodes)
	require.NoError(t, err)

	for _, x := range []float64{0, 0.2, 0.5, 1} {
		d := 0.0
		for i, xi := range nodes {
			d += xi * l.Derivative(i, x)
		}
		assert.InDelta(t, 1.0, d, 1e-13)
	}
}

func TestLagrangeLinearOnUnitInterval(t *testing.T) {
	l, err := NewLagrange([]float64{0, 1})
	require.NoError(t, err)

	assert.InDelta(t, 0.75, l.Evaluate(0, 0.25), 1e-15)
	assert.InDelta(t, 0.25, l.Evaluate(1, 0.25), 1e-15)
	assert.InDelta(t, -1.0, l.Derivative(0, 0.4), 1e-15)
	assert.InDelta(t, 1.0, l.Derivative(1, 0.4), 1e-15)
}

func TestLagrangeInterpolate(t *testing.T) {
	l, err := NewLagrange([]float64{0, 1})
	require.NoError(t, err)

	out := make([]float64, 2)
	require.NoError(t, l.Interpolate([][]float64{{1, 2}, {3, 6}}, 0.5, out))
	assert.InDeltaSlice(t, []float64{2, 4}, out, 1e-15)

	err = l.Interpolate([][]float64{{1, 2}}, 0.5, out)
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
}

func TestLagrangeInvalidNodes(t *testing.T) {
	_, err := NewLagrange(nil)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	_, err = NewLagrange([]float64{0, 0.5, 0.5})
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}
