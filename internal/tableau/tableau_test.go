package tableau

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGaussLegendreCoefficients(t *testing.T) {
	g1, err := GaussLegendre(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, g1.A.At(0, 0), 1e-15)
	assert.InDelta(t, 1.0, g1.B[0], 1e-15)
	assert.InDelta(t, 0.5, g1.C[0], 1e-15)

	g2, err := GaussLegendre(2)
	require.NoError(t, err)
	r3 := math.Sqrt(3)
	want := [][]float64{
		{0.25, 0.25 - r3/6},
		{0.25 + r3/6, 0.25},
	}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], g2.A.At(i, j), 1e-14, "a[%d][%d]", i, j)
		}
	}
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, g2.B, 1e-14)
	assert.InDeltaSlice(t, []float64{0.5 - r3/6, 0.5 + r3/6}, g2.C, 1e-14)
	assert.Equal(t, 4, g2.Order)
}

func TestGaussLegendreConditions(t *testing.T) {
	for s := 1; s <= 4; s++ {
		g, err := GaussLegendre(s)
		require.NoError(t, err)
		assert.Less(t, g.RowSumDefect(), 1e-13, "s=%d", s)
		assert.Less(t, g.SymplecticDefect(g.A), 1e-13, "s=%d", s)
		assert.False(t, g.Explicit())
	}
}

func TestLobattoPair(t *testing.T) {
	a, err := LobattoIIIA(3)
	require.NoError(t, err)
	b, err := LobattoIIIB(3)
	require.NoError(t, err)

	// IIIA first row vanishes, IIIB last column vanishes.
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 0.0, a.A.At(0, j), 1e-14)
	}
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.0, b.A.At(i, 2), 1e-14)
	}
	assert.InDeltaSlice(t, []float64{1.0 / 6, 2.0 / 3, 1.0 / 6}, a.B, 1e-14)
	assert.Less(t, a.RowSumDefect(), 1e-14)
	assert.Less(t, a.SymplecticDefect(b.A), 1e-14)
	assert.Equal(t, 4, a.Order)

	p, err := VariationalPartitioned(a)
	require.NoError(t, err)
	assert.Less(t, p.SymplecticDefect(), 1e-14)
	assert.Equal(t, 3, p.S())
}

func TestExplicitTableaus(t *testing.T) {
	for _, tab := range []*Tableau{ExplicitEuler(), ExplicitMidpoint(), ClassicalRK4()} {
		assert.True(t, tab.Explicit(), tab.Name)
		assert.Less(t, tab.RowSumDefect(), 1e-15, tab.Name)

		sum := 0.0
		for _, b := range tab.B {
			sum += b
		}
		assert.InDelta(t, 1.0, sum, 1e-15, tab.Name)
	}
	assert.False(t, ImplicitMidpoint().Explicit())
}

func TestNewRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		a    *mat.Dense
		b, c []float64
	}{
		{"nil matrix", nil, []float64{1}, []float64{0}},
		{"non square", mat.NewDense(2, 1, nil), []float64{1, 0}, []float64{0, 0}},
		{"short b", mat.NewDense(2, 2, nil), []float64{1}, []float64{0, 0}},
		{"long c", mat.NewDense(1, 1, nil), []float64{1}, []float64{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.name, 1, tt.a, tt.b, tt.c)
			assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
		})
	}

	_, err := FromRows("ragged", 1, [][]float64{{0, 0}, {1}}, []float64{1, 0}, []float64{0, 1})
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestNewCopiesInputs(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{0.5})
	b := []float64{1}
	tab, err := New("copy", 2, a, b, []float64{0.5})
	require.NoError(t, err)

	a.Set(0, 0, 9)
	b[0] = 9
	assert.Equal(t, 0.5, tab.A.At(0, 0))
	assert.Equal(t, 1.0, tab.B[0])
}

func TestSymplecticConjugateZeroWeight(t *testing.T) {
	_, err := SymplecticConjugate(ExplicitMidpoint())
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestNewPartitionedStageMismatch(t *testing.T) {
	g2, err := GaussLegendre(2)
	require.NoError(t, err)
	_, err = NewPartitioned("bad", 2, ImplicitMidpoint(), g2)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestProjectionTableaus(t *testing.T) {
	g, err := GaussLegendre(2)
	require.NoError(t, err)

	std, err := StandardProjection(g)
	require.NoError(t, err)
	assert.Equal(t, 2, std.S)
	assert.Equal(t, 1, std.R)
	assert.Equal(t, 0.0, std.AqHat.At(0, 0))
	assert.InDelta(t, g.B[1], std.AqTilde.At(0, 1), 1e-15)
	assert.Equal(t, []float64{1}, std.CTilde)

	sym, err := SymmetricProjection(g)
	require.NoError(t, err)
	assert.Equal(t, 0.5, sym.AqHat.At(1, 0))
	assert.Equal(t, 0.5, sym.ApHat.At(0, 0))
}

func TestNewAdditiveRejectsShapes(t *testing.T) {
	g, err := GaussLegendre(2)
	require.NoError(t, err)
	std, err := StandardProjection(g)
	require.NoError(t, err)

	bad := *std
	bad.AqHat = mat.NewDense(1, 1, nil)
	_, err = NewAdditive(bad)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	bad = *std
	bad.BetaP = []float64{1, 1}
	_, err = NewAdditive(bad)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	bad = *std
	bad.R = 0
	_, err = NewAdditive(bad)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestStochasticTableaus(t *testing.T) {
	m := StochasticMidpoint()
	assert.Equal(t, 1, m.S)
	assert.Equal(t, 0.5, m.Bd.At(0, 0))

	g, err := StochasticGauss(2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.S)
	assert.InDeltaSlice(t, g.Alpha, g.Beta, 0)

	d, err := FromDeterministic(ClassicalRK4())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, d.Beta)

	_, err = NewStochastic("bad", 1, mat.NewDense(2, 2, nil), mat.NewDense(1, 1, nil),
		[]float64{1, 0}, []float64{1, 0}, []float64{0, 1})
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		tab, err := Lookup(name, 2)
		require.NoError(t, err, name)
		assert.NotZero(t, tab.S)
	}
	_, err := Lookup("nope", 1)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}
