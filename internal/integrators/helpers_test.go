package integrators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Solver.AbsTol = 1e-13
	return cfg
}

func run(t *testing.T, in Integrator, steps int) {
	t.Helper()
	for n := 0; n < steps; n++ {
		rep, err := in.Step()
		require.NoError(t, err, "step %d", n+1)
		require.True(t, rep.Converged(), "step %d: %v (residual %g)", n+1, rep.Status, rep.Residual)
	}
}

// oscillatorError returns max_k |q_k - q_k(t)| against the closed form.
func oscillatorError(o interface{ Solution(float64, []float64) }, t float64, q []float64) float64 {
	exact := make([]float64, len(q))
	o.Solution(t, exact)
	e := 0.0
	for k := range q {
		e = math.Max(e, math.Abs(q[k]-exact[k]))
	}
	return e
}

func relativeError(o interface{ Solution(float64, []float64) }, t float64, q []float64) float64 {
	exact := make([]float64, len(q))
	o.Solution(t, exact)
	num, den := 0.0, 0.0
	for k := range q {
		num += (q[k] - exact[k]) * (q[k] - exact[k])
		den += exact[k] * exact[k]
	}
	return math.Sqrt(num / den)
}

func maxDiff(a, b []float64) float64 {
	d := 0.0
	for k := range a {
		d = math.Max(d, math.Abs(a[k]-b[k]))
	}
	return d
}

// observedOrder is log2 of the error ratio between step sizes dt and dt/2.
func observedOrder(coarse, fine float64) float64 {
	return math.Log2(coarse / fine)
}

func nan() float64 { return math.NaN() }
