package tableau

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Stochastic is the coefficient set of a stochastic implicit Runge-Kutta
// method for Stratonovich SDEs: A and Alpha weigh the drift, Bd and Beta the
// diffusion contracted with ΔW.
type Stochastic struct {
	Name  string
	Order float64 // strong order
	S     int
	A     *mat.Dense
	Bd    *mat.Dense
	Alpha []float64
	Beta  []float64
	C     []float64
}

func NewStochastic(name string, order float64, a, bd *mat.Dense, alpha, beta, c []float64) (*Stochastic, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: stochastic tableau %q has no drift matrix", dynamo.ErrConfiguration, name)
	}
	s, _ := a.Dims()
	for _, err := range []error{
		checkDims(name, "A", a, s, s),
		checkDims(name, "Bd", bd, s, s),
		checkLen(name, "Alpha", alpha, s),
		checkLen(name, "Beta", beta, s),
		checkLen(name, "C", c, s),
	} {
		if err != nil {
			return nil, err
		}
	}
	return &Stochastic{
		Name:  name,
		Order: order,
		S:     s,
		A:     mat.DenseCopyOf(a),
		Bd:    mat.DenseCopyOf(bd),
		Alpha: append([]float64(nil), alpha...),
		Beta:  append([]float64(nil), beta...),
		C:     append([]float64(nil), c...),
	}, nil
}

// StochasticMidpoint is the one stage stochastic midpoint rule, strong
// order 1/2 in general and 1 for commutative noise.
func StochasticMidpoint() *Stochastic {
	a := mat.NewDense(1, 1, []float64{0.5})
	t, err := NewStochastic("stochastic midpoint", 0.5, a, a, []float64{1}, []float64{1}, []float64{0.5})
	if err != nil {
		panic(err)
	}
	return t
}

// StochasticGauss uses the s stage Gauss-Legendre coefficients for both
// drift and diffusion.
func StochasticGauss(s int) (*Stochastic, error) {
	g, err := GaussLegendre(s)
	if err != nil {
		return nil, err
	}
	return NewStochastic(fmt.Sprintf("stochastic Gauss(%d)", s), 0.5, g.A, g.A, g.B, g.B, g.C)
}

// FromDeterministic reuses an ordinary tableau for the drift and turns the
// diffusion off. Useful for checking a stochastic integrator against its
// deterministic counterpart.
func FromDeterministic(t *Tableau) (*Stochastic, error) {
	return NewStochastic(t.Name+" (drift only)", float64(t.Order), t.A, mat.NewDense(t.S, t.S, nil),
		t.B, make([]float64, t.S), t.C)
}
