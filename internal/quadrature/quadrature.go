// Package quadrature provides quadrature rules on the unit interval.
//
// Rules are consumed through the [Rule] capability; the Galerkin
// integrators only ever ask for nodes and weights.
package quadrature

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/geomint/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// Rule is a quadrature rule on [0, 1].
type Rule interface {
	Nodes() []float64
	Weights() []float64
}

type fixed struct {
	name    string
	nodes   []float64
	weights []float64
}

func (f *fixed) Nodes() []float64   { return f.nodes }
func (f *fixed) Weights() []float64 { return f.weights }
func (f *fixed) String() string     { return fmt.Sprintf("%s(%d)", f.name, len(f.nodes)) }

// GaussLegendre returns the n point Gauss-Legendre rule on [0, 1], exact
// for polynomials up to degree 2n-1.
func GaussLegendre(n int) (Rule, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: gauss-legendre needs n >= 1, got %d", dynamo.ErrConfiguration, n)
	}
	x := make([]float64, n)
	w := make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, 0, 1)
	sortPairs(x, w)
	return &fixed{name: "gauss-legendre", nodes: x, weights: w}, nil
}

// GaussLobatto returns the n point Gauss-Lobatto rule on [0, 1]. Both end
// points are nodes; the rule is exact up to degree 2n-3.
func GaussLobatto(n int) (Rule, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: gauss-lobatto needs n >= 2, got %d", dynamo.ErrConfiguration, n)
	}

	x := make([]float64, n)
	x[0], x[n-1] = -1, 1
	if n > 2 {
		interior, err := jacobiNodes(1, 1, n-2)
		if err != nil {
			return nil, err
		}
		copy(x[1:n-1], interior)
	}

	w := make([]float64, n)
	fn := float64(n)
	for i, xi := range x {
		p := legendre(n-1, xi)
		w[i] = 2 / (fn * (fn - 1) * p * p)
	}

	// map [-1, 1] to [0, 1]
	floats.AddConst(1, x)
	floats.Scale(0.5, x)
	floats.Scale(0.5, w)
	x[0], x[n-1] = 0, 1
	return &fixed{name: "gauss-lobatto", nodes: x, weights: w}, nil
}

// Scaled maps rule onto [a, b].
func Scaled(rule Rule, a, b float64) Rule {
	nodes, weights := rule.Nodes(), rule.Weights()
	x := make([]float64, len(nodes))
	w := make([]float64, len(weights))
	h := b - a
	floats.ScaleTo(x, h, nodes)
	floats.AddConst(a, x)
	floats.ScaleTo(w, h, weights)
	return &fixed{name: "scaled", nodes: x, weights: w}
}

// Integrate applies rule to f.
func Integrate(rule Rule, f func(x float64) float64) float64 {
	sum := 0.0
	w := rule.Weights()
	for i, x := range rule.Nodes() {
		sum += w[i] * f(x)
	}
	return sum
}

// jacobiNodes computes the n Gauss-Jacobi nodes on [-1, 1] as eigenvalues
// of the symmetric tridiagonal Jacobi matrix (Golub-Welsch).
func jacobiNodes(alpha, beta float64, n int) ([]float64, error) {
	if n == 1 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, nil
	}

	jj := mat.NewSymDense(n, nil)
	ab := alpha + beta
	for i := 0; i < n; i++ {
		h := 2*float64(i) + ab
		if ab != 0 || i != 0 {
			jj.SetSym(i, i, (beta*beta-alpha*alpha)/(h*(h+2)))
		}
		if i < n-1 {
			ip1 := float64(i + 1)
			jj.SetSym(i, i+1, 2/(h+2)*math.Sqrt(ip1*(ip1+ab)*(ip1+alpha)*(ip1+beta)/((h+1)*(h+3))))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(jj, false); !ok {
		return nil, fmt.Errorf("%w: jacobi eigenvalue decomposition failed", dynamo.ErrConfiguration)
	}
	return eig.Values(nil), nil
}

// legendre evaluates P_n(x) by the three term recurrence.
func legendre(n int, x float64) float64 {
	if n == 0 {
		return 1
	}
	p0, p1 := 1.0, x
	for k := 2; k <= n; k++ {
		fk := float64(k)
		p0, p1 = p1, ((2*fk-1)*x*p1-(fk-1)*p0)/fk
	}
	return p1
}

func sortPairs(x, w []float64) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	xs := make([]float64, len(x))
	ws := make([]float64, len(w))
	for i, j := range idx {
		xs[i], ws[i] = x[j], w[j]
	}
	copy(x, xs)
	copy(w, ws)
}
