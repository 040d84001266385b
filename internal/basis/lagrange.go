// Package basis provides basis functions on the unit interval for the
// Galerkin integrators and the stage interpolation of Runge-Kutta schemes.
package basis

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
)

// Basis is a finite set of functions φ_i on [0, 1].
type Basis interface {
	Len() int
	Evaluate(i int, x float64) float64
	Derivative(i int, x float64) float64
}

// Lagrange is the Lagrange polynomial basis on a set of distinct nodes,
// φ_i(x_j) = δ_ij.
type Lagrange struct {
	nodes []float64
	denom []float64
}

func NewLagrange(nodes []float64) (*Lagrange, error) {
	n := len(nodes)
	if n == 0 {
		return nil, fmt.Errorf("%w: lagrange basis needs at least one node", dynamo.ErrConfiguration)
	}
	l := &Lagrange{
		nodes: append([]float64(nil), nodes...),
		denom: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		d := 1.0
		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			diff := nodes[i] - nodes[k]
			if diff == 0 {
				return nil, fmt.Errorf("%w: duplicate lagrange node %g", dynamo.ErrConfiguration, nodes[i])
			}
			d *= diff
		}
		l.denom[i] = d
	}
	return l, nil
}

func (l *Lagrange) Len() int { return len(l.nodes) }

func (l *Lagrange) Degree() int { return len(l.nodes) - 1 }

func (l *Lagrange) Nodes() []float64 { return l.nodes }

func (l *Lagrange) Evaluate(i int, x float64) float64 {
	y := 1.0
	for k, xk := range l.nodes {
		if k != i {
			y *= x - xk
		}
	}
	return y / l.denom[i]
}

// Derivative evaluates φ_i' by the product rule, which stays exact at the
// nodes themselves.
func (l *Lagrange) Derivative(i int, x float64) float64 {
	sum := 0.0
	for m := range l.nodes {
		if m == i {
			continue
		}
		prod := 1.0
		for k, xk := range l.nodes {
			if k != i && k != m {
				prod *= x - xk
			}
		}
		sum += prod
	}
	return sum / l.denom[i]
}

// Interpolate writes Σ_i values[i] φ_i(x) into out.
func (l *Lagrange) Interpolate(values [][]float64, x float64, out []float64) error {
	if len(values) != len(l.nodes) {
		return dynamo.Mismatch("lagrange values", len(values), len(l.nodes))
	}
	for k := range out {
		out[k] = 0
	}
	for i, v := range values {
		if len(v) != len(out) {
			return dynamo.Mismatch("lagrange value", len(v), len(out))
		}
		phi := l.Evaluate(i, x)
		for k := range out {
			out[k] += phi * v[k]
		}
	}
	return nil
}
