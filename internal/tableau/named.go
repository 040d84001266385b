package tableau

import (
	"fmt"
	"strings"

	"github.com/san-kum/geomint/internal/basis"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/quadrature"
	"gonum.org/v1/gonum/mat"
)

// Collocation builds the collocation method on nodes c with weights b:
// a_ij = ∫_0^{c_i} ℓ_j where ℓ_j is the Lagrange polynomial on c.
func Collocation(name string, order int, c, b []float64) (*Tableau, error) {
	s := len(c)
	l, err := basis.NewLagrange(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	// ℓ_j has degree s-1, so an s point Gauss rule integrates it exactly.
	g, err := quadrature.GaussLegendre(s)
	if err != nil {
		return nil, err
	}
	gx, gw := g.Nodes(), g.Weights()

	a := mat.NewDense(s, s, nil)
	for i, ci := range c {
		for j := 0; j < s; j++ {
			sum := 0.0
			for k := range gx {
				sum += gw[k] * l.Evaluate(j, ci*gx[k])
			}
			a.Set(i, j, ci*sum)
		}
	}
	return New(name, order, a, b, c)
}

// GaussLegendre returns the s stage Gauss-Legendre collocation method of
// order 2s. It is symplectic and its own symplectic conjugate.
func GaussLegendre(s int) (*Tableau, error) {
	rule, err := quadrature.GaussLegendre(s)
	if err != nil {
		return nil, err
	}
	return Collocation(fmt.Sprintf("Gauss-Legendre(%d)", s), 2*s, rule.Nodes(), rule.Weights())
}

// LobattoIIIA returns the s stage Lobatto IIIA method of order 2s-2.
func LobattoIIIA(s int) (*Tableau, error) {
	rule, err := quadrature.GaussLobatto(s)
	if err != nil {
		return nil, err
	}
	return Collocation(fmt.Sprintf("Lobatto-IIIA(%d)", s), 2*s-2, rule.Nodes(), rule.Weights())
}

// LobattoIIIB returns the symplectic conjugate of Lobatto IIIA.
func LobattoIIIB(s int) (*Tableau, error) {
	a, err := LobattoIIIA(s)
	if err != nil {
		return nil, err
	}
	t, err := SymplecticConjugate(a)
	if err != nil {
		return nil, err
	}
	t.Name = fmt.Sprintf("Lobatto-IIIB(%d)", s)
	return t, nil
}

func ImplicitMidpoint() *Tableau {
	return mustRows("implicit midpoint", 2, [][]float64{{0.5}}, []float64{1}, []float64{0.5})
}

func ExplicitEuler() *Tableau {
	return mustRows("explicit Euler", 1, [][]float64{{0}}, []float64{1}, []float64{0})
}

func ExplicitMidpoint() *Tableau {
	return mustRows("explicit midpoint", 2,
		[][]float64{
			{0, 0},
			{0.5, 0},
		},
		[]float64{0, 1},
		[]float64{0, 0.5})
}

func ClassicalRK4() *Tableau {
	return mustRows("RK4", 4,
		[][]float64{
			{0, 0, 0, 0},
			{0.5, 0, 0, 0},
			{0, 0.5, 0, 0},
			{0, 0, 1, 0},
		},
		[]float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		[]float64{0, 0.5, 0.5, 1})
}

// Lookup resolves a tableau by family name and stage count. Stage count is
// ignored by fixed-size methods.
func Lookup(name string, s int) (*Tableau, error) {
	switch strings.ToLower(name) {
	case "gauss", "gauss-legendre", "glrk":
		return GaussLegendre(s)
	case "lobatto", "lobatto-iiia", "lobattoiiia":
		return LobattoIIIA(s)
	case "lobatto-iiib", "lobattoiiib":
		return LobattoIIIB(s)
	case "midpoint", "implicit-midpoint":
		return ImplicitMidpoint(), nil
	case "euler", "explicit-euler":
		return ExplicitEuler(), nil
	case "explicit-midpoint":
		return ExplicitMidpoint(), nil
	case "rk4":
		return ClassicalRK4(), nil
	}
	return nil, fmt.Errorf("%w: unknown tableau %q", dynamo.ErrConfiguration, name)
}

// Names lists the names accepted by Lookup.
func Names() []string {
	return []string{"gauss", "lobatto-iiia", "lobatto-iiib", "midpoint", "euler", "explicit-midpoint", "rk4"}
}

func mustRows(name string, order int, a [][]float64, b, c []float64) *Tableau {
	t, err := FromRows(name, order, a, b, c)
	if err != nil {
		panic(err)
	}
	return t
}
