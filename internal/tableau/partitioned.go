package tableau

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
)

// Partitioned pairs a tableau for q with one for p. Both share the stage
// count and nodes.
type Partitioned struct {
	Name  string
	Order int
	Q     *Tableau
	P     *Tableau
}

func NewPartitioned(name string, order int, q, p *Tableau) (*Partitioned, error) {
	if q == nil || p == nil {
		return nil, fmt.Errorf("%w: partitioned tableau %q needs both halves", dynamo.ErrConfiguration, name)
	}
	if q.S != p.S {
		return nil, fmt.Errorf("%w: partitioned tableau %q has %d and %d stages", dynamo.ErrConfiguration, name, q.S, p.S)
	}
	return &Partitioned{Name: name, Order: order, Q: q, P: p}, nil
}

// S returns the number of stages.
func (t *Partitioned) S() int { return t.Q.S }

// VariationalPartitioned pairs t with its symplectic conjugate, the
// coefficient set of a variational partitioned Runge-Kutta method.
func VariationalPartitioned(t *Tableau) (*Partitioned, error) {
	conj, err := SymplecticConjugate(t)
	if err != nil {
		return nil, err
	}
	return NewPartitioned("VPRK "+t.Name, t.Order, t, conj)
}

// SymplecticDefect measures how far the pair is from the symplecticity
// condition b_i ā_ij + b̄_j a_ji = b_i b̄_j.
func (t *Partitioned) SymplecticDefect() float64 {
	defect := 0.0
	for i := 0; i < t.Q.S; i++ {
		for j := 0; j < t.Q.S; j++ {
			d := t.Q.B[i]*t.P.A.At(i, j) + t.P.B[j]*t.Q.A.At(j, i) - t.Q.B[i]*t.P.B[j]
			if d < 0 {
				d = -d
			}
			if d > defect {
				defect = d
			}
		}
	}
	return defect
}
