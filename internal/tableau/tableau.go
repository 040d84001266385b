// Package tableau holds the immutable coefficient tables of the Runge-Kutta
// family: plain, partitioned, additive (projection) and stochastic methods.
//
// Tables are validated once at construction. Integrators share them
// read-only and never re-check consistency conditions; the defect methods
// exist for tests and diagnostics.
package tableau

import (
	"fmt"
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Tableau is a Butcher tableau with S stages. A must not be modified after
// construction.
type Tableau struct {
	Name  string
	Order int
	S     int
	A     *mat.Dense
	B     []float64
	C     []float64
}

// New validates the shapes of a, b and c and copies them into a Tableau.
func New(name string, order int, a *mat.Dense, b, c []float64) (*Tableau, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: tableau %q has no stage matrix", dynamo.ErrConfiguration, name)
	}
	r, cols := a.Dims()
	if r != cols {
		return nil, fmt.Errorf("%w: tableau %q stage matrix is %dx%d", dynamo.ErrConfiguration, name, r, cols)
	}
	if len(b) != r || len(c) != r {
		return nil, fmt.Errorf("%w: tableau %q has %d stages but len(b)=%d len(c)=%d",
			dynamo.ErrConfiguration, name, r, len(b), len(c))
	}
	return &Tableau{
		Name:  name,
		Order: order,
		S:     r,
		A:     mat.DenseCopyOf(a),
		B:     append([]float64(nil), b...),
		C:     append([]float64(nil), c...),
	}, nil
}

// FromRows builds a tableau from row-major coefficients.
func FromRows(name string, order int, a [][]float64, b, c []float64) (*Tableau, error) {
	if len(a) == 0 {
		return nil, fmt.Errorf("%w: tableau %q has no stages", dynamo.ErrConfiguration, name)
	}
	m, err := denseFromRows(name, a, len(a), len(a))
	if err != nil {
		return nil, err
	}
	return New(name, order, m, b, c)
}

func (t *Tableau) String() string {
	return fmt.Sprintf("%s (s=%d, order %d)", t.Name, t.S, t.Order)
}

// Explicit reports whether A is strictly lower triangular.
func (t *Tableau) Explicit() bool {
	for i := 0; i < t.S; i++ {
		for j := i; j < t.S; j++ {
			if t.A.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

// RowSumDefect returns max_i |Σ_j a_ij - c_i|.
func (t *Tableau) RowSumDefect() float64 {
	defect := 0.0
	for i := 0; i < t.S; i++ {
		sum := 0.0
		for j := 0; j < t.S; j++ {
			sum += t.A.At(i, j)
		}
		defect = math.Max(defect, math.Abs(sum-t.C[i]))
	}
	return defect
}

// SymplecticDefect returns max_ij |b_i p_ij + b_j a_ji - b_i b_j| for the
// companion matrix p. Pass t.A itself for the ordinary symplecticity check.
func (t *Tableau) SymplecticDefect(p mat.Matrix) float64 {
	defect := 0.0
	for i := 0; i < t.S; i++ {
		for j := 0; j < t.S; j++ {
			d := t.B[i]*p.At(i, j) + t.B[j]*t.A.At(j, i) - t.B[i]*t.B[j]
			defect = math.Max(defect, math.Abs(d))
		}
	}
	return defect
}

// SymplecticConjugate returns the tableau with ā_ij = b_j - b_j a_ji / b_i,
// which pairs with t into a variational partitioned method.
func SymplecticConjugate(t *Tableau) (*Tableau, error) {
	for i, b := range t.B {
		if b == 0 {
			return nil, fmt.Errorf("%w: tableau %q has zero weight b_%d, no symplectic conjugate",
				dynamo.ErrConfiguration, t.Name, i)
		}
	}
	abar := mat.NewDense(t.S, t.S, nil)
	for i := 0; i < t.S; i++ {
		for j := 0; j < t.S; j++ {
			abar.Set(i, j, t.B[j]-t.B[j]*t.A.At(j, i)/t.B[i])
		}
	}
	return New(t.Name+" conjugate", t.Order, abar, t.B, t.C)
}

func denseFromRows(name string, rows [][]float64, r, c int) (*mat.Dense, error) {
	if r == 0 || c == 0 {
		return nil, nil
	}
	if len(rows) != r {
		return nil, fmt.Errorf("%w: tableau %q expected %d rows, got %d", dynamo.ErrConfiguration, name, r, len(rows))
	}
	m := mat.NewDense(r, c, nil)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%w: tableau %q row %d has %d entries, expected %d",
				dynamo.ErrConfiguration, name, i, len(row), c)
		}
		m.SetRow(i, row)
	}
	return m, nil
}

// checkDims reports an ErrConfiguration unless m is r×c. A nil m is only
// accepted for an empty shape.
func checkDims(name, what string, m *mat.Dense, r, c int) error {
	if m == nil {
		if r == 0 || c == 0 {
			return nil
		}
		return fmt.Errorf("%w: %s: %s is missing, expected %dx%d", dynamo.ErrConfiguration, name, what, r, c)
	}
	mr, mc := m.Dims()
	if mr != r || mc != c {
		return fmt.Errorf("%w: %s: %s is %dx%d, expected %dx%d", dynamo.ErrConfiguration, name, what, mr, mc, r, c)
	}
	return nil
}

func checkLen(name, what string, v []float64, n int) error {
	if len(v) != n {
		return fmt.Errorf("%w: %s: len(%s)=%d, expected %d", dynamo.ErrConfiguration, name, what, len(v), n)
	}
	return nil
}

func copyDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}
