package tableau

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Additive is the coefficient set of a projected additive Runge-Kutta
// method with S internal and R projective stages.
//
// Internal stage i combines the unconstrained fields at internal stages
// through Aq/Ap and the projection fields at projective stages through
// AqHat/ApHat. Projective stage j does the same through AqTilde/ApTilde and
// AqCheck/ApCheck, and carries the constraint.
type Additive struct {
	Name  string
	Order int
	S     int
	R     int

	Aq, Ap           *mat.Dense // S×S
	AqHat, ApHat     *mat.Dense // S×R
	AqTilde, ApTilde *mat.Dense // R×S
	AqCheck, ApCheck *mat.Dense // R×R

	Bq, Bp       []float64 // S
	BetaQ, BetaP []float64 // R
	C            []float64 // S
	CTilde       []float64 // R
}

// NewAdditive validates every coefficient shape against (S, R) and returns
// a deep copy of a.
func NewAdditive(a Additive) (*Additive, error) {
	s, r := a.S, a.R
	if s < 1 || r < 1 {
		return nil, fmt.Errorf("%w: additive tableau %q needs s, r >= 1, got s=%d r=%d",
			dynamo.ErrConfiguration, a.Name, s, r)
	}
	checks := []error{
		checkDims(a.Name, "Aq", a.Aq, s, s),
		checkDims(a.Name, "Ap", a.Ap, s, s),
		checkDims(a.Name, "AqHat", a.AqHat, s, r),
		checkDims(a.Name, "ApHat", a.ApHat, s, r),
		checkDims(a.Name, "AqTilde", a.AqTilde, r, s),
		checkDims(a.Name, "ApTilde", a.ApTilde, r, s),
		checkDims(a.Name, "AqCheck", a.AqCheck, r, r),
		checkDims(a.Name, "ApCheck", a.ApCheck, r, r),
		checkLen(a.Name, "Bq", a.Bq, s),
		checkLen(a.Name, "Bp", a.Bp, s),
		checkLen(a.Name, "BetaQ", a.BetaQ, r),
		checkLen(a.Name, "BetaP", a.BetaP, r),
		checkLen(a.Name, "C", a.C, s),
		checkLen(a.Name, "CTilde", a.CTilde, r),
	}
	for _, err := range checks {
		if err != nil {
			return nil, err
		}
	}

	out := a
	out.Aq, out.Ap = copyDense(a.Aq), copyDense(a.Ap)
	out.AqHat, out.ApHat = copyDense(a.AqHat), copyDense(a.ApHat)
	out.AqTilde, out.ApTilde = copyDense(a.AqTilde), copyDense(a.ApTilde)
	out.AqCheck, out.ApCheck = copyDense(a.AqCheck), copyDense(a.ApCheck)
	out.Bq = append([]float64(nil), a.Bq...)
	out.Bp = append([]float64(nil), a.Bp...)
	out.BetaQ = append([]float64(nil), a.BetaQ...)
	out.BetaP = append([]float64(nil), a.BetaP...)
	out.C = append([]float64(nil), a.C...)
	out.CTilde = append([]float64(nil), a.CTilde...)
	return &out, nil
}

// StandardProjection turns base into a projection method with one
// projective stage at the end of the step: the internal stages ignore the
// multiplier and the update is projected onto the constraint manifold.
func StandardProjection(base *Tableau) (*Additive, error) {
	return projection(base, "projected "+base.Name, 0)
}

// SymmetricProjection splits the projection evenly between the start and
// the end of the step, which keeps a symmetric base method symmetric.
func SymmetricProjection(base *Tableau) (*Additive, error) {
	return projection(base, "symmetric projected "+base.Name, 0.5)
}

func projection(base *Tableau, name string, hat float64) (*Additive, error) {
	s := base.S
	aHat := mat.NewDense(s, 1, nil)
	if hat != 0 {
		for i := 0; i < s; i++ {
			aHat.Set(i, 0, hat)
		}
	}
	aTilde := mat.NewDense(1, s, nil)
	aTilde.SetRow(0, base.B)

	return NewAdditive(Additive{
		Name:    name,
		Order:   base.Order,
		S:       s,
		R:       1,
		Aq:      base.A,
		Ap:      base.A,
		AqHat:   aHat,
		ApHat:   aHat,
		AqTilde: aTilde,
		ApTilde: aTilde,
		AqCheck: mat.NewDense(1, 1, []float64{1}),
		ApCheck: mat.NewDense(1, 1, []float64{1}),
		Bq:      base.B,
		Bp:      base.B,
		BetaQ:   []float64{1},
		BetaP:   []float64{1},
		C:       base.C,
		CTilde:  []float64{1},
	})
}
