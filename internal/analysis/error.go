package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/trajectory"
)

// MaxError returns max_n ‖q_n - q(t_n)‖∞ over every recorded cell.
func MaxError(sol *trajectory.Solution, exact dynamo.Exact) (float64, error) {
	if sol.Len() == 0 {
		return 0, fmt.Errorf("%w: empty trajectory", dynamo.ErrDimensionMismatch)
	}
	ref := make([]float64, sol.Dim())
	e := 0.0
	for n := 0; n < sol.Len(); n++ {
		e = math.Max(e, distance(sol.At(n), exact, ref))
	}
	return e, nil
}

// FinalError is the error of the last recorded cell.
func FinalError(sol *trajectory.Solution, exact dynamo.Exact) (float64, error) {
	last, ok := sol.Last()
	if !ok {
		return 0, fmt.Errorf("%w: empty trajectory", dynamo.ErrDimensionMismatch)
	}
	return distance(last, exact, make([]float64, len(last.Q))), nil
}

func distance(snap dynamo.Snapshot, exact dynamo.Exact, ref []float64) float64 {
	exact.Solution(snap.T, ref)
	d := 0.0
	for k, q := range snap.Q {
		d = math.Max(d, math.Abs(q-ref[k]))
	}
	return d
}
