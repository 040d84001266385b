// Package trajectory stores integrated states in memory, one cell per
// time step.
package trajectory

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
)

// Solution is an append-only trajectory of one sample path. Cell n holds
// the state after n steps; cell 0 is the initial condition. A Solution is
// not safe for concurrent writers.
type Solution struct {
	T      []float64
	Q      []dynamo.State
	P      []dynamo.State
	Lambda []dynamo.State
}

var _ dynamo.Sink = (*Solution)(nil)

func NewSolution(capacity int) *Solution {
	if capacity < 0 {
		capacity = 0
	}
	return &Solution{
		T: make([]float64, 0, capacity),
		Q: make([]dynamo.State, 0, capacity),
	}
}

// Record writes cell n. Cells are written exactly once and in order.
func (s *Solution) Record(n int, snap dynamo.Snapshot) error {
	switch {
	case n < len(s.T):
		return fmt.Errorf("%w: step %d", dynamo.ErrCellWritten, n)
	case n > len(s.T):
		return fmt.Errorf("%w: step %d recorded after %d cells", dynamo.ErrDimensionMismatch, n, len(s.T))
	}
	if len(s.Q) > 0 {
		first := s.At(0)
		if err := sameShape("q", first.Q, snap.Q); err != nil {
			return err
		}
		if err := sameShape("p", first.P, snap.P); err != nil {
			return err
		}
		if err := sameShape("λ", first.Lambda, snap.Lambda); err != nil {
			return err
		}
	}

	s.T = append(s.T, snap.T)
	s.Q = append(s.Q, snap.Q.Clone())
	if snap.P != nil {
		s.P = append(s.P, snap.P.Clone())
	}
	if snap.Lambda != nil {
		s.Lambda = append(s.Lambda, snap.Lambda.Clone())
	}
	return nil
}

func sameShape(what string, want, got dynamo.State) error {
	if (want == nil) != (got == nil) || len(want) != len(got) {
		return dynamo.Mismatch(what, len(got), len(want))
	}
	return nil
}

func (s *Solution) Len() int { return len(s.T) }

func (s *Solution) Dim() int {
	if len(s.Q) == 0 {
		return 0
	}
	return len(s.Q[0])
}

// At returns cell n without copying.
func (s *Solution) At(n int) dynamo.Snapshot {
	snap := dynamo.Snapshot{T: s.T[n], Q: s.Q[n]}
	if n < len(s.P) {
		snap.P = s.P[n]
	}
	if n < len(s.Lambda) {
		snap.Lambda = s.Lambda[n]
	}
	return snap
}

// Last returns the most recent cell, or false if nothing was recorded.
func (s *Solution) Last() (dynamo.Snapshot, bool) {
	if len(s.T) == 0 {
		return dynamo.Snapshot{}, false
	}
	return s.At(len(s.T) - 1), true
}

// Coordinate returns the time series of q_k.
func (s *Solution) Coordinate(k int) ([]float64, error) {
	if k < 0 || k >= s.Dim() {
		return nil, fmt.Errorf("%w: coordinate %d of %d", dynamo.ErrDimensionMismatch, k, s.Dim())
	}
	out := make([]float64, len(s.Q))
	for n, q := range s.Q {
		out[n] = q[k]
	}
	return out, nil
}
