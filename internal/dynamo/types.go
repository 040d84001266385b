package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 { return floats.Norm(s, 2) }

// MaxAbs returns the infinity norm of s.
func (s State) MaxAbs() float64 { return floats.Norm(s, math.Inf(1)) }

// Snapshot is the state tuple written to the trajectory store after each
// step. P and Lambda are nil for equations that do not carry them.
type Snapshot struct {
	T      float64
	Q      State
	P      State
	Lambda State
}

func (s Snapshot) Clone() Snapshot {
	c := Snapshot{T: s.T, Q: s.Q.Clone()}
	if s.P != nil {
		c.P = s.P.Clone()
	}
	if s.Lambda != nil {
		c.Lambda = s.Lambda.Clone()
	}
	return c
}

func (s Snapshot) IsValid() bool {
	return s.Q.IsValid() && s.P.IsValid() && s.Lambda.IsValid()
}

// Sink receives the advanced state of step n. Implementations treat each
// (path, n) cell as write-once.
type Sink interface {
	Record(n int, s Snapshot) error
}
