package integrators

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// WienerSource draws Wiener increments over a step of length dt.
type WienerSource interface {
	Increment(dt float64, dW []float64)
}

type gaussianWiener struct {
	std distuv.Normal
}

// NewGaussianWiener returns a source of independent N(0, dt) increments.
// Equal seeds give equal paths.
func NewGaussianWiener(seed uint64) WienerSource {
	return &gaussianWiener{
		std: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)},
	}
}

func (g *gaussianWiener) Increment(dt float64, dW []float64) {
	s := math.Sqrt(dt)
	for m := range dW {
		dW[m] = s * g.std.Rand()
	}
}

// ReplayWiener hands out a fixed sequence of increments, one slice per
// step, and zeros once the sequence is exhausted.
type ReplayWiener struct {
	Steps [][]float64
	next  int
}

func (r *ReplayWiener) Increment(dt float64, dW []float64) {
	if r.next >= len(r.Steps) {
		for m := range dW {
			dW[m] = 0
		}
		return
	}
	copy(dW, r.Steps[r.next])
	r.next++
}

// Truncate clips each component of dW to [-a, a]. A non-positive bound
// leaves dW untouched.
func Truncate(dW []float64, a float64) {
	if a <= 0 {
		return
	}
	for m, w := range dW {
		dW[m] = math.Max(-a, math.Min(a, w))
	}
}
