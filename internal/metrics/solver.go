package metrics

import (
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
)

// Iterations is the mean number of Newton iterations per step. The
// initial snapshot is not a step and is ignored.
type Iterations struct {
	name    string
	sum     int
	samples int
}

func NewIterations() *Iterations {
	return &Iterations{name: "iterations"}
}

func (it *Iterations) Name() string { return it.name }

func (it *Iterations) Observe(n int, snap dynamo.Snapshot, rep integrators.Report) {
	if n == 0 {
		return
	}
	it.sum += rep.Iterations
	it.samples++
}

func (it *Iterations) Value() float64 {
	if it.samples == 0 {
		return 0
	}
	return float64(it.sum) / float64(it.samples)
}

func (it *Iterations) Reset() {
	it.sum = 0
	it.samples = 0
}

// Convergence is the fraction of steps whose solve met the tolerance.
type Convergence struct {
	name      string
	converged int
	samples   int
}

func NewConvergence() *Convergence {
	return &Convergence{name: "convergence"}
}

func (c *Convergence) Name() string { return c.name }

func (c *Convergence) Observe(n int, snap dynamo.Snapshot, rep integrators.Report) {
	if n == 0 {
		return
	}
	c.samples++
	if rep.Converged() {
		c.converged++
	}
}

func (c *Convergence) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return float64(c.converged) / float64(c.samples)
}

func (c *Convergence) Reset() {
	c.converged = 0
	c.samples = 0
}

// Residual is the largest final residual relative to its tolerance. Values
// above one mark steps accepted without convergence.
type Residual struct {
	name string
	max  float64
}

func NewResidual() *Residual {
	return &Residual{name: "residual_ratio"}
}

func (r *Residual) Name() string { return r.name }

func (r *Residual) Observe(n int, snap dynamo.Snapshot, rep integrators.Report) {
	if n == 0 || rep.Tolerance <= 0 {
		return
	}
	r.max = math.Max(r.max, rep.Residual/rep.Tolerance)
}

func (r *Residual) Value() float64 { return r.max }
func (r *Residual) Reset()         { r.max = 0 }
