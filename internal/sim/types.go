package sim

import (
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
)

// Metric accumulates a scalar over a run. Observe sees the initial
// snapshot as step 0 with a zero Report, then every accepted step.
type Metric interface {
	Name() string
	Observe(n int, snap dynamo.Snapshot, rep integrators.Report)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(n int, snap dynamo.Snapshot, rep integrators.Report)
}

type Config struct {
	Steps int
	// ValidateState stops the run on the first snapshot holding NaN or
	// Inf.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{Steps: 100, ValidateState: true}
}

type Result struct {
	StepsTaken   int
	Iterations   int
	NonConverged int
	MaxResidual  float64
	Final        dynamo.Snapshot
	Metrics      map[string]float64
	Errors       []error
}

// MeanIterations is the average number of Newton iterations per step.
func (r *Result) MeanIterations() float64 {
	if r.StepsTaken == 0 {
		return 0
	}
	return float64(r.Iterations) / float64(r.StepsTaken)
}
