package trajectory

import (
	"fmt"

	"github.com/san-kum/geomint/internal/dynamo"
)

// Ensemble holds one Solution per sample path. Distinct paths may be
// written from distinct goroutines.
type Ensemble struct {
	paths []*Solution
}

func NewEnsemble(numPaths, capacity int) *Ensemble {
	e := &Ensemble{paths: make([]*Solution, numPaths)}
	for i := range e.paths {
		e.paths[i] = NewSolution(capacity)
	}
	return e
}

func (e *Ensemble) Len() int { return len(e.paths) }

// Path returns the trajectory of sample path i.
func (e *Ensemble) Path(i int) *Solution { return e.paths[i] }

// Sink returns path i as a dynamo.Sink, checking the index.
func (e *Ensemble) Sink(i int) (dynamo.Sink, error) {
	if i < 0 || i >= len(e.paths) {
		return nil, fmt.Errorf("%w: path %d of %d", dynamo.ErrDimensionMismatch, i, len(e.paths))
	}
	return e.paths[i], nil
}

// Final collects the last recorded q of every path. Paths with no cells
// are skipped.
func (e *Ensemble) Final() []dynamo.State {
	out := make([]dynamo.State, 0, len(e.paths))
	for _, p := range e.paths {
		if last, ok := p.Last(); ok {
			out = append(out, last.Q)
		}
	}
	return out
}
