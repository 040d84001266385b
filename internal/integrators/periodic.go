package integrators

import "math"

// Wrap reduces every coordinate with a nonzero period into [0, period) and
// writes the applied offset into shift (when non-nil). Reduced coordinates
// are left unchanged, so Wrap is idempotent.
func Wrap(q, periodicity, shift []float64) {
	for k := range q {
		if shift != nil {
			shift[k] = 0
		}
		if k >= len(periodicity) || periodicity[k] == 0 {
			continue
		}
		p := periodicity[k]
		r := math.Mod(q[k], p)
		if r < 0 {
			r += p
		}
		if r >= p {
			r = 0
		}
		if shift != nil {
			shift[k] = r - q[k]
		}
		q[k] = r
	}
}
