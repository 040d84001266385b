package integrators

// hermite evaluates the cubic Hermite interpolant through (q0, v0) at τ=0
// and (q1, v1) at τ=1, with h the time between the two. τ > 1 extrapolates.
// q or v may be nil.
func hermite(tau, h float64, q0, v0, q1, v1, q, v []float64) {
	if h == 0 {
		if q != nil {
			copy(q, q1)
		}
		if v != nil {
			copy(v, v1)
		}
		return
	}

	t2, t3 := tau*tau, tau*tau*tau
	if q != nil {
		h00 := 2*t3 - 3*t2 + 1
		h10 := t3 - 2*t2 + tau
		h01 := -2*t3 + 3*t2
		h11 := t3 - t2
		for k := range q {
			q[k] = h00*q0[k] + h10*h*v0[k] + h01*q1[k] + h11*h*v1[k]
		}
	}
	if v != nil {
		d00 := 6*t2 - 6*tau
		d10 := 3*t2 - 4*tau + 1
		d01 := -6*t2 + 6*tau
		d11 := 3*t2 - 2*tau
		for k := range v {
			v[k] = (d00*q0[k]+d01*q1[k])/h + d10*v0[k] + d11*v1[k]
		}
	}
}

// predict extrapolates the accepted history to t + c·Δt.
func (p *Parameters) predict(c float64, q, v []float64) {
	h := p.hist.h
	tau := 1.0
	if h != 0 {
		tau = 1 + c*p.Dt/h
	}
	hermite(tau, h, p.hist.qPrev, p.hist.vPrev, p.Q, p.hist.v, q, v)
}
