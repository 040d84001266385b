package integrators

// Parameters is the per-integrator context read by the residual assemblers.
// It changes exactly once per step, before the solve; assembly only reads
// it.
type Parameters struct {
	T  float64
	Dt float64

	Q      []float64
	P      []float64
	Lambda []float64

	// QMinus and QPlus are the traces of the discrete solution at the end
	// of the previous element and the start of the current one.
	QMinus []float64
	QPlus  []float64

	// DW is the Wiener increment of the current step, already truncated.
	DW []float64

	hist history
}

// history keeps the last two accepted states and their velocities for the
// Hermite predictor.
type history struct {
	h     float64 // t_n - t_{n-1}
	qPrev []float64
	vPrev []float64
	v     []float64
}

func newParameters(t, dt float64, q []float64) *Parameters {
	d := len(q)
	return &Parameters{
		T:  t,
		Dt: dt,
		Q:  append([]float64(nil), q...),
		hist: history{
			qPrev: make([]float64, d),
			vPrev: make([]float64, d),
			v:     make([]float64, d),
		},
	}
}

// initHistory seeds the predictor as if the system had moved with constant
// velocity v over the previous step.
func (p *Parameters) initHistory(v []float64) {
	copy(p.hist.v, v)
	copy(p.hist.vPrev, v)
	for k := range p.Q {
		p.hist.qPrev[k] = p.Q[k] - p.Dt*v[k]
	}
	p.hist.h = p.Dt
}

// advance moves the context to the accepted state qNew with velocity vNew.
// The previous state becomes the predictor's left interpolation point.
func (p *Parameters) advance(qNew, vNew []float64) {
	copy(p.hist.qPrev, p.Q)
	copy(p.hist.vPrev, p.hist.v)
	copy(p.Q, qNew)
	copy(p.hist.v, vNew)
	p.hist.h = p.Dt
	p.T += p.Dt
}

// shift moves the predictor history by the same amount a periodic wrap
// moved the current state.
func (p *Parameters) shift(delta []float64) {
	for k, d := range delta {
		p.hist.qPrev[k] += d
	}
}

// Velocity returns the velocity recorded with the current state.
func (p *Parameters) Velocity() []float64 { return p.hist.v }
