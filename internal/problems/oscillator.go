package problems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// oscillator carries the data shared by every formulation of the harmonic
// oscillator q̈₁ = -k q₁, written as a first order system in (q₁, q₂ = q̇₁).
type oscillator struct {
	K  float64
	T0 float64
	X0 []float64
}

func newOscillator() oscillator {
	return oscillator{K: 0.5, X0: []float64{0.5, 0}}
}

func (o *oscillator) Dim() int { return 2 }

func (o *oscillator) Omega() float64 { return math.Sqrt(o.K) }

func (o *oscillator) Q0() []float64 { return append([]float64(nil), o.X0...) }

// P0 is consistent with the one-form (q₂, 0).
func (o *oscillator) P0() []float64 { return []float64{o.X0[1], 0} }

func (o *oscillator) Energy(t float64, q []float64) float64 {
	return 0.5*q[1]*q[1] + 0.5*o.K*q[0]*q[0]
}

// Solution writes the closed form q₁ = A sin(ωt + φ) and its derivative.
func (o *oscillator) Solution(t float64, q []float64) {
	w := o.Omega()
	s, c := math.Sincos(w * (t - o.T0))
	q[0] = o.X0[0]*c + o.X0[1]/w*s
	q[1] = -o.X0[0]*w*s + o.X0[1]*c
}

// Amplitude returns A and the phase φ of q₁ = A sin(ωt + φ).
func (o *oscillator) Amplitude() (float64, float64) {
	w := o.Omega()
	a := math.Hypot(o.X0[0], o.X0[1]/w)
	return a, math.Atan2(o.X0[0], o.X0[1]/w) - w*o.T0
}

func (o *oscillator) GetParams() map[string]float64 {
	return map[string]float64{"k": o.K, "q1": o.X0[0], "q2": o.X0[1]}
}

func (o *oscillator) SetParam(name string, value float64) error {
	switch name {
	case "k":
		if value <= 0 {
			return fmt.Errorf("k must be positive, got %g", value)
		}
		o.K = value
	case "q1":
		o.X0[0] = value
	case "q2":
		o.X0[1] = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// Oscillator is the explicit form v = (q₂, -k q₁).
type Oscillator struct{ oscillator }

func NewOscillator() *Oscillator { return &Oscillator{newOscillator()} }

func (o *Oscillator) VectorField(t float64, q, v []float64) {
	v[0] = q[1]
	v[1] = -o.K * q[0]
}

// OscillatorIODE derives the oscillator from the degenerate Lagrangian
// L = q₂ q̇₁ - ½q₂² - ½k q₁², so ϑ = (q₂, 0) and f = (-k q₁, q̇₁ - q₂).
type OscillatorIODE struct{ oscillator }

func NewOscillatorIODE() *OscillatorIODE { return &OscillatorIODE{newOscillator()} }

func (o *OscillatorIODE) OneForm(t float64, q, v, p []float64) {
	p[0] = q[1]
	p[1] = 0
}

func (o *OscillatorIODE) Force(t float64, q, v, f []float64) {
	f[0] = -o.K * q[0]
	f[1] = v[0] - q[1]
}

// Projection is ∇ϑ(q)ᵀλ.
func (o *OscillatorIODE) Projection(t float64, q, lambda, g []float64) {
	g[0] = 0
	g[1] = lambda[0]
}

func (o *OscillatorIODE) InitialVelocity(t float64, q, p, v []float64) {
	v[0] = q[1]
	v[1] = -o.K * q[0]
}

// OscillatorPDAE is the partitioned index-two form with the constraint
// φ = p - ϑ(q) = (p₁ - q₂, p₂).
type OscillatorPDAE struct{ oscillator }

func NewOscillatorPDAE() *OscillatorPDAE { return &OscillatorPDAE{newOscillator()} }

func (o *OscillatorPDAE) Velocity(t float64, q, p, v []float64) {
	v[0] = q[1]
	v[1] = -o.K * q[0]
}

func (o *OscillatorPDAE) Force(t float64, q, p, f []float64) {
	f[0] = -o.K * q[0]
	f[1] = 0
}

func (o *OscillatorPDAE) Projection(t float64, q, p, lambda, u, g []float64) {
	copy(u, lambda)
	g[0] = 0
	g[1] = lambda[0]
}

func (o *OscillatorPDAE) Constraint(t float64, q, p, phi []float64) {
	phi[0] = p[0] - q[1]
	phi[1] = p[1]
}

func (o *OscillatorPDAE) Lambda0() []float64 { return make([]float64, 2) }

// ConstraintNorm returns ‖φ(q, p)‖∞.
func (o *OscillatorPDAE) ConstraintNorm(t float64, q, p []float64) float64 {
	phi := make([]float64, 2)
	o.Constraint(t, q, p, phi)
	return floats.Norm(phi, math.Inf(1))
}
