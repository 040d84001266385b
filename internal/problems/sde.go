package problems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearSDE is the scalar Stratonovich equation dq = λq dt + μq ∘ dW.
type LinearSDE struct {
	Lambda float64
	Mu     float64
	X0     float64
}

func NewLinearSDE() *LinearSDE {
	return &LinearSDE{Lambda: -1, Mu: 0.5, X0: 1}
}

func (l *LinearSDE) Dim() int      { return 1 }
func (l *LinearSDE) NoiseDim() int { return 1 }

func (l *LinearSDE) Q0() []float64 { return []float64{l.X0} }

func (l *LinearSDE) Drift(t float64, q, v []float64) {
	v[0] = l.Lambda * q[0]
}

func (l *LinearSDE) Diffusion(t float64, q []float64, b *mat.Dense) {
	b.Set(0, 0, l.Mu*q[0])
}

// PathSolution is the exact value q₀ exp(λt + μW) for the Wiener value W
// reached at time t.
func (l *LinearSDE) PathSolution(t, w float64) float64 {
	return l.X0 * math.Exp(l.Lambda*t+l.Mu*w)
}

func (l *LinearSDE) GetParams() map[string]float64 {
	return map[string]float64{"lambda": l.Lambda, "mu": l.Mu, "q0": l.X0}
}

func (l *LinearSDE) SetParam(name string, value float64) error {
	switch name {
	case "lambda":
		l.Lambda = value
	case "mu":
		l.Mu = value
	case "q0":
		l.X0 = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// KuboOscillator is the stochastic rotation
//
//	dq = ω J q dt + ν J q ∘ dW,  J = [0 -1; 1 0],
//
// whose solutions stay on the circle |q| = |q₀|.
type KuboOscillator struct {
	Omega float64
	Nu    float64
	X0    []float64
}

func NewKuboOscillator() *KuboOscillator {
	return &KuboOscillator{Omega: 1, Nu: 0.5, X0: []float64{0.5, 0}}
}

func (k *KuboOscillator) Dim() int      { return 2 }
func (k *KuboOscillator) NoiseDim() int { return 1 }

func (k *KuboOscillator) Q0() []float64 { return append([]float64(nil), k.X0...) }

func (k *KuboOscillator) Drift(t float64, q, v []float64) {
	v[0] = -k.Omega * q[1]
	v[1] = k.Omega * q[0]
}

func (k *KuboOscillator) Diffusion(t float64, q []float64, b *mat.Dense) {
	b.Set(0, 0, -k.Nu*q[1])
	b.Set(1, 0, k.Nu*q[0])
}

// Energy is ½|q|², conserved along every path.
func (k *KuboOscillator) Energy(t float64, q []float64) float64 {
	return 0.5 * (q[0]*q[0] + q[1]*q[1])
}

// PathSolution rotates q₀ by ωt + νW.
func (k *KuboOscillator) PathSolution(t, w float64, q []float64) {
	s, c := math.Sincos(k.Omega*t + k.Nu*w)
	q[0] = c*k.X0[0] - s*k.X0[1]
	q[1] = s*k.X0[0] + c*k.X0[1]
}

func (k *KuboOscillator) GetParams() map[string]float64 {
	return map[string]float64{"omega": k.Omega, "nu": k.Nu}
}

func (k *KuboOscillator) SetParam(name string, value float64) error {
	switch name {
	case "omega":
		k.Omega = value
	case "nu":
		k.Nu = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
