package problems

import (
	"fmt"
	"math"
)

// Pendulum is the undamped mathematical pendulum in (θ, ω). The angle is
// periodic with period 2π.
type Pendulum struct {
	Gravity float64
	Length  float64
	X0      []float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Gravity: 9.81,
		Length:  1.0,
		X0:      []float64{3, 2},
	}
}

func (p *Pendulum) Dim() int { return 2 }

func (p *Pendulum) Q0() []float64 { return append([]float64(nil), p.X0...) }

func (p *Pendulum) VectorField(t float64, q, v []float64) {
	v[0] = q[1]
	v[1] = -p.Gravity / p.Length * math.Sin(q[0])
}

func (p *Pendulum) Periodicity() []float64 { return []float64{2 * math.Pi, 0} }

// Energy per unit mass and squared length.
func (p *Pendulum) Energy(t float64, q []float64) float64 {
	return 0.5*q[1]*q[1] + p.Gravity/p.Length*(1-math.Cos(q[0]))
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity": p.Gravity,
		"length":  p.Length,
		"theta":   p.X0[0],
		"omega":   p.X0[1],
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		p.Gravity = value
	case "length":
		if value <= 0 {
			return fmt.Errorf("length must be positive, got %g", value)
		}
		p.Length = value
	case "theta":
		p.X0[0] = value
	case "omega":
		p.X0[1] = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
