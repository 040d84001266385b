// Package problems provides example equations with known solutions or
// invariants, in every formulation the integrators consume.
//
//   - [Oscillator], [OscillatorIODE], [OscillatorPDAE]: harmonic oscillator
//     as an ODE, a degenerate Lagrangian system and a constrained PDAE
//   - [Pendulum]: mathematical pendulum with a periodic angle
//   - [LinearSDE], [KuboOscillator]: Stratonovich SDEs with closed form
//     path solutions
//
// Each model implements [dynamo.Configurable]; the oscillators also
// implement [dynamo.Exact] and all deterministic models [dynamo.Hamiltonian].
package problems

import (
	"fmt"
	"sort"

	"github.com/san-kum/geomint/internal/dynamo"
)

type Kind int

const (
	KindODE Kind = iota
	KindIODE
	KindPDAE
	KindSDE
)

func (k Kind) String() string {
	switch k {
	case KindODE:
		return "ode"
	case KindIODE:
		return "iode"
	case KindPDAE:
		return "pdae"
	case KindSDE:
		return "sde"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Problem bundles an equation with its initial data.
type Problem struct {
	Name        string
	Description string
	Kind        Kind
	Equation    any

	T0          float64
	Q0          []float64
	P0          []float64
	Lambda0     []float64
	Periodicity []float64
}

func (p *Problem) Dim() int { return len(p.Q0) }

// Refresh re-reads the initial data from the equation after a parameter
// change.
func (p *Problem) Refresh() {
	if e, ok := p.Equation.(interface{ Q0() []float64 }); ok {
		p.Q0 = e.Q0()
	}
	if e, ok := p.Equation.(interface{ P0() []float64 }); ok && p.P0 != nil {
		p.P0 = e.P0()
	}
}

// SetParam forwards to the equation when it is configurable and refreshes
// the initial data.
func (p *Problem) SetParam(name string, value float64) error {
	c, ok := p.Equation.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("%w: problem %q has no parameters", dynamo.ErrConfiguration, p.Name)
	}
	if err := c.SetParam(name, value); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	p.Refresh()
	return nil
}

var catalog = map[string]func() *Problem{
	"oscillator": func() *Problem {
		o := NewOscillator()
		return &Problem{Name: "oscillator", Description: "harmonic oscillator, explicit ODE",
			Kind: KindODE, Equation: o, Q0: o.Q0()}
	},
	"oscillator-iode": func() *Problem {
		o := NewOscillatorIODE()
		return &Problem{Name: "oscillator-iode", Description: "harmonic oscillator, degenerate Lagrangian",
			Kind: KindIODE, Equation: o, Q0: o.Q0(), P0: o.P0()}
	},
	"oscillator-pdae": func() *Problem {
		o := NewOscillatorPDAE()
		return &Problem{Name: "oscillator-pdae", Description: "harmonic oscillator, constrained partitioned DAE",
			Kind: KindPDAE, Equation: o, Q0: o.Q0(), P0: o.P0(), Lambda0: o.Lambda0()}
	},
	"pendulum": func() *Problem {
		p := NewPendulum()
		return &Problem{Name: "pendulum", Description: "mathematical pendulum, periodic angle",
			Kind: KindODE, Equation: p, Q0: p.Q0(), Periodicity: p.Periodicity()}
	},
	"linear-sde": func() *Problem {
		l := NewLinearSDE()
		return &Problem{Name: "linear-sde", Description: "scalar linear Stratonovich SDE",
			Kind: KindSDE, Equation: l, Q0: l.Q0()}
	},
	"kubo": func() *Problem {
		k := NewKuboOscillator()
		return &Problem{Name: "kubo", Description: "Kubo oscillator, stochastic rotation",
			Kind: KindSDE, Equation: k, Q0: k.Q0()}
	},
}

// New returns a fresh instance of the named problem.
func New(name string) (*Problem, error) {
	ctor, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown problem %q", dynamo.ErrConfiguration, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
