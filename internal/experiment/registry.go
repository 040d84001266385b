package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/geomint/internal/basis"
	"github.com/san-kum/geomint/internal/config"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/metrics"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/quadrature"
	"github.com/san-kum/geomint/internal/sim"
	"github.com/san-kum/geomint/internal/tableau"
)

// Builder constructs an integrator for a problem of the matching kind.
type Builder func(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error)

type Method struct {
	Name        string
	Kind        problems.Kind
	Description string
	Build       Builder
}

type Registry struct {
	methods map[string]Method
}

func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Method)}

	r.Register(Method{"firk", problems.KindODE, "fully implicit Runge-Kutta", buildFIRK})
	r.Register(Method{"euler", problems.KindODE, "explicit Euler", explicit(integrators.NewEuler)})
	r.Register(Method{"rk4", problems.KindODE, "classical explicit Runge-Kutta", explicit(integrators.NewRK4)})
	r.Register(Method{"verlet", problems.KindODE, "velocity Verlet on (q, v) pairs", buildVerlet})
	r.Register(Method{"vprk", problems.KindIODE, "variational partitioned Runge-Kutta", buildVPRK})
	r.Register(Method{"dgvi", problems.KindIODE, "discontinuous Galerkin variational", buildDGVI})
	r.Register(Method{"park", problems.KindPDAE, "projected additive Runge-Kutta, standard projection", buildPARK(tableau.StandardProjection)})
	r.Register(Method{"spark", problems.KindPDAE, "projected additive Runge-Kutta, symmetric projection", buildPARK(tableau.SymmetricProjection)})
	r.Register(Method{"sirk", problems.KindSDE, "stochastic implicit Runge-Kutta (Stratonovich)", buildSIRK})

	return r
}

func (r *Registry) Register(m Method) { r.methods[m.Name] = m }

func (r *Registry) Method(name string) (Method, error) {
	m, ok := r.methods[strings.ToLower(name)]
	if !ok {
		return Method{}, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrConfiguration, name)
	}
	return m, nil
}

// Build checks that the integrator handles the problem's formulation and
// constructs it from the problem's initial data.
func (r *Registry) Build(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
	m, err := r.Method(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	if m.Kind != p.Kind {
		return nil, fmt.Errorf("%w: integrator %s needs a %s problem, %s is %s",
			dynamo.ErrConfiguration, m.Name, m.Kind, p.Name, p.Kind)
	}
	return m.Build(p, cfg, icfg)
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListFor returns the integrators able to handle problems of kind k.
func (r *Registry) ListFor(k problems.Kind) []string {
	var names []string
	for _, name := range r.ListIntegrators() {
		if r.methods[name].Kind == k {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) ListProblems() []string { return problems.Names() }

// DefaultMetrics returns fresh metrics suited to the problem.
func (r *Registry) DefaultMetrics(p *problems.Problem) []sim.Metric {
	ms := []sim.Metric{metrics.NewIterations(), metrics.NewConvergence(), metrics.NewResidual()}
	if h, ok := p.Equation.(dynamo.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergyDrift(h))
	}
	switch eq := p.Equation.(type) {
	case dynamo.PDAE:
		ms = append(ms, metrics.NewConstraintViolation(eq))
	case dynamo.IODE:
		ms = append(ms, metrics.NewMomentumConsistency(eq))
	}
	return ms
}

func buildFIRK(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
	tab, err := tableau.Lookup(cfg.Tableau, cfg.Stages)
	if err != nil {
		return nil, err
	}
	return integrators.NewFIRK(p.Equation.(dynamo.ODE), tab, p.T0, p.Q0, cfg.Dt, icfg)
}

type explicitCtor func(dynamo.ODE, float64, []float64, float64, integrators.Config) (*integrators.Explicit, error)

func explicit(ctor explicitCtor) Builder {
	return func(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
		return ctor(p.Equation.(dynamo.ODE), p.T0, p.Q0, cfg.Dt, icfg)
	}
}

func buildVerlet(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
	return integrators.NewVerlet(p.Equation.(dynamo.ODE), p.T0, p.Q0, cfg.Dt, icfg)
}

func buildVPRK(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
	tab, err := tableau.Lookup(cfg.Tableau, cfg.Stages)
	if err != nil {
		return nil, err
	}
	ptab, err := tableau.VariationalPartitioned(tab)
	if err != nil {
		return nil, err
	}
	return integrators.NewVPRK(p.Equation.(dynamo.IODE), ptab, p.T0, p.Q0, p.P0, cfg.Dt, icfg)
}

// buildDGVI uses a Lagrange basis on Cfg.Stages Gauss-Lobatto nodes and a
// Gauss-Legendre rule with QuadNodes points, one fewer than the basis by
// default.
func buildDGVI(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
	stages := cfg.Stages
	if stages < 2 {
		stages = 2
	}
	nodes, err := quadrature.GaussLobatto(stages)
	if err != nil {
		return nil, err
	}
	b, err := basis.NewLagrange(nodes.Nodes())
	if err != nil {
		return nil, err
	}
	qn := cfg.QuadNodes
	if qn == 0 {
		qn = max(stages-1, 1)
	}
	rule, err := quadrature.GaussLegendre(qn)
	if err != nil {
		return nil, err
	}
	return integrators.NewDGVI(p.Equation.(dynamo.IODE), b, rule, p.T0, p.Q0, p.P0, cfg.Dt, icfg)
}

func buildPARK(projection func(*tableau.Tableau) (*tableau.Additive, error)) Builder {
	return func(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
		base, err := tableau.Lookup(cfg.Tableau, cfg.Stages)
		if err != nil {
			return nil, err
		}
		tab, err := projection(base)
		if err != nil {
			return nil, err
		}
		return integrators.NewPARK(p.Equation.(dynamo.PDAE), tab, p.T0, p.Q0, p.P0, p.Lambda0, cfg.Dt, icfg)
	}
}

func buildSIRK(p *problems.Problem, cfg *config.Config, icfg integrators.Config) (integrators.Integrator, error) {
	var (
		tab *tableau.Stochastic
		err error
	)
	switch strings.ToLower(cfg.Tableau) {
	case "", "midpoint", "stochastic-midpoint":
		tab = tableau.StochasticMidpoint()
	case "gauss", "gauss-legendre", "stochastic-gauss":
		tab, err = tableau.StochasticGauss(cfg.Stages)
	default:
		return nil, fmt.Errorf("%w: unknown stochastic tableau %q", dynamo.ErrConfiguration, cfg.Tableau)
	}
	if err != nil {
		return nil, err
	}
	return integrators.NewSIRK(p.Equation.(dynamo.SDE), tab, p.T0, p.Q0, cfg.Dt, icfg)
}
