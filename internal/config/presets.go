package config

import (
	"math"
	"sort"
)

var Presets = map[string]map[string]*Config{
	"oscillator": {
		"gauss": {
			Problem: "oscillator", Integrator: "firk", Tableau: "gauss", Stages: 2,
			Dt: 0.1, Steps: 200,
		},
		"lobatto": {
			Problem: "oscillator", Integrator: "firk", Tableau: "lobatto-iiia", Stages: 3,
			Dt: 0.1, Steps: 200,
		},
		"rk4": {
			Problem: "oscillator", Integrator: "rk4", Dt: 0.1, Steps: 200,
		},
	},
	"oscillator-iode": {
		"vprk": {
			Problem: "oscillator-iode", Integrator: "vprk", Tableau: "gauss", Stages: 2,
			Dt: 0.1, Steps: 200,
		},
		"dgvi": {
			Problem: "oscillator-iode", Integrator: "dgvi", Stages: 2, QuadNodes: 1,
			Dt: 0.1, Steps: 200,
		},
	},
	"oscillator-pdae": {
		"park": {
			Problem: "oscillator-pdae", Integrator: "park", Tableau: "gauss", Stages: 2,
			Dt: 0.1, Steps: 200,
		},
		"symmetric": {
			Problem: "oscillator-pdae", Integrator: "spark", Tableau: "gauss", Stages: 2,
			Dt: 0.1, Steps: 200,
		},
	},
	"pendulum": {
		"rotating": {
			Problem: "pendulum", Integrator: "firk", Tableau: "gauss", Stages: 2,
			Dt: 0.01, Steps: 2000, Periodicity: []float64{2 * math.Pi, 0},
		},
		"swing": {
			Problem: "pendulum", Integrator: "firk", Tableau: "gauss", Stages: 1,
			Dt: 0.01, Steps: 2000, Params: map[string]float64{"theta": 0.2, "omega": 0},
		},
	},
	"linear-sde": {
		"midpoint": {
			Problem: "linear-sde", Integrator: "sirk", Tableau: "midpoint",
			Dt: 0.01, Steps: 100, Paths: 8, Seed: 1,
		},
	},
	"kubo": {
		"gauss": {
			Problem: "kubo", Integrator: "sirk", Tableau: "gauss", Stages: 2,
			Dt: 0.01, Steps: 1000, Paths: 4, Seed: 1, Truncation: 1,
		},
	},
}

// GetPreset returns the named preset filled in over the defaults, or nil.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	p, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return p.over(DefaultConfig())
}

// over copies the non-zero fields of p onto base.
func (p *Config) over(base *Config) *Config {
	out := base.Clone()
	src := p.Clone()
	out.Problem = src.Problem
	out.Integrator = src.Integrator
	out.Tableau = src.Tableau
	out.Stages = src.Stages
	out.QuadNodes = src.QuadNodes
	out.Dt = src.Dt
	out.Steps = src.Steps
	out.Seed = src.Seed
	out.Truncation = src.Truncation
	out.Periodicity = src.Periodicity
	out.Params = src.Params
	if src.Paths > 0 {
		out.Paths = src.Paths
	}
	return out
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
