// Package config holds the YAML run configuration of the geomint CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/nlsolve"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt     = 0.1
	DefaultSteps  = 100
	DefaultStages = 2
)

type Config struct {
	Problem     string             `yaml:"problem"`
	Integrator  string             `yaml:"integrator"`
	Tableau     string             `yaml:"tableau"`
	Stages      int                `yaml:"stages"`
	QuadNodes   int                `yaml:"quad_nodes,omitempty"`
	Dt          float64            `yaml:"dt"`
	Steps       int                `yaml:"steps"`
	Seed        uint64             `yaml:"seed"`
	Paths       int                `yaml:"paths"`
	Truncation  float64            `yaml:"truncation,omitempty"`
	Periodicity []float64          `yaml:"periodicity,omitempty"`
	OnFailure   string             `yaml:"on_failure"`
	LogLevel    string             `yaml:"log_level"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Solver      SolverConfig       `yaml:"solver"`
}

type SolverConfig struct {
	AbsTol         float64 `yaml:"abs_tol"`
	RelTol         float64 `yaml:"rel_tol"`
	MaxIter        int     `yaml:"max_iter"`
	Jacobian       string  `yaml:"jacobian"`
	JacobianUpdate int     `yaml:"jacobian_update"`
}

func DefaultConfig() *Config {
	s := nlsolve.DefaultConfig()
	return &Config{
		Problem:    "oscillator",
		Integrator: "firk",
		Tableau:    "gauss",
		Stages:     DefaultStages,
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Paths:      1,
		OnFailure:  integrators.Continue.String(),
		LogLevel:   "info",
		Solver: SolverConfig{
			AbsTol:         s.AbsTol,
			RelTol:         s.RelTol,
			MaxIter:        s.MaxIter,
			Jacobian:       s.Jacobian.String(),
			JacobianUpdate: s.JacobianUpdate,
		},
	}
}

// Load reads path over the defaults, so missing keys keep their default.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path over a copy of base; base itself is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Periodicity != nil {
		out.Periodicity = append([]float64(nil), c.Periodicity...)
	}
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}

// Duration is the final time reached by Steps steps of Dt.
func (c *Config) Duration() float64 { return float64(c.Steps) * c.Dt }

func (c *Config) Validate() error {
	var errs []string
	if c.Problem == "" {
		errs = append(errs, "problem is required")
	}
	if c.Integrator == "" {
		errs = append(errs, "integrator is required")
	}
	if c.Dt < 0 {
		errs = append(errs, fmt.Sprintf("dt must be non-negative, got %g", c.Dt))
	}
	if c.Steps <= 0 {
		errs = append(errs, fmt.Sprintf("steps must be positive, got %d", c.Steps))
	}
	if c.Stages < 0 || c.QuadNodes < 0 {
		errs = append(errs, "stages and quad_nodes must be non-negative")
	}
	if c.Paths < 0 {
		errs = append(errs, fmt.Sprintf("paths must be non-negative, got %d", c.Paths))
	}
	if c.Truncation < 0 {
		errs = append(errs, fmt.Sprintf("truncation must be non-negative, got %g", c.Truncation))
	}
	if _, err := integrators.ParsePolicy(c.OnFailure); err != nil {
		errs = append(errs, fmt.Sprintf("on_failure: unknown policy %q", c.OnFailure))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.NewtonConfig(); err != nil {
		errs = append(errs, strings.TrimPrefix(err.Error(), dynamo.ErrConfiguration.Error()+": "))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", dynamo.ErrConfiguration, strings.Join(errs, "; "))
	}
	return nil
}

// NewtonConfig converts the solver section.
func (c *Config) NewtonConfig() (nlsolve.Config, error) {
	jac, err := nlsolve.ParseJacobian(c.Solver.Jacobian)
	if err != nil {
		return nlsolve.Config{}, err
	}
	cfg := nlsolve.Config{
		AbsTol:         c.Solver.AbsTol,
		RelTol:         c.Solver.RelTol,
		MaxIter:        c.Solver.MaxIter,
		Jacobian:       jac,
		JacobianUpdate: c.Solver.JacobianUpdate,
	}
	return cfg, cfg.Validate()
}

// IntegratorConfig builds the library configuration of one sample path.
func (c *Config) IntegratorConfig(path int, logger *slog.Logger) (integrators.Config, error) {
	solver, err := c.NewtonConfig()
	if err != nil {
		return integrators.Config{}, err
	}
	policy, err := integrators.ParsePolicy(c.OnFailure)
	if err != nil {
		return integrators.Config{}, err
	}
	cfg := integrators.DefaultConfig()
	cfg.Solver = solver
	cfg.Policy = policy
	cfg.Periodicity = c.Periodicity
	cfg.Truncation = c.Truncation
	cfg.Seed = c.Seed + uint64(path)
	cfg.Logger = logger
	return cfg, nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return l, nil
}
