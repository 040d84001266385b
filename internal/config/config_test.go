package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/nlsolve"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Problem != "oscillator" {
		t.Errorf("expected problem oscillator, got %s", cfg.Problem)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration() <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "problem: kubo\nintegrator: sirk\nsolver:\n  max_iter: 7\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Problem != "kubo" || cfg.Integrator != "sirk" {
		t.Errorf("unexpected problem/integrator %s/%s", cfg.Problem, cfg.Integrator)
	}
	if cfg.Solver.MaxIter != 7 {
		t.Errorf("expected max_iter 7, got %d", cfg.Solver.MaxIter)
	}
	if cfg.Solver.AbsTol != nlsolve.DefaultConfig().AbsTol {
		t.Errorf("abs_tol should keep its default, got %g", cfg.Solver.AbsTol)
	}
	if cfg.Steps != DefaultSteps {
		t.Errorf("steps should keep its default, got %d", cfg.Steps)
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("steps: 40\nparams:\n  omega: 1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("pendulum", "swing")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Steps != 40 {
		t.Errorf("expected steps 40 from the file, got %d", cfg.Steps)
	}
	if cfg.Problem != "pendulum" || cfg.Params["theta"] != 0.2 {
		t.Errorf("preset fields lost: problem %q params %v", cfg.Problem, cfg.Params)
	}
	if cfg.Params["omega"] != 1.5 {
		t.Errorf("expected omega 1.5 from the file, got %v", cfg.Params["omega"])
	}
	if base.Steps == 40 || base.Params["omega"] != 0 {
		t.Error("LoadOver modified its base")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("pendulum", "rotating")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Steps != cfg.Steps || got.Dt != cfg.Dt || len(got.Periodicity) != 2 {
		t.Errorf("loaded config differs: %+v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative dt", func(c *Config) { c.Dt = -1 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"no problem", func(c *Config) { c.Problem = "" }},
		{"policy", func(c *Config) { c.OnFailure = "retry" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"jacobian", func(c *Config) { c.Solver.Jacobian = "analytic" }},
		{"max iter", func(c *Config) { c.Solver.MaxIter = -1 }},
		{"truncation", func(c *Config) { c.Truncation = -0.5 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if !errors.Is(err, dynamo.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", tt.name, err)
		}
	}

	cfg := DefaultConfig()
	cfg.Dt = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero dt is allowed: %v", err)
	}
}

func TestIntegratorConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 10
	cfg.OnFailure = "abort"
	cfg.Solver.Jacobian = "central"
	cfg.Truncation = 2

	icfg, err := cfg.IntegratorConfig(3, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if icfg.Seed != 13 {
		t.Errorf("expected per-path seed 13, got %d", icfg.Seed)
	}
	if icfg.Policy != integrators.Abort {
		t.Errorf("expected abort policy, got %v", icfg.Policy)
	}
	if icfg.Solver.Jacobian != nlsolve.Central {
		t.Errorf("expected central differences, got %v", icfg.Solver.Jacobian)
	}
	if icfg.Truncation != 2 {
		t.Errorf("expected truncation 2, got %g", icfg.Truncation)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	l, err := cfg.SlogLevel()
	if err != nil || l != slog.LevelDebug {
		t.Errorf("expected debug, got %v (%v)", l, err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "swing")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Params["theta"] != 0.2 {
		t.Errorf("expected theta 0.2, got %f", cfg.Params["theta"])
	}
	if cfg.Solver.MaxIter == 0 || cfg.LogLevel == "" {
		t.Error("preset should be filled in over the defaults")
	}

	cfg.Params["theta"] = 1
	if Presets["pendulum"]["swing"].Params["theta"] != 0.2 {
		t.Error("GetPreset must return a copy")
	}
}

func TestPresetsValidate(t *testing.T) {
	for problem := range Presets {
		for _, name := range ListPresets(problem) {
			if err := GetPreset(problem, name).Validate(); err != nil {
				t.Errorf("%s/%s: %v", problem, name, err)
			}
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("pendulum", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "swing")
	if cfg != nil {
		t.Error("expected nil for nonexistent problem")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("oscillator")
	if len(presets) != 3 || presets[0] != "gauss" {
		t.Errorf("unexpected oscillator presets %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent problem")
	}
}
