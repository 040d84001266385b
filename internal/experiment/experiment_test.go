package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/geomint/internal/config"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryPresetBuilds(t *testing.T) {
	r := NewRegistry()
	for problem := range config.Presets {
		for _, name := range config.ListPresets(problem) {
			cfg := config.GetPreset(problem, name)
			e, err := New(cfg, r)
			require.NoError(t, err, "%s/%s", problem, name)
			in, err := e.Integrator(0)
			require.NoError(t, err, "%s/%s", problem, name)
			assert.Equal(t, e.Problem().Dim(), in.Dim())
		}
	}
}

func TestBuildRejectsWrongKind(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Problem = "kubo"
	cfg.Integrator = "vprk"
	e, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = e.Integrator(0)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	_, err = e.Run(context.Background())
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestNewRejectsUnknownNames(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Integrator = "leapfrog"
	_, err := New(cfg, nil)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	cfg = config.DefaultConfig()
	cfg.Problem = "lorenz"
	_, err = New(cfg, nil)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	cfg = config.DefaultConfig()
	cfg.Params = map[string]float64{"k": -1}
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestListFor(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"euler", "firk", "rk4", "verlet"}, r.ListFor(problems.KindODE))
	assert.Equal(t, []string{"dgvi", "vprk"}, r.ListFor(problems.KindIODE))
	assert.Equal(t, []string{"park", "spark"}, r.ListFor(problems.KindPDAE))
	assert.Equal(t, []string{"sirk"}, r.ListFor(problems.KindSDE))
	assert.Len(t, r.ListIntegrators(), 9)
}

func TestRunOscillator(t *testing.T) {
	cfg := config.GetPreset("oscillator", "gauss")
	cfg.Steps = 50
	e, err := New(cfg, nil)
	require.NoError(t, err)

	out, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 51, out.Trajectories.Path(0).Len())

	total, bad := out.StepsTaken()
	assert.Equal(t, 50, total)
	assert.Zero(t, bad)

	sum := out.Summary()
	assert.Less(t, sum["energy_drift"], 1e-9)
	assert.Equal(t, 1.0, sum["convergence"])

	meta, err := e.Metadata(out)
	require.NoError(t, err)
	assert.Equal(t, "oscillator", meta.Problem)
	assert.Contains(t, meta.Integrator, "Gauss")
	assert.Equal(t, 50, meta.StepsTaken)
}

func TestRunKuboEnsemble(t *testing.T) {
	cfg := config.GetPreset("kubo", "gauss")
	cfg.Steps = 20
	e, err := New(cfg, nil)
	require.NoError(t, err)
	e.SetWorkers(2)

	out, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Results, cfg.Paths)

	final := out.Trajectories.Final()
	require.Len(t, final, cfg.Paths)
	assert.NotEqual(t, final[0], final[1], "paths must use distinct seeds")
	assert.Less(t, out.Summary()["energy_drift"], 1e-9)
}

func TestRunAppliesParams(t *testing.T) {
	cfg := config.GetPreset("pendulum", "swing")
	cfg.Steps = 5
	e, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.2, e.Problem().Q0[0])
}
