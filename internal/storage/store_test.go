package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/trajectory"
)

func sampleSolution(t *testing.T) *trajectory.Solution {
	t.Helper()
	sol := trajectory.NewSolution(3)
	cells := []dynamo.Snapshot{
		{T: 0, Q: dynamo.State{0.5, 0}, P: dynamo.State{0, 0}, Lambda: dynamo.State{0, 0}},
		{T: 0.1, Q: dynamo.State{0.4975, -0.0249}, P: dynamo.State{-0.0249, 0}, Lambda: dynamo.State{1e-17, 0}},
		{T: 0.2, Q: dynamo.State{math.Pi, 1.0 / 3}, P: dynamo.State{1.0 / 3, 0}, Lambda: dynamo.State{0, -2e-300}},
	}
	for n, c := range cells {
		if err := sol.Record(n, c); err != nil {
			t.Fatalf("record %d: %v", n, err)
		}
	}
	return sol
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Problem:    "oscillator-pdae",
		Integrator: "park",
		Tableau:    "gauss",
		Seed:       42,
		Dt:         0.1,
		Steps:      2,
		Metrics:    map[string]float64{"constraint_violation": 1e-14},
	}
	sol := sampleSolution(t)
	runID, err := st.Save(meta, sol)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Problem != "oscillator-pdae" || loaded.Seed != 42 {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Metrics["constraint_violation"] != 1e-14 {
		t.Errorf("expected metric 1e-14, got %g", loaded.Metrics["constraint_violation"])
	}

	back, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if back.Len() != sol.Len() {
		t.Fatalf("expected %d cells, got %d", sol.Len(), back.Len())
	}
	for n := 0; n < sol.Len(); n++ {
		want, got := sol.At(n), back.At(n)
		if want.T != got.T {
			t.Errorf("cell %d: time %g != %g", n, got.T, want.T)
		}
		for _, pair := range [][2]dynamo.State{{want.Q, got.Q}, {want.P, got.P}, {want.Lambda, got.Lambda}} {
			for k := range pair[0] {
				if pair[0][k] != pair[1][k] {
					t.Errorf("cell %d: %v != %v", n, pair[1], pair[0])
				}
			}
		}
	}
}

func TestStoreQOnly(t *testing.T) {
	st := New(t.TempDir())
	sol := trajectory.NewSolution(2)
	_ = sol.Record(0, dynamo.Snapshot{T: 0, Q: dynamo.State{1}})
	_ = sol.Record(1, dynamo.Snapshot{T: 0.5, Q: dynamo.State{2}})

	runID, err := st.Save(RunMetadata{ID: "sde-run", Problem: "linear-sde"}, sol)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID != "sde-run" {
		t.Errorf("expected given id, got %q", runID)
	}
	back, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if back.At(1).P != nil || back.At(1).Q[0] != 2 {
		t.Errorf("unexpected cell %+v", back.At(1))
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	sol := sampleSolution(t)
	for _, id := range []string{"a", "b"} {
		if _, err := st.Save(RunMetadata{ID: id, Problem: "oscillator"}, sol); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	sol := sampleSolution(t)
	if err := ExportJSON(&buf, RunMetadata{Problem: "oscillator-pdae", Dt: 0.1}, sol); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Problem != "oscillator-pdae" || data.Dt != 0.1 {
		t.Errorf("metadata mismatch: %+v", data.RunMetadata)
	}
	if len(data.Times) != 3 || len(data.Q) != 3 || len(data.P) != 3 || len(data.Lambda) != 3 {
		t.Errorf("expected 3 cells per series, got %d/%d/%d/%d", len(data.Times), len(data.Q), len(data.P), len(data.Lambda))
	}
	if data.Q[2][0] != math.Pi {
		t.Errorf("expected q=π, got %g", data.Q[2][0])
	}
}
