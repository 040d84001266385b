// Package storage persists runs on disk: one directory per run holding
// metadata.json and trajectory.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/trajectory"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Problem      string             `json:"problem"`
	Integrator   string             `json:"integrator"`
	Tableau      string             `json:"tableau,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         uint64             `json:"seed"`
	Dt           float64            `json:"dt"`
	Steps        int                `json:"steps"`
	Paths        int                `json:"paths,omitempty"`
	StepsTaken   int                `json:"steps_taken"`
	NonConverged int                `json:"non_converged"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes meta and sol under a fresh run directory and returns its id.
// meta.ID and meta.Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, sol *trajectory.Solution) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Problem, meta.Timestamp.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, trajectoryFile), sol); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func header(sol *trajectory.Solution) []string {
	h := []string{"time"}
	if sol.Len() == 0 {
		return h
	}
	first := sol.At(0)
	for i := range first.Q {
		h = append(h, fmt.Sprintf("q%d", i))
	}
	for i := range first.P {
		h = append(h, fmt.Sprintf("p%d", i))
	}
	for i := range first.Lambda {
		h = append(h, fmt.Sprintf("lambda%d", i))
	}
	return h
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeCSV(path string, sol *trajectory.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header(sol)); err != nil {
		return err
	}
	for n := 0; n < sol.Len(); n++ {
		snap := sol.At(n)
		row := []string{formatFloat(snap.T)}
		for _, part := range []dynamo.State{snap.Q, snap.P, snap.Lambda} {
			for _, v := range part {
				row = append(row, formatFloat(v))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads the CSV of a run back into a Solution.
func (s *Store) LoadTrajectory(runID string) (*trajectory.Solution, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: missing header", runID)
	}

	var nq, np, nl int
	for _, col := range records[0][1:] {
		switch {
		case strings.HasPrefix(col, "q"):
			nq++
		case strings.HasPrefix(col, "p"):
			np++
		case strings.HasPrefix(col, "lambda"):
			nl++
		}
	}

	sol := trajectory.NewSolution(len(records) - 1)
	for n, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for i, field := range rec {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("run %s: row %d: %w", runID, n+1, err)
			}
		}
		snap := dynamo.Snapshot{T: vals[0], Q: dynamo.State(vals[1 : 1+nq])}
		if np > 0 {
			snap.P = dynamo.State(vals[1+nq : 1+nq+np])
		}
		if nl > 0 {
			snap.Lambda = dynamo.State(vals[1+nq+np : 1+nq+np+nl])
		}
		if err := sol.Record(n, snap); err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
	}
	return sol, nil
}
