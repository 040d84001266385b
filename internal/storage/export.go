package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/geomint/internal/trajectory"
)

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	Q      [][]float64 `json:"q"`
	P      [][]float64 `json:"p,omitempty"`
	Lambda [][]float64 `json:"lambda,omitempty"`
}

// ExportJSON writes meta and the full trajectory as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, sol *trajectory.Solution) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       sol.T,
		Q:           make([][]float64, len(sol.Q)),
	}
	for i, q := range sol.Q {
		data.Q[i] = q
	}
	if len(sol.P) > 0 {
		data.P = make([][]float64, len(sol.P))
		for i, p := range sol.P {
			data.P[i] = p
		}
	}
	if len(sol.Lambda) > 0 {
		data.Lambda = make([][]float64, len(sol.Lambda))
		for i, l := range sol.Lambda {
			data.Lambda[i] = l
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
