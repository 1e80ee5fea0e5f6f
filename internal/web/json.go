package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hotcirc/internal/status"
)

// MatrixJSON is the top-level JSON envelope for the matrix endpoint.
type MatrixJSON struct {
	Matrix MatrixInner `json:"matrix"`
}

// MatrixInner contains the grid and its interpretation. Grid is indexed
// [day][slot], day 0=Monday..6=Sunday, slot 0..47 in 30-minute buckets.
type MatrixInner struct {
	Timestamp    string     `json:"timestamp"`
	EcoThreshold uint8      `json:"eco_threshold"`
	Days         []string   `json:"days"`
	Grid         [7][48]int `json:"grid"`
}

var dayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func formatMatrixJSON(snap status.Snapshot) []byte {
	inner := MatrixInner{
		Timestamp:    snap.Now.UTC().Format(time.RFC3339),
		EcoThreshold: snap.Config.EcoThreshold,
		Days:         dayNames,
	}
	for d := 0; d < 7; d++ {
		for s := 0; s < 48; s++ {
			inner.Grid[d][s] = int(snap.Matrix[d][s])
		}
	}
	data, _ := json.MarshalIndent(MatrixJSON{Matrix: inner}, "", "  ")
	return data
}
