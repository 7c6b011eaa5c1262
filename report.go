package slizzai

import (
	"time"

	"github.com/google/uuid"

	"github.com/Slizzurp/SlizzAi-3/internal/ledger"
	"github.com/Slizzurp/SlizzAi-3/internal/partition"
)

// TileStatus names one tile's terminal outcome in a coverage report.
type TileStatus struct {
	ID     int            `json:"id"`
	Region partition.Rect `json:"region"`
	Weight float64        `json:"weight"`
	State  string         `json:"state"`
	Error  string         `json:"error,omitempty"`
}

// Report is the final accounting of one cycle. It is plain immutable
// data: incompleteness is reported, never raised as an error.
type Report struct {
	// RunID uniquely identifies the cycle.
	RunID uuid.UUID `json:"run_id"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Frame geometry at the enhanced scale.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	// Incomplete lists every tile that did not reach Complete, with its
	// region and terminal state, so the caller can accept partial
	// output, re-run only the missing tiles, or reject the frame.
	Incomplete []TileStatus `json:"incomplete,omitempty"`

	// Usage is the ledger snapshot at the end of the run.
	Usage ledger.Usage `json:"usage"`
}

// Complete reports whether every tile reached Complete.
func (r *Report) Complete() bool {
	return r.Failed == 0 && r.Skipped == 0
}

// Duration returns the wall-clock length of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Retile returns the partition tiles a follow-up cycle should run to
// fill the frame's missing regions. Empty when the report is complete.
func (r *Report) Retile() []partition.Tile {
	if len(r.Incomplete) == 0 {
		return nil
	}
	tiles := make([]partition.Tile, len(r.Incomplete))
	for i, ts := range r.Incomplete {
		tiles[i] = partition.Tile{ID: ts.ID, Region: ts.Region, Weight: ts.Weight}
	}
	return tiles
}
