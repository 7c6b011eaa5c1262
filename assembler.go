package slizzai

import (
	"time"

	"github.com/google/uuid"

	"github.com/Slizzurp/SlizzAi-3/internal/ledger"
	"github.com/Slizzurp/SlizzAi-3/internal/partition"
)

// writeTile lands an enhanced tile payload into its scaled-up frame
// region. Assembly never fails the run; a region that cannot land is
// logged and left unwritten, which the coverage report then shows as a
// hole in an otherwise complete frame.
func (p *Pipeline) writeTile(frame *FrameBuffer, t partition.Tile, payload []byte) {
	f := p.cfg.EnhanceFactor
	region := partition.Rect{
		X: t.Region.X * f,
		Y: t.Region.Y * f,
		W: t.Region.W * f,
		H: t.Region.H * f,
	}
	if !frame.WriteRegion(region, payload) {
		p.log.Warn("tile payload did not land",
			"tile", t.ID, "region", region, "bytes", len(payload))
	}
}

// buildReport snapshots the run outcome from the scheduler's tile
// records. Every tile lands in exactly one terminal bucket, so
// Completed+Failed+Skipped always equals Total.
func (p *Pipeline) buildReport(runID uuid.UUID, started time.Time, runs []tileRun, cov *coverage, usage ledger.Usage) *Report {
	r := &Report{
		RunID:       runID,
		Started:     started,
		Finished:    time.Now(),
		FrameWidth:  p.cfg.Width * p.cfg.EnhanceFactor,
		FrameHeight: p.cfg.Height * p.cfg.EnhanceFactor,
		Total:       len(runs),
		Usage:       usage,
	}
	for i := range runs {
		t := &runs[i]
		switch t.state {
		case TileComplete:
			r.Completed++
		case TileFailed:
			r.Failed++
		case TileSkipped:
			r.Skipped++
		default:
			// The scheduler settles every admitted tile before building
			// the report; a non-terminal state here is a scheduler bug,
			// but the report stays honest about it.
			r.Skipped++
			t.state = TileSkipped
		}
		if t.state != TileComplete {
			r.Incomplete = append(r.Incomplete, TileStatus{
				ID:     t.ID,
				Region: t.Region,
				Weight: t.Weight,
				State:  t.state.String(),
				Error:  t.errMsg,
			})
		}
	}
	if owed := cov.count(); owed != r.Total-r.Completed {
		p.log.Warn("coverage bitmap disagrees with tile records",
			"owed", owed, "incomplete", r.Total-r.Completed)
	}
	return r
}
