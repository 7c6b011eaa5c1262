package slizzai

import (
	"fmt"
	"time"

	"github.com/Slizzurp/SlizzAi-3/internal/partition"
)

// CostModel prices a tile in abstract budget units before it runs. The
// ledger never interprets units; the model is injectable policy so
// callers can map units onto whatever physical quantity (thermal,
// energy, "water") their cycle budget represents.
type CostModel func(partition.Tile) float64

// DefaultCostModel charges one unit per full 64Ki-pixel tile (a 256x256
// region), proportional to area.
func DefaultCostModel(t partition.Tile) float64 {
	return float64(t.Region.Area()) / 65536.0
}

// Config carries one cycle's validated parameters. The core receives it
// ready-made; parsing files or environment is the caller's concern
// (cmd/slizzai does YAML).
type Config struct {
	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// TileCount is the number of tiles the frame is partitioned into.
	TileCount int

	// BudgetLimit is the cycle's resource budget in abstract units.
	BudgetLimit float64

	// MaxConcurrency bounds simultaneous in-flight tiles. This is
	// distinct from the budget: budget bounds resource cost, this bounds
	// parallelism.
	MaxConcurrency int

	// FidelityLossCeiling is the maximum permissible compression
	// fidelity loss, in [0, 1].
	FidelityLossCeiling float64

	// RetryLimit bounds the total attempts a tile gets when a retryable
	// stage failure occurs. Zero and one both mean a single attempt.
	RetryLimit int

	// SuperSampleTimeout bounds each call to the enhancement
	// collaborator.
	SuperSampleTimeout time.Duration

	// EnhanceFactor is the requested enhancement factor; the assembled
	// frame is EnhanceFactor times the configured dimensions.
	EnhanceFactor int

	// PassThrough, when set, sends a tile's raw payload onward when no
	// compression level satisfies FidelityLossCeiling, instead of
	// failing the tile.
	PassThrough bool

	// Cost prices tiles for admission. Nil means DefaultCostModel.
	Cost CostModel
}

// Validate checks every recognized option and reports the first problem.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: frame %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.TileCount <= 0:
		return fmt.Errorf("%w: tileCount %d", ErrInvalidConfig, c.TileCount)
	case c.BudgetLimit <= 0:
		return fmt.Errorf("%w: budgetLimit %v", ErrInvalidConfig, c.BudgetLimit)
	case c.MaxConcurrency <= 0:
		return fmt.Errorf("%w: maxConcurrency %d", ErrInvalidConfig, c.MaxConcurrency)
	case c.FidelityLossCeiling < 0 || c.FidelityLossCeiling > 1:
		return fmt.Errorf("%w: fidelityLossCeiling %v", ErrInvalidConfig, c.FidelityLossCeiling)
	case c.RetryLimit < 0:
		return fmt.Errorf("%w: retryLimit %d", ErrInvalidConfig, c.RetryLimit)
	case c.SuperSampleTimeout <= 0:
		return fmt.Errorf("%w: superSampleTimeout %v", ErrInvalidConfig, c.SuperSampleTimeout)
	case c.EnhanceFactor < 1:
		return fmt.Errorf("%w: enhanceFactor %d", ErrInvalidConfig, c.EnhanceFactor)
	}
	return nil
}

// costModel returns the configured model or the default.
func (c Config) costModel() CostModel {
	if c.Cost != nil {
		return c.Cost
	}
	return DefaultCostModel
}
