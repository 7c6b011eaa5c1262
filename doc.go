// Package slizzai implements an eco-budgeted tile rendering pipeline.
//
// # Overview
//
// A frame is partitioned into tiles using golden-ratio spacing, and each
// tile flows through compression and super-sampling stages before being
// assembled back into a frame buffer. Admission is gated by a consumable
// resource budget (abstract "water"/thermal units per cycle): every tile
// reserves its estimated cost before it starts and settles the
// reservation with its measured cost when it finishes, so a bounded
// amount of work is done per cycle no matter how large the frame is.
//
// # Quick Start
//
//	cfg := slizzai.Config{
//	    Width: 1920, Height: 1080,
//	    TileCount:           24,
//	    BudgetLimit:         100,
//	    MaxConcurrency:      4,
//	    FidelityLossCeiling: 0.05,
//	    RetryLimit:          3,
//	    SuperSampleTimeout:  30 * time.Second,
//	    EnhanceFactor:       2,
//	}
//
//	p, err := slizzai.NewPipeline(cfg, rasterizer, sample.Upscaler{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame, report, err := p.Run(ctx)
//
// A finished run always yields a frame buffer (possibly partial) plus a
// coverage report; whether partial output is acceptable is the caller's
// decision.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Pipeline, Config, FrameBuffer, Report
//   - internal/partition: golden-ratio frame decomposition
//   - internal/ledger: reserve/commit/release budget accounting
//   - internal/compress: golden-ratio delta codec
//   - internal/sample: super-sampling collaborator clients
//   - internal/parallel: the tile worker pool
//
// The 3D engine that rasterizes tiles and the neural super-sampling
// service are external collaborators consumed through the Rasterizer and
// sample.Dispatcher interfaces.
//
// # Ordering
//
// Admission always follows ascending golden-ratio weight (ties broken by
// tile ID), so a run cut short by budget exhaustion has already touched
// regions spread across the whole frame. Completion order across tiles is
// unordered; stages run concurrently.
package slizzai

// Version information
const (
	// Version is the current version of the library
	Version = "3.7.0"

	// VersionMajor is the major version
	VersionMajor = 3

	// VersionMinor is the minor version
	VersionMinor = 7

	// VersionPatch is the patch version
	VersionPatch = 0
)
