package slizzai

import "errors"

// Package errors for the pipeline.
var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("slizzai: invalid configuration")

	// ErrNilCollaborator is returned when NewPipeline is given a nil
	// rasterizer or dispatcher.
	ErrNilCollaborator = errors.New("slizzai: nil collaborator")

	// ErrLedgerViolation is returned when the budget ledger reports a
	// double settlement. This is a pipeline bug, never an expected
	// condition, and it aborts the whole run.
	ErrLedgerViolation = errors.New("slizzai: ledger invariant violation")
)
