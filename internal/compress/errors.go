package compress

import "errors"

// Package errors for the golden-ratio codec.
var (
	// ErrInvalidConfig is returned when the codec configuration is out of
	// range (MinSteps < 1 or MaxLoss outside [0, 1]).
	ErrInvalidConfig = errors.New("compress: invalid codec configuration")

	// ErrFidelityBudget is returned when no compression level satisfies
	// the fidelity-loss ceiling. The caller decides whether to skip the
	// tile or pass it through uncompressed.
	ErrFidelityBudget = errors.New("compress: fidelity budget exceeded")

	// ErrEmptyPayload is returned when there is nothing to compress.
	ErrEmptyPayload = errors.New("compress: empty payload")

	// ErrCorruptPayload is returned by Decompress for data that does not
	// carry a valid codec header.
	ErrCorruptPayload = errors.New("compress: corrupt payload")
)
