package sample

import "errors"

// Package errors for super-sample dispatch.
var (
	// ErrRetryable marks transient collaborator failures: the same
	// request may succeed on a later attempt.
	ErrRetryable = errors.New("sample: retryable failure")

	// ErrFatal marks payload rejections: the collaborator refused the
	// request and retrying cannot help.
	ErrFatal = errors.New("sample: fatal failure")

	// ErrInvalidFactor is returned for enhancement factors below 1.
	ErrInvalidFactor = errors.New("sample: enhancement factor must be >= 1")
)
