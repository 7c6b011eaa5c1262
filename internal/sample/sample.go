// Package sample dispatches compressed tiles to a super-sampling
// collaborator and normalizes its results into the pipeline's vocabulary.
//
// The collaborator sits across a network boundary, so every call is
// bounded by a timeout and every failure is classified as either
// retryable (transient service trouble, worth another attempt) or fatal
// (the payload itself was rejected). Dispatch never retries; retry policy
// belongs to the scheduler.
package sample

import (
	"context"
	"errors"
)

// Request carries one compressed tile to the collaborator.
type Request struct {
	// Payload is the compressed tile data.
	Payload []byte

	// Width and Height are the tile's pixel dimensions before
	// enhancement.
	Width  int
	Height int

	// Factor is the desired enhancement factor (output is Factor times
	// larger in each dimension).
	Factor int
}

// Dispatcher is the super-sampling collaborator.
//
// Enhance returns the enhanced payload, or an error classified by Kind:
// wrap ErrRetryable for transient failures and ErrFatal for payload
// rejections. Implementations must be safe for concurrent use.
type Dispatcher interface {
	Enhance(ctx context.Context, req Request) ([]byte, error)
}

// Kind classifies an Enhance outcome.
type Kind int

const (
	// Succeeded means the collaborator returned an enhanced payload.
	Succeeded Kind = iota

	// Retryable means the failure is transient: service unavailable,
	// network trouble, or the call timed out.
	Retryable

	// Fatal means the collaborator rejected the payload itself; retrying
	// the same payload cannot succeed.
	Fatal
)

// String returns a human-readable outcome name.
func (k Kind) String() string {
	switch k {
	case Succeeded:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps an Enhance error onto the pipeline vocabulary.
//
// A nil error is Succeeded. Timeouts and cancellations count as
// retryable, as does anything wrapping ErrRetryable. Anything wrapping
// ErrFatal is fatal. Unrecognized errors default to retryable: an
// unknown collaborator failure is presumed transient, and the
// scheduler's bounded retry count keeps that presumption safe.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return Succeeded
	case errors.Is(err, ErrFatal):
		return Fatal
	case errors.Is(err, ErrRetryable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Retryable
	default:
		return Retryable
	}
}
