package ledger

import "errors"

// Package errors for budget accounting.
var (
	// ErrInvalidLimit is returned when a ledger is created with a
	// non-positive limit.
	ErrInvalidLimit = errors.New("ledger: limit must be positive")

	// ErrInvalidUnits is returned for non-positive reservation requests
	// or negative commit amounts.
	ErrInvalidUnits = errors.New("ledger: invalid unit amount")

	// ErrBudgetExhausted is returned by Reserve when the remaining budget
	// cannot cover the request. This is an expected steady-state signal,
	// not a fault; it drives the scheduler into draining.
	ErrBudgetExhausted = errors.New("ledger: budget exhausted")

	// ErrDoubleSettlement is returned when a reservation is committed or
	// released a second time. This always indicates a bug in the caller.
	ErrDoubleSettlement = errors.New("ledger: reservation already settled")
)
