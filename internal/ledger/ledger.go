// Package ledger tracks the consumable resource budget for one render cycle.
//
// The ledger is the pipeline's sole admission-control gate. Work reserves
// units before it starts, then settles the reservation exactly once: Commit
// records the measured cost, Release returns the units untouched. The
// reservation step (rather than check-then-consume) is what prevents two
// concurrent tiles from both passing a budget check against the same
// unreserved units.
//
// A ledger is created fresh at each cycle boundary with the cycle's limit;
// it is never reset in place.
//
// Thread safety: all methods are safe for concurrent use. The ledger is
// the one structure in the pipeline genuinely shared and mutated by many
// workers, so every mutation happens under a single mutex.
package ledger

import "sync"

// Ledger is the per-cycle consumable resource counter.
//
// Invariant: consumed + reserved <= limit at every instant, checked
// atomically in Reserve. Units are abstract; the ledger never interprets
// them (the cost model is the caller's policy).
type Ledger struct {
	mu       sync.Mutex
	limit    float64
	consumed float64
	reserved float64
}

// Usage is a point-in-time snapshot of ledger state.
type Usage struct {
	Limit     float64 `json:"limit"`
	Consumed  float64 `json:"consumed"`
	Reserved  float64 `json:"reserved"`
	Remaining float64 `json:"remaining"`
}

// New creates a ledger for a cycle with the given unit limit.
// Returns ErrInvalidLimit if limit is not positive.
func New(limit float64) (*Ledger, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return &Ledger{limit: limit}, nil
}

// Reservation is a provisional hold against the ledger.
//
// Every reservation has exactly one terminal outcome: Commit or Release.
// A second settlement attempt returns ErrDoubleSettlement, which indicates
// a pipeline bug, never an expected condition.
type Reservation struct {
	l       *Ledger
	units   float64
	settled bool // guarded by l.mu
}

// Reserve atomically checks consumed + reserved + units <= limit and, if
// the budget allows, places a hold for the given units.
//
// Returns ErrBudgetExhausted without mutating anything when the budget
// cannot cover the request, and ErrInvalidUnits for non-positive units.
func (l *Ledger) Reserve(units float64) (*Reservation, error) {
	if units <= 0 {
		return nil, ErrInvalidUnits
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.consumed+l.reserved+units > l.limit {
		return nil, ErrBudgetExhausted
	}
	l.reserved += units
	return &Reservation{l: l, units: units}, nil
}

// Commit settles the reservation, moving its hold out of reserved and
// recording actual as consumed. Actual may differ from the reserved
// estimate in either direction: a commit is recorded, never rejected, so
// cost overrun is absorbed retroactively and surfaces through Remaining
// at the next Reserve check.
//
// Returns ErrDoubleSettlement if the reservation was already settled, and
// ErrInvalidUnits if actual is negative.
func (r *Reservation) Commit(actual float64) error {
	if actual < 0 {
		return ErrInvalidUnits
	}

	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if r.settled {
		return ErrDoubleSettlement
	}
	r.settled = true
	r.l.reserved -= r.units
	r.l.consumed += actual
	return nil
}

// Release settles the reservation by returning its hold to availability
// without consuming anything. Used when the work failed or was cancelled.
//
// Returns ErrDoubleSettlement if the reservation was already settled.
func (r *Reservation) Release() error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if r.settled {
		return ErrDoubleSettlement
	}
	r.settled = true
	r.l.reserved -= r.units
	return nil
}

// Units returns the reserved unit count of this reservation.
func (r *Reservation) Units() float64 {
	return r.units
}

// Remaining returns limit - consumed - reserved. May be negative after a
// commit whose actual cost overran its estimate.
func (l *Ledger) Remaining() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit - l.consumed - l.reserved
}

// Consumed returns the running total of finalized consumption.
func (l *Ledger) Consumed() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consumed
}

// Reserved returns the running total of outstanding reservations.
func (l *Ledger) Reserved() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserved
}

// Limit returns the cycle's unit limit.
func (l *Ledger) Limit() float64 {
	return l.limit
}

// Snapshot returns a consistent snapshot of all counters.
func (l *Ledger) Snapshot() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Usage{
		Limit:     l.limit,
		Consumed:  l.consumed,
		Reserved:  l.reserved,
		Remaining: l.limit - l.consumed - l.reserved,
	}
}
