package slizzai

import (
	"math/bits"
	"sync/atomic"
)

// coverage tracks which tiles the frame is still owed, one bit per tile
// ID packed into uint64 words. A tile's bit starts set and is cleared
// when its enhanced payload lands in the frame buffer; bits left set at
// the end of a run name the tiles a follow-up cycle should re-run.
//
// Operations are lock-free and safe for concurrent use, though during a
// run only the scheduler goroutine writes.
type coverage struct {
	words []atomic.Uint64
	total int
}

// newCoverage creates a tracker for n tiles, all owed.
func newCoverage(n int) *coverage {
	if n <= 0 {
		return &coverage{}
	}
	c := &coverage{
		words: make([]atomic.Uint64, (n+63)/64),
		total: n,
	}
	full := n / 64
	for i := 0; i < full; i++ {
		c.words[i].Store(^uint64(0))
	}
	if rem := n % 64; rem > 0 {
		c.words[full].Store((uint64(1) << rem) - 1)
	}
	return c
}

// settle clears tile id's owed bit. Out-of-range ids are ignored.
func (c *coverage) settle(id int) {
	if id < 0 || id >= c.total {
		return
	}
	// atomic.Uint64.And needs Go 1.23; emulate it with a CAS loop.
	w := &c.words[id/64]
	mask := ^(uint64(1) << (id & 63))
	for {
		old := w.Load()
		if w.CompareAndSwap(old, old&mask) {
			return
		}
	}
}

// owed reports whether tile id is still owed to the frame.
func (c *coverage) owed(id int) bool {
	if id < 0 || id >= c.total {
		return false
	}
	return c.words[id/64].Load()&(uint64(1)<<(id&63)) != 0
}

// count returns how many tiles are still owed.
func (c *coverage) count() int {
	n := 0
	for i := range c.words {
		n += bits.OnesCount64(c.words[i].Load())
	}
	return n
}

// owedIDs returns the IDs of all owed tiles in ascending order.
func (c *coverage) owedIDs() []int {
	var ids []int
	for wordIdx := range c.words {
		word := c.words[wordIdx].Load()
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			id := wordIdx*64 + bit
			if id >= c.total {
				break
			}
			ids = append(ids, id)
			word &^= 1 << bit
		}
	}
	return ids
}
