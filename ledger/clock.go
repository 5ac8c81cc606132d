package ledger

import "sync/atomic"

// Clock is a process-wide logical clock. Every mutation in the coordinator is
// stamped from one Clock so that event ordering is deterministic and
// replayable, independent of wall time.
type Clock struct {
	n atomic.Uint64
}

func NewClock() *Clock {
	return &Clock{}
}

// Tick returns the next logical timestamp.
func (c *Clock) Tick() uint64 {
	return c.n.Add(1)
}

// Now returns the last issued timestamp without advancing the clock.
func (c *Clock) Now() uint64 {
	return c.n.Load()
}
