package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic sequence IDs for emitted events.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer starting from a given value. A fresh process
// starts at 0; a process resuming an existing outbox starts at the
// highest stored sequence.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence ID.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
