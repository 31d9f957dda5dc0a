package timing

import (
	"sync"
)

// TickEvent is delivered once per period while a tick series is live.
type TickEvent struct {
	*EventBase

	// Series identifies the series that scheduled the tick.
	Series uint64

	// Seq is the 1-based position of the tick within its series.
	Seq int
}

// FinishEvent is delivered one period after the last tick of a series. It
// marks the exhaustion of the series.
type FinishEvent struct {
	*EventBase

	Series uint64
}

// TickScheduler drives a handler with a bounded series of ticks.
//
// A series of n ticks delivers n TickEvents, one period apart starting one
// period after Start, followed by a FinishEvent one period after the last
// tick. At most one series is live. Starting a new series or cancelling makes
// every event of the old series stale; the handler must call Accept on each
// event and ignore the ones it rejects.
type TickScheduler struct {
	lock    sync.Mutex
	handler Handler
	Freq    Freq
	Engine  EventScheduler

	series    uint64
	live      bool
	limit     int
	startTime VTimeInSec
	fired     int
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine EventScheduler,
	freq Freq,
) *TickScheduler {
	ticker := new(TickScheduler)

	ticker.handler = handler
	ticker.Engine = engine
	ticker.Freq = freq

	return ticker
}

// Start cancels the live series, if any, and begins a new series of n ticks.
func (t *TickScheduler) Start(n int) {
	if n < 0 {
		n = 0
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.series++
	t.live = true
	t.limit = n
	t.fired = 0
	t.startTime = t.Engine.Now()

	t.scheduleNext()
}

// Cancel makes all pending events of the live series stale. After Cancel
// returns, Accept rejects every event already scheduled.
func (t *TickScheduler) Cancel() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.series++
	t.live = false
}

// IsLive returns true if a series is in progress.
func (t *TickScheduler) IsLive() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.live
}

// Remaining returns the number of ticks the live series has yet to deliver.
func (t *TickScheduler) Remaining() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.live {
		return 0
	}

	return t.limit - t.fired
}

// Accept reports whether evt belongs to the live series. Accepting a tick
// schedules the next event of the series. Accepting the finish event ends the
// series.
func (t *TickScheduler) Accept(evt Event) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.live {
		return false
	}

	switch e := evt.(type) {
	case *TickEvent:
		if e.Series != t.series || e.Seq != t.fired+1 {
			return false
		}

		t.fired++
		t.scheduleNext()

		return true
	case *FinishEvent:
		if e.Series != t.series || t.fired != t.limit {
			return false
		}

		t.live = false

		return true
	default:
		return false
	}
}

func (t *TickScheduler) scheduleNext() {
	when := t.Freq.NCyclesLater(t.fired+1, t.startTime)

	if t.fired < t.limit {
		t.Engine.Schedule(&TickEvent{
			EventBase: NewEventBase(when, t.handler),
			Series:    t.series,
			Seq:       t.fired + 1,
		})

		return
	}

	t.Engine.Schedule(&FinishEvent{
		EventBase: NewEventBase(when, t.handler),
		Series:    t.series,
	})
}
