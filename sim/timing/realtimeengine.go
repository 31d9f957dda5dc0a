package timing

import (
	"sync"
	"time"

	"github.com/sarchlab/countdown/sim/hooking"
)

// A RealTimeEngine delivers events when the wall clock reaches their time. Time
// zero is the moment the engine is created.
//
// All events are dispatched from the goroutine that calls Run, one at a time
// and in time order. Schedule may be called from any goroutine. An event whose
// time has already passed is dispatched as soon as possible.
type RealTimeEngine struct {
	hooking.HookableBase

	lock   sync.Mutex
	queue  *EventQueue
	origin time.Time

	wakeup    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	singleRunLock sync.Mutex
}

// NewRealTimeEngine creates a RealTimeEngine whose clock starts now.
func NewRealTimeEngine() *RealTimeEngine {
	return &RealTimeEngine{
		queue:  NewEventQueue(),
		origin: time.Now(),
		wakeup: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Name returns the name of the engine.
func (e *RealTimeEngine) Name() string {
	return "RealTimeEngine"
}

// Now returns the seconds elapsed since the engine was created.
func (e *RealTimeEngine) Now() VTimeInSec {
	return time.Since(e.origin).Seconds()
}

// Schedule registers an event and wakes up the dispatch loop.
func (e *RealTimeEngine) Schedule(evt Event) {
	e.lock.Lock()
	e.queue.Push(evt)
	e.lock.Unlock()

	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// Pending returns the number of events waiting in the queue.
func (e *RealTimeEngine) Pending() int {
	return e.queue.Len()
}

// Run dispatches events until Close is called.
func (e *RealTimeEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		select {
		case <-e.done:
			return nil
		default:
		}

		evt, wait := e.next()
		if evt != nil {
			dispatch(e, &e.HookableBase, evt)
			continue
		}

		if !e.sleep(wait) {
			return nil
		}
	}
}

// next pops the earliest event if it is due. Otherwise, it returns how long
// to wait for it, or a negative duration if the queue is empty.
func (e *RealTimeEngine) next() (Event, time.Duration) {
	e.lock.Lock()
	defer e.lock.Unlock()

	evt := e.queue.Peek()
	if evt == nil {
		return nil, -1
	}

	wait := time.Duration((evt.Time() - e.Now()) * float64(time.Second))
	if wait > 0 {
		return nil, wait
	}

	return e.queue.Pop(), 0
}

// sleep blocks until the wait elapses, a new event arrives, or the engine is
// closed. It returns false in the last case.
func (e *RealTimeEngine) sleep(wait time.Duration) bool {
	var timeout <-chan time.Time

	if wait >= 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case <-e.done:
		return false
	case <-e.wakeup:
	case <-timeout:
	}

	return true
}

// Close stops the dispatch loop. An event that is being handled finishes, but
// no further event is dispatched. Close is safe to call more than once.
func (e *RealTimeEngine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}
