package timing

import (
	"log"
	"reflect"
	"sync"

	"github.com/sarchlab/countdown/sim/hooking"
)

// A SerialEngine is an Engine that runs events one after another on a virtual
// timeline. Time jumps straight to the next event, so an hour-long countdown
// finishes instantly.
type SerialEngine struct {
	hooking.HookableBase

	timeLock sync.RWMutex
	time     VTimeInSec
	queue    *EventQueue

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)
	e.queue = NewEventQueue()

	return e
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "SerialEngine"
}

// Schedule register an event to be happen in the future
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf(
			"scheduling an event earlier than current time, evt %s @ %.10f, now %.10f",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for e.queue.Len() > 0 {
		e.runOne()
	}

	return nil
}

// RunUntil processes the events that happen no later than t and then moves the
// clock to t. Events scheduled after t stay in the queue.
func (e *SerialEngine) RunUntil(t VTimeInSec) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		next := e.queue.Peek()
		if next == nil || next.Time() > t {
			break
		}

		e.runOne()
	}

	if t > e.readNow() {
		e.writeNow(t)
	}

	return nil
}

func (e *SerialEngine) runOne() {
	evt := e.queue.Pop()
	now := e.readNow()

	if evt.Time() < now {
		log.Panicf(
			"cannot run event in the past, evt %s @ %.10f, now %.10f",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	e.writeNow(evt.Time())
	dispatch(e, &e.HookableBase, evt)
}

// Pending returns the number of events waiting in the queue.
func (e *SerialEngine) Pending() int {
	return e.queue.Len()
}

// Now returns the current time at which the engine is at.
// Specifically, the run time of the current event.
func (e *SerialEngine) Now() VTimeInSec {
	return e.readNow()
}

func dispatch(domain hooking.Hookable, hooks *hooking.HookableBase, evt Event) {
	hookCtx := hooking.HookCtx{
		Domain: domain,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	hooks.InvokeHook(hookCtx)

	handler := evt.Handler()
	if handler != nil {
		_ = handler.Handle(evt)
	}

	hookCtx.Pos = HookPosAfterEvent
	hooks.InvokeHook(hookCtx)
}
