package timing

import (
	"github.com/sarchlab/countdown/sim/hooking"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine is a unit that keeps events flowing to their handlers.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run processes events. A SerialEngine returns once the queue drains; a
	// RealTimeEngine returns once it is closed.
	Run() error
}
