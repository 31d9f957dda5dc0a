package countdown

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/countdown/sim/hooking"
	"github.com/sarchlab/countdown/sim/timing"
)

var (
	// ErrRunning is returned when an adjustment is refused because the
	// countdown is running.
	ErrRunning = errors.New("countdown is running")

	// ErrClosed is returned for intents sent after Close.
	ErrClosed = errors.New("countdown is closed")
)

// HookPosPublish is the hook position at which every new snapshot is
// published. The hook item is a Publication.
var HookPosPublish = &hooking.HookPos{Name: "Publish"}

// Publication is what the store hands to its hooks after each mutation.
type Publication struct {
	Snapshot Snapshot
	Cause    Cause
	Time     timing.VTimeInSec
}

// Store owns the state of the countdown and the tick source that drives it.
//
// All mutation happens under one lock, including tick delivery, so intents
// may come from any goroutine. Hooks run with the lock held: they see
// publications in order and must not call back into the store.
type Store struct {
	*hooking.HookableBase

	name   string
	freq   timing.Freq
	policy AdjustPolicy
	engine timing.EventScheduler
	ticks  *timing.TickScheduler

	lock   sync.Mutex
	state  Snapshot
	closed bool
}

// An Option configures a Store.
type Option func(s *Store)

// WithName sets the name of the store.
func WithName(name string) Option {
	return func(s *Store) {
		s.name = name
	}
}

// WithFreq sets the tick frequency. A countdown ticks at 1 Hz; other values
// are for running the store faster than real time.
func WithFreq(freq timing.Freq) Option {
	return func(s *Store) {
		s.freq = freq
	}
}

// WithAdjustPolicy decides whether adjustments are allowed while running.
func WithAdjustPolicy(p AdjustPolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// WithInitial presets the remaining time. Out-of-range values are wrapped
// into their domains.
func WithInitial(hours, minutes, seconds int) Option {
	return func(s *Store) {
		s.state.Hours = Wrap(0, hours, MaxHours)
		s.state.Minutes = Wrap(0, minutes, MaxMinutes)
		s.state.Seconds = Wrap(0, seconds, MaxSeconds)
	}
}

// NewStore creates a stopped store at 00:00:00 whose ticks are scheduled on
// engine.
func NewStore(engine timing.EventScheduler, opts ...Option) *Store {
	s := &Store{
		HookableBase: hooking.NewHookableBase(),
		name:         "Countdown",
		freq:         1 * timing.Hz,
		engine:       engine,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.ticks = timing.NewTickScheduler(s, engine, s.freq)

	return s
}

// Name returns the name of the store.
func (s *Store) Name() string {
	return s.name
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.state
}

// Policy returns the adjustment policy of the store.
func (s *Store) Policy() AdjustPolicy {
	return s.policy
}

// PendingTicks returns the number of ticks the live tick series has yet to
// deliver, or 0 if the countdown is stopped.
func (s *Store) PendingTicks() int {
	return s.ticks.Remaining()
}

// Start begins counting down from the current remaining time. If the
// countdown is already running, the live tick series is cancelled first, so
// counting restarts from the remaining time with a fresh one-second phase.
func (s *Store) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}

	s.ticks.Start(s.state.TotalSeconds())
	s.state.Mode = Running
	s.publish(CauseStart)
}

// Stop halts the countdown and keeps the remaining time. Stopping a stopped
// countdown only republishes the unchanged snapshot.
func (s *Store) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}

	s.stop(CauseStop)
}

// Reset stops the countdown and sets the remaining time to 00:00:00.
func (s *Store) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}

	s.ticks.Cancel()
	s.state = Snapshot{Mode: Stopped}
	s.publish(CauseReset)
}

// Adjust adds delta to a unit, wrapping around within the unit's domain.
func (s *Store) Adjust(unit Unit, delta int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.policy == RejectWhileRunning && s.state.Mode == Running {
		return ErrRunning
	}

	switch unit {
	case Hour:
		s.state.Hours = Wrap(s.state.Hours, delta, MaxHours)
	case Minute:
		s.state.Minutes = Wrap(s.state.Minutes, delta, MaxMinutes)
	case Second:
		s.state.Seconds = Wrap(s.state.Seconds, delta, MaxSeconds)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownUnit, int(unit))
	}

	s.publish(CauseAdjust)

	return nil
}

// HourUp adds one hour, wrapping 99 to 0.
func (s *Store) HourUp() { _ = s.Adjust(Hour, 1) }

// HourDown removes one hour, wrapping 0 to 99.
func (s *Store) HourDown() { _ = s.Adjust(Hour, -1) }

// MinuteUp adds one minute, wrapping 59 to 0.
func (s *Store) MinuteUp() { _ = s.Adjust(Minute, 1) }

// MinuteDown removes one minute, wrapping 0 to 59.
func (s *Store) MinuteDown() { _ = s.Adjust(Minute, -1) }

// SecondUp adds one second, wrapping 59 to 0.
func (s *Store) SecondUp() { _ = s.Adjust(Second, 1) }

// SecondDown removes one second, wrapping 0 to 59.
func (s *Store) SecondDown() { _ = s.Adjust(Second, -1) }

// Tick advances a running countdown by one second. A tick at 00:00:00 stops
// the countdown. Ticking a stopped countdown does nothing.
func (s *Store) Tick() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed || s.state.Mode != Running {
		return
	}

	s.tick()
}

// Handle processes the tick and finish events of the live tick series. Events
// from cancelled series are dropped.
func (s *Store) Handle(evt timing.Event) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed || !s.ticks.Accept(evt) {
		return nil
	}

	switch evt.(type) {
	case *timing.TickEvent:
		s.tick()
	case *timing.FinishEvent:
		s.stop(CauseFinish)
	}

	return nil
}

// Close stops the countdown for good. No tick is handled and no intent is
// applied afterwards. Close is safe to call more than once.
func (s *Store) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}

	s.ticks.Cancel()
	s.state.Mode = Stopped
	s.publish(CauseClose)
	s.closed = true
}

// IsClosed returns true once Close has been called.
func (s *Store) IsClosed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.closed
}

func (s *Store) tick() {
	next, done := Decrement(s.state)
	if done {
		s.stop(CauseTick)
		return
	}

	s.state = next
	s.publish(CauseTick)
}

func (s *Store) stop(cause Cause) {
	s.ticks.Cancel()
	s.state.Mode = Stopped
	s.publish(cause)
}

func (s *Store) publish(cause Cause) {
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosPublish,
		Item: Publication{
			Snapshot: s.state,
			Cause:    cause,
			Time:     s.engine.Now(),
		},
	})
}
