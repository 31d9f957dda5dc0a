package countdown

import (
	"errors"
	"fmt"
	"strings"
)

// Mode tells whether the countdown is running.
type Mode int

// Modes of a countdown.
const (
	Stopped Mode = iota
	Running
)

// String returns the string representation of Mode
func (m Mode) String() string {
	switch m {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText encodes the mode as its name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Unit is one of the three adjustable fields.
type Unit int

// Units of the countdown, from the largest to the smallest.
const (
	Hour Unit = iota
	Minute
	Second
)

// ErrUnknownUnit is returned for a unit that is not Hour, Minute, or Second.
var ErrUnknownUnit = errors.New("unknown unit")

// Max returns the largest value the unit can hold. Values wrap around to 0
// past Max and to Max below 0.
func (u Unit) Max() int {
	switch u {
	case Hour:
		return MaxHours
	case Minute:
		return MaxMinutes
	case Second:
		return MaxSeconds
	default:
		panic(fmt.Sprintf("%v: %d", ErrUnknownUnit, int(u)))
	}
}

func (u Unit) String() string {
	switch u {
	case Hour:
		return "hour"
	case Minute:
		return "minute"
	case Second:
		return "second"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit converts "hour", "minute", or "second" (plural and single-letter
// forms accepted) into a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "hour", "hours":
		return Hour, nil
	case "m", "minute", "minutes":
		return Minute, nil
	case "s", "second", "seconds":
		return Second, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Cause names the operation that produced a publication.
type Cause string

// Causes of a publication.
const (
	CauseStart  Cause = "start"
	CauseStop   Cause = "stop"
	CauseTick   Cause = "tick"
	CauseFinish Cause = "finish"
	CauseAdjust Cause = "adjust"
	CauseReset  Cause = "reset"
	CauseClose  Cause = "close"
)

// AdjustPolicy decides what the store does with digit adjustments while the
// countdown is running.
type AdjustPolicy int

const (
	// TrustCaller applies adjustments in any mode. The presentation layer is
	// expected to hide the controls while running.
	TrustCaller AdjustPolicy = iota

	// RejectWhileRunning refuses adjustments while running.
	RejectWhileRunning
)

// ParseAdjustPolicy converts "trust" or "reject" into an AdjustPolicy.
func ParseAdjustPolicy(s string) (AdjustPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trust":
		return TrustCaller, nil
	case "reject":
		return RejectWhileRunning, nil
	default:
		return 0, fmt.Errorf("unknown adjust policy %q", s)
	}
}

func (p AdjustPolicy) String() string {
	if p == RejectWhileRunning {
		return "reject"
	}

	return "trust"
}
