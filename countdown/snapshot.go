package countdown

// Upper bounds of the fields.
const (
	MaxHours   = 99
	MaxMinutes = 59
	MaxSeconds = 59
)

// Snapshot is an immutable copy of the store's state.
type Snapshot struct {
	Mode    Mode `json:"mode"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
}

// TotalSeconds returns the remaining time in seconds.
func (s Snapshot) TotalSeconds() int {
	return s.Seconds + s.Minutes*60 + s.Hours*3600
}

// IsZero returns true if no time remains.
func (s Snapshot) IsZero() bool {
	return s.Hours == 0 && s.Minutes == 0 && s.Seconds == 0
}

// Field returns the value of a unit.
func (s Snapshot) Field(u Unit) int {
	switch u {
	case Hour:
		return s.Hours
	case Minute:
		return s.Minutes
	default:
		return s.Seconds
	}
}

// Decrement removes one second from s, borrowing from minutes and hours when
// the smaller unit is exhausted. It reports done, leaving s unchanged, when s
// is already at zero.
func Decrement(s Snapshot) (next Snapshot, done bool) {
	if s.IsZero() {
		return s, true
	}

	if s.Seconds != 0 {
		s.Seconds--
		return s, false
	}

	s.Seconds = MaxSeconds
	if s.Minutes != 0 {
		s.Minutes--
		return s, false
	}

	s.Minutes = MaxMinutes
	if s.Hours != 0 {
		s.Hours--
	}

	return s, false
}

// Wrap adds delta to value within [0, upper], wrapping around at both ends.
func Wrap(value, delta, upper int) int {
	period := upper + 1
	v := (value + delta) % period

	if v < 0 {
		v += period
	}

	return v
}
