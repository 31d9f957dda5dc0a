package tui

import "strconv"

// Pad formats a field of the countdown with at least two digits.
func Pad(n int) string {
	if n >= 0 && n < 10 {
		return "0" + strconv.Itoa(n)
	}

	return strconv.Itoa(n)
}
