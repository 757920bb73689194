// Package clock abstracts the current time so that time-window rules
// (idle gating, past-due notices) can be tested deterministically.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	// Now returns the current time according to this clock.
	Now() time.Time
}

// Real implements Clock using the actual system time.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock that always returns the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
