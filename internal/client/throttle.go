package client

import "time"

// Throttle admits at most one event per interval. Events inside the interval are dropped,
// not delayed.
type Throttle struct {
	interval time.Duration
	last     time.Time
	admitted bool
}

// NewThrottle creates a Throttle. A non-positive interval admits everything.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an event at now is admitted, and records it if so.
func (t *Throttle) Allow(now time.Time) bool {
	if t.admitted && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.admitted = true
	return true
}
