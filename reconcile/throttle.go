package reconcile

import "time"

// Throttle rate-limits outgoing position updates to bound bandwidth.
// This is a client policy; the server accepts updates at any rate.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle with the given minimum interval. A zero
// or negative interval defaults to 50 ms.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Throttle{interval: interval}
}

// Allow reports whether an update may be sent at now, consuming the slot
// when it may.
func (t *Throttle) Allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
