// Package schedule contains the due-timer logic shared by every periodic
// activity of the device.
// This package has NO external dependencies (no hardware, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package schedule

import "time"

// DueTimer tracks when a periodic activity last fired. The interval is
// supplied on every check, so a changed configuration takes effect at
// the next check without touching the timer.
type DueTimer struct {
	Last time.Time
}

// NewDueTimer returns a timer that last fired at start.
func NewDueTimer(start time.Time) DueTimer {
	return DueTimer{Last: start}
}

// Due reports whether at least interval has elapsed since the last firing.
func (t *DueTimer) Due(now time.Time, interval time.Duration) bool {
	return now.Sub(t.Last) >= interval
}

// Fire records now as the last firing time.
func (t *DueTimer) Fire(now time.Time) {
	t.Last = now
}

// Check fires the timer and returns true if it is due.
func (t *DueTimer) Check(now time.Time, interval time.Duration) bool {
	if !t.Due(now, interval) {
		return false
	}
	t.Fire(now)
	return true
}

// Elapsed returns the time since the last firing.
func (t *DueTimer) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.Last)
}
