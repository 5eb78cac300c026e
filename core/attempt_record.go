package core

import (
	"time"
)

// WindowRecord tracks the requests one client has made inside a fixed
// rate-limit window. Records are values; callers store the result of Hit.
type WindowRecord struct {
	// Count is the number of requests within the current window
	Count int

	// ResetAt is when the count goes back to zero
	ResetAt time.Time
}

// NewWindowRecord starts a window at now with a count of 1.
func NewWindowRecord(now time.Time, window time.Duration) WindowRecord {
	return WindowRecord{
		Count:   1,
		ResetAt: now.Add(window),
	}
}

// Expired returns true if now is at or past the ResetAt time.
func (w WindowRecord) Expired(now time.Time) bool {
	return !now.Before(w.ResetAt)
}

// Hit returns the record after one more request at now. An expired record
// is replaced by a fresh window.
func (w WindowRecord) Hit(now time.Time, window time.Duration) WindowRecord {
	if w.Expired(now) {
		return NewWindowRecord(now, window)
	}
	return WindowRecord{
		Count:   w.Count + 1,
		ResetAt: w.ResetAt,
	}
}

// Exceeds returns true if the count is over the allowed maximum.
func (w WindowRecord) Exceeds(max int) bool {
	return w.Count > max
}

// Remaining returns how many more requests fit in the window, never negative.
func (w WindowRecord) Remaining(max int) int {
	if r := max - w.Count; r > 0 {
		return r
	}
	return 0
}

// TimeUntilReset returns the duration until the window resets.
// Returns zero if already past reset time.
func (w WindowRecord) TimeUntilReset(now time.Time) time.Duration {
	remaining := w.ResetAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
