package repository

import "time"

// bumpTime returns the current UTC time, nudged forward when the clock has
// not advanced past prev. Updates must produce a strictly increasing
// updatedAt even when two mutations land inside the same tick.
func bumpTime(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}
