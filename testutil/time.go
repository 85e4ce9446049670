package testutil

import (
	"time"
)

// Fixed times for tests that need stable timestamps.

var KnownTime = time.Date(2023, 4, 26, 9, 30, 0, 0, time.UTC)

func KnownTimeNow() time.Time {
	return KnownTime
}

// TimePtr returns a pointer to t, for populating nullable timestamp and date
// columns on models.
func TimePtr(t time.Time) *time.Time {
	return &t
}
