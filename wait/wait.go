// Package wait provides small helpers for polling and randomized delays.
package wait

import (
	"context"
	"math/rand"
	"time"
)

// A CheckFunc reports whether the condition being waited on has been met.
type CheckFunc func(context.Context) (bool, error)

// RepeatUntil calls c immediately and then once per period until c reports
// done, c returns an error, or the context is cancelled. The period is the
// gap between calls, not a deadline: a slow check stretches the cycle.
func RepeatUntil(ctx context.Context, period time.Duration, c CheckFunc) error {
	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := c(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if period == 0 {
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(period)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Jitter returns a random duration ranging from base to base+base*factor.
func Jitter(base time.Duration, factor float64) time.Duration {
	//nolint:gosec
	return base + time.Duration(float64(base)*factor*rand.Float64())
}

// SleepWithJitter sleeps for a random duration ranging from base to
// base+base*factor.
func SleepWithJitter(base time.Duration, factor float64) {
	time.Sleep(Jitter(base, factor))
}
