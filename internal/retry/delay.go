// Package retry provides randomized courtesy delays and a bounded
// retry-with-reload policy for page queries that may transiently miss.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delay is a randomized wait between Min and Max, inclusive, in whole seconds.
// Durations below one second are drawn uniformly instead.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// Seconds builds a Delay of min to max seconds.
func Seconds(min, max int) Delay {
	return Delay{Min: time.Duration(min) * time.Second, Max: time.Duration(max) * time.Second}
}

// Duration draws one wait from the range.
func (d Delay) Duration() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	if d.Min >= time.Second && d.Min%time.Second == 0 && d.Max%time.Second == 0 {
		lo, hi := int64(d.Min/time.Second), int64(d.Max/time.Second)
		return time.Duration(lo+rand.Int64N(hi-lo+1)) * time.Second
	}
	return d.Min + time.Duration(rand.Int64N(int64(d.Max-d.Min)+1))
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep returns immediately unless ctx is already done. Used by tests.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Wait sleeps for a randomized duration drawn from d.
func (d Delay) Wait(ctx context.Context, sleep Sleeper) error {
	if sleep == nil {
		sleep = Sleep
	}
	return sleep(ctx, d.Duration())
}
