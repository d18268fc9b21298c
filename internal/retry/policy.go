package retry

import (
	"context"
	"fmt"
)

// DefaultTrials is the number of query attempts made for identity-critical fields.
const DefaultTrials = 3

// Policy describes a bounded retry-with-reload schedule:
//
//	attempt -> (miss) backoff -> reload -> settle -> attempt ...
//
// up to Trials attempts. Only errors for which Transient returns true are
// retried; anything else aborts immediately.
type Policy struct {
	Trials    int
	Backoff   Delay // before reloading
	Settle    Delay // after reloading
	Transient func(error) bool
	Sleep     Sleeper
	// OnMiss, if set, is called after every transient miss.
	OnMiss func(attempt int, err error)
}

// DefaultPolicy returns the 3-trial schedule with a 6-8s backoff and a 2-4s settle.
func DefaultPolicy(transient func(error) bool) Policy {
	return Policy{
		Trials:    DefaultTrials,
		Backoff:   Seconds(6, 8),
		Settle:    Seconds(2, 4),
		Transient: transient,
		Sleep:     Sleep,
	}
}

// Outcome reports how a Do call ended.
type Outcome[T any] struct {
	Value    T
	OK       bool  // a value was collected
	Attempts int   // number of query attempts made
	LastMiss error // last transient error seen, if any
}

type state int

const (
	stateAttempt state = iota
	stateBackoff
	stateReload
	stateSettle
	stateDone
)

// Do runs query under the policy. When query reports a transient miss, Do
// waits, calls reload and waits again before the next attempt. After Trials
// transient misses it returns an Outcome with OK false and a nil error.
// A non-transient query error, a reload error or context cancellation is
// returned as err.
func Do[T any](ctx context.Context, p Policy, query func(context.Context) (T, error), reload func(context.Context) error) (Outcome[T], error) {
	var out Outcome[T]

	trials := p.Trials
	if trials < 1 {
		trials = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	transient := p.Transient
	if transient == nil {
		transient = func(error) bool { return false }
	}

	st := stateAttempt
	for st != stateDone {
		switch st {
		case stateAttempt:
			out.Attempts++
			v, err := query(ctx)
			switch {
			case err == nil:
				out.Value, out.OK = v, true
				st = stateDone
			case !transient(err):
				return out, err
			default:
				out.LastMiss = err
				if p.OnMiss != nil {
					p.OnMiss(out.Attempts, err)
				}
				if out.Attempts >= trials {
					st = stateDone
				} else {
					st = stateBackoff
				}
			}

		case stateBackoff:
			if err := p.Backoff.Wait(ctx, sleep); err != nil {
				return out, err
			}
			st = stateReload

		case stateReload:
			if reload != nil {
				if err := reload(ctx); err != nil {
					return out, fmt.Errorf("reload after attempt %d: %w", out.Attempts, err)
				}
			}
			st = stateSettle

		case stateSettle:
			if err := p.Settle.Wait(ctx, sleep); err != nil {
				return out, err
			}
			st = stateAttempt
		}
	}

	return out, nil
}
