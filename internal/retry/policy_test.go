package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMiss = errors.New("miss")

func isMiss(err error) bool { return errors.Is(err, errMiss) }

// flaky fails the first k calls with errMiss and then returns value.
func flaky(k int, value string, calls *int) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		*calls++
		if *calls <= k {
			return "", errMiss
		}
		return value, nil
	}
}

func testPolicy() Policy {
	p := DefaultPolicy(isMiss)
	p.Sleep = NoSleep
	return p
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls, reloads := 0, 0
	out, err := Do(context.Background(), testPolicy(), flaky(0, "Data Scientist", &calls),
		func(context.Context) error { reloads++; return nil })

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "Data Scientist", out.Value)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 0, reloads)
}

func TestDo_RecoversWhenFailuresBelowTrials(t *testing.T) {
	for k := 0; k < DefaultTrials; k++ {
		calls, reloads := 0, 0
		out, err := Do(context.Background(), testPolicy(), flaky(k, "title", &calls),
			func(context.Context) error { reloads++; return nil })

		require.NoError(t, err)
		assert.True(t, out.OK, "k=%d", k)
		assert.Equal(t, "title", out.Value)
		assert.Equal(t, k+1, out.Attempts)
		assert.Equal(t, k, reloads, "one reload per miss")
	}
}

func TestDo_GivesUpAfterTrials(t *testing.T) {
	for _, k := range []int{DefaultTrials, DefaultTrials + 2} {
		calls := 0
		out, err := Do(context.Background(), testPolicy(), flaky(k, "title", &calls), nil)

		require.NoError(t, err)
		assert.False(t, out.OK)
		assert.Empty(t, out.Value)
		assert.Equal(t, DefaultTrials, out.Attempts)
		assert.Equal(t, DefaultTrials, calls, "no retries past the trial count")
		assert.ErrorIs(t, out.LastMiss, errMiss)
	}
}

func TestDo_NonTransientErrorAborts(t *testing.T) {
	boom := errors.New("browser crashed")
	calls := 0
	out, err := Do(context.Background(), testPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.False(t, out.OK)
	assert.Equal(t, 1, calls)
}

func TestDo_ReloadErrorAborts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testPolicy(), flaky(5, "x", &calls),
		func(context.Context) error { return errors.New("navigate failed") })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reload after attempt 1")
	assert.Equal(t, 1, calls)
}

func TestDo_SchedulesBackoffThenSettle(t *testing.T) {
	var waits []time.Duration
	p := testPolicy()
	p.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	calls := 0
	_, err := Do(context.Background(), p, flaky(1, "x", &calls), nil)
	require.NoError(t, err)

	require.Len(t, waits, 2)
	assert.GreaterOrEqual(t, waits[0], 6*time.Second)
	assert.LessOrEqual(t, waits[0], 8*time.Second)
	assert.GreaterOrEqual(t, waits[1], 2*time.Second)
	assert.LessOrEqual(t, waits[1], 4*time.Second)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, testPolicy(), flaky(5, "x", &calls), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelay_DurationWithinRange(t *testing.T) {
	d := Seconds(2, 4)
	for i := 0; i < 100; i++ {
		got := d.Duration()
		assert.GreaterOrEqual(t, got, 2*time.Second)
		assert.LessOrEqual(t, got, 4*time.Second)
		assert.Zero(t, got%time.Second, "whole seconds")
	}
}

func TestDelay_DegenerateRange(t *testing.T) {
	assert.Equal(t, time.Second, Delay{Min: time.Second, Max: 0}.Duration())
	assert.Zero(t, Delay{}.Duration())
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestDo_OnMissReportsEachAttempt(t *testing.T) {
	var attempts []int
	p := testPolicy()
	p.OnMiss = func(attempt int, err error) {
		assert.ErrorIs(t, err, errMiss)
		attempts = append(attempts, attempt)
	}

	calls := 0
	_, err := Do(context.Background(), p, flaky(10, "x", &calls), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}
