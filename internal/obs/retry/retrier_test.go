package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, Policy{Name: "test_ok", Attempts: 5, Backoff: Constant(time.Millisecond)})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausts(t *testing.T) {
	var exhausted error
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("down")
	}, Policy{
		Name: "test_exhaust", Attempts: 3, Backoff: Constant(time.Millisecond),
		OnExhaust: func(e error) { exhausted = e },
	})

	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
	assert.Equal(t, err, exhausted)
}

func TestDo_NonRetryableStopsEarly(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return fatal
	}, Policy{
		Name: "test_fatal", Attempts: 5, Backoff: Constant(time.Millisecond),
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Do(ctx, func() error {
		cancel()
		return errors.New("x")
	}, Policy{Name: "test_cancel", Attempts: 3, Backoff: Constant(time.Hour)})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpoJitter_CapsAtMax(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
}

func TestExpoJitter_StaysWithinSpread(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Jitter: 0.2}
	for range 50 {
		d := b.Next(1)
		assert.GreaterOrEqual(t, d, 160*time.Millisecond)
		assert.LessOrEqual(t, d, 240*time.Millisecond)
	}
}

func TestDo_ZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("once")
	}, Policy{})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
