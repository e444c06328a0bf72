package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	tests := []struct {
		name     string
		failures int
	}{
		{name: "first call succeeds", failures: 0},
		{name: "one failure", failures: 1},
		{name: "two failures", failures: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Do(context.Background(), func(ctx context.Context) (string, error) {
				calls++
				if calls <= tt.failures {
					return "", errors.New("connection reset")
				}
				return "ok", nil
			}, WithBaseDelay(time.Millisecond))

			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			assert.Equal(t, tt.failures+1, calls)
		})
	}
}

func TestDo_AlwaysFailingReturnsLastError(t *testing.T) {
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	calls := 0

	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		err := errs[calls]
		calls++
		return 0, err
	}, WithBaseDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, calls)
	assert.Same(t, errs[2], err)
}

func TestDo_CustomMaxAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("down")

	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, sentinel
	}, WithMaxAttempts(5), WithBaseDelay(time.Microsecond))

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 5, calls)
}

func TestDo_BackoffDoublesEachAttempt(t *testing.T) {
	var stamps []time.Time
	base := 20 * time.Millisecond

	_, _ = Do(context.Background(), func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("down")
	}, WithBaseDelay(base))

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), base)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 2*base)
}

func TestDo_OnRetryHook(t *testing.T) {
	var attempts []int

	_, _ = Do(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("down")
	}, WithBaseDelay(time.Microsecond), WithOnRetry(func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}))

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, context.Canceled
	}, WithBaseDelay(time.Millisecond))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
