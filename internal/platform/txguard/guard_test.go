package txguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errDeadlock = errors.New("deadlock detected")

func TestGuardRetriesConflictsUntilSuccess(t *testing.T) {
	var retried []int
	guard := Guard{
		MaxJitter: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			require.ErrorIs(t, err, ErrConflictRetryable)
			require.LessOrEqual(t, delay, time.Millisecond)
			retried = append(retried, attempt)
		},
	}

	calls := 0
	err := guard.Run(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Conflict(errDeadlock)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2}, retried)
}

func TestGuardGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Guard{MaxJitter: time.Millisecond}.Run(context.Background(), func(context.Context) error {
		calls++
		return Conflict(errDeadlock)
	})
	require.Equal(t, DefaultMaxAttempts, calls)
	require.ErrorIs(t, err, ErrAttemptsExhausted)
	require.ErrorIs(t, err, errDeadlock)
}

func TestGuardStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("validation failed")
	calls := 0
	err := Guard{MaxJitter: time.Millisecond}.Run(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	require.Equal(t, 1, calls)
	require.Equal(t, permanent, err)
	require.NotErrorIs(t, err, ErrAttemptsExhausted)
}

func TestGuardHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Guard{MaxAttempts: 10, MaxJitter: time.Millisecond}.Run(ctx, func(context.Context) error {
		calls++
		cancel()
		return Conflict(errDeadlock)
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestConflictNil(t *testing.T) {
	require.NoError(t, Conflict(nil))
	require.False(t, IsRetryable(errDeadlock))
	require.True(t, IsRetryable(Conflict(errDeadlock)))
}
