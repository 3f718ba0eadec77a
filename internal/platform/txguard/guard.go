// Package txguard retries transactional work that lost a write-write race.
//
// Storage adapters wrap deadlocks and serialization failures with
// ErrConflictRetryable; Guard re-runs the whole operation with a uniformly
// jittered delay until it succeeds, fails permanently, or runs out of attempts.
package txguard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 3
	DefaultMaxJitter   = 100 * time.Millisecond
)

var (
	ErrConflictRetryable = errors.New("retryable transaction conflict")
	ErrAttemptsExhausted = errors.New("transaction conflict retries exhausted")
)

// Conflict marks err as a retryable write-write conflict.
func Conflict(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConflictRetryable, err)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflictRetryable)
}

// Guard runs an operation up to MaxAttempts times, sleeping a random
// duration in [0, MaxJitter] between attempts.
type Guard struct {
	MaxAttempts int
	MaxJitter   time.Duration
	// OnRetry is called before each re-run with the failed attempt number.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (g Guard) Run(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	maxJitter := g.MaxJitter
	if maxJitter <= 0 {
		maxJitter = DefaultMaxJitter
	}

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&uniformJitter{max: maxJitter}, uint64(attempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, delay time.Duration) {
		if g.OnRetry != nil {
			g.OnRetry(attempt, err, delay)
		}
	})
	if err == nil {
		return nil
	}
	if IsRetryable(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, err)
	}
	return err
}

// uniformJitter is a backoff.BackOff drawing every delay from [0, max].
type uniformJitter struct {
	max time.Duration
}

func (j *uniformJitter) NextBackOff() time.Duration {
	if j.max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(j.max) + 1))
}

func (j *uniformJitter) Reset() {}
