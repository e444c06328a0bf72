// Package resilient wraps single store reads with bounded retry and exponential backoff.
//
// It must only wrap idempotent reads: retrying a write that has side effects
// would apply them more than once.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

type config struct {
	maxAttempts int
	baseDelay   time.Duration
	onRetry     func(attempt int, err error)
}

// Option configures Do.
type Option func(*config)

// WithMaxAttempts sets the total number of calls, the first one included.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithBaseDelay sets the wait after the first failure. The wait after
// failure i (counting from 0) is baseDelay * 2^i.
func WithBaseDelay(d time.Duration) Option {
	return func(c *config) {
		c.baseDelay = d
	}
}

// WithOnRetry registers a hook called after every failed attempt that will be retried.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// Do calls op until it succeeds or maxAttempts calls have failed, waiting
// baseDelay * 2^attemptIndex between calls. The last error is returned unchanged.
// Context cancellation stops the loop and is not retried.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	cfg := config{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}
	if cfg.baseDelay <= 0 {
		cfg.baseDelay = time.Nanosecond
	}

	backoff := retry.WithMaxRetries(
		uint64(cfg.maxAttempts-1),
		retry.NewExponential(cfg.baseDelay),
	)

	var (
		result  T
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt < cfg.maxAttempts && cfg.onRetry != nil {
			cfg.onRetry(attempt, err)
		}

		return retry.RetryableError(err)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
