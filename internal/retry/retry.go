// Package retry provides bounded exponential backoff for provider calls.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config bounds a retry loop.
type Config struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // initial backoff interval
}

// DefaultConfig matches the observed provider behavior: three attempts
// starting at half a second.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Do runs op, retrying with exponential backoff while retryable(err) holds.
// Non-retryable errors abort immediately. The context cancels the wait
// between attempts as well as the attempts themselves.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, op func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseDelay
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	wrapped := func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	limited := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(cfg.MaxAttempts-1))
	return backoff.Retry(wrapped, limited)
}
