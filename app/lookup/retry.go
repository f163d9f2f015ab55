package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/lysyi3m/anime-comb/app/clock"
	"github.com/lysyi3m/anime-comb/app/ratelimit"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

var ErrLookupFailed = errors.New("secondary lookup failed")

// LookupFailedError is returned once every attempt has failed. It matches both
// ErrLookupFailed and the last underlying error.
type LookupFailedError struct {
	Title    string
	Attempts int
	Err      error
}

func (e *LookupFailedError) Error() string {
	return fmt.Sprintf("lookup of %q failed after %d attempts: %v", e.Title, e.Attempts, e.Err)
}

func (e *LookupFailedError) Unwrap() []error {
	return []error{ErrLookupFailed, e.Err}
}

// Waiter blocks until the caller may issue one request.
type Waiter interface {
	Wait(ctx context.Context) error
}

// RetryPolicy runs an operation up to maxAttempts times. Every attempt first
// takes a rate limiter token; failed attempts back off for
// baseDelay * 2^attemptIndex.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	limiter     Waiter
	clock       clock.Clock
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration, limiter Waiter, c clock.Clock) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	if c == nil {
		c = clock.Real{}
	}

	return &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		limiter:     limiter,
		clock:       c,
	}
}

func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Backoff is the pause after the failed attempt with the given zero-based index.
func (p *RetryPolicy) Backoff(attemptIndex int) time.Duration {
	return p.baseDelay * time.Duration(1<<attemptIndex)
}

// Run executes operation under the policy. A cancelled context while waiting
// for a token stops immediately; an exceeded token wait counts as a failed
// attempt.
func (p *RetryPolicy) Run(ctx context.Context, title string, operation func(ctx context.Context) error) error {
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++

			if err := p.limiter.Wait(ctx); err != nil {
				if errors.Is(err, ratelimit.ErrWaitExceeded) {
					return err
				}
				return retry.Unrecoverable(fmt.Errorf("failed to acquire rate limit token: %w", err))
			}

			return operation(ctx)
		},
		retry.Attempts(uint(p.maxAttempts)),
		retry.Context(ctx),
		retry.WithTimer(p.clock),
		retry.LastErrorOnly(true),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return p.Backoff(attempts - 1)
		}),
		retry.OnRetry(func(_ uint, err error) {
			slog.Warn("Secondary lookup attempt failed",
				"title", title,
				"attempt", attempts,
				"max_attempts", p.maxAttempts,
				"error", err)
		}),
	)
	if err != nil {
		return &LookupFailedError{Title: title, Attempts: attempts, Err: err}
	}

	return nil
}
