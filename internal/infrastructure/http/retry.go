package http

import (
	"context"
	"time"
)

// RetryPolicy decides whether a failed attempt is repeated.
// The zero value performs a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the pause before retry number n (1-based). Nil means no pause.
	Backoff func(n int) time.Duration
	// Retryable reports whether err may be retried. Nil means IsNetwork.
	Retryable func(err error) bool
}

// NoRetry performs every request exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// NetworkRetry repeats requests that never reached the server, pausing step, 2*step, ... between attempts.
// Requests that got an HTTP status or timed out are never repeated: approve, reject and
// register are not idempotent on the server.
func NetworkRetry(maxAttempts int, step time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(step),
		Retryable:   IsNetwork,
	}
}

// LinearBackoff waits n*step before retry n.
func LinearBackoff(step time.Duration) func(n int) time.Duration {
	return func(n int) time.Duration {
		return time.Duration(n) * step
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if p.Retryable == nil {
		return IsNetwork(err)
	}
	return p.Retryable(err)
}

func (p RetryPolicy) pause(n int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(n)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
