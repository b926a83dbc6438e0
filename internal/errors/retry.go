package errors

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Backoff describes how a failed call is retried.
type Backoff struct {
	// Attempts is the number of retries after the first call.
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	// Factor multiplies the wait after every retry.
	Factor float64
	// Jitter scales each wait by a random factor in [0.5, 1).
	Jitter bool
	// Retryable reports whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(err error) bool
	// OnRetry is called before each wait with the 1-based retry number.
	OnRetry func(retry int, wait time.Duration, err error)
}

// LockBackoff waits for an index held by another writer: up to attempts
// retries starting at one second and capped at thirty, retrying only
// ERR_204_INDEX_LOCKED.
func LockBackoff(attempts int) Backoff {
	return Backoff{
		Attempts:  attempts,
		Initial:   time.Second,
		Max:       30 * time.Second,
		Factor:    2,
		Jitter:    true,
		Retryable: HasCode(ErrCodeIndexLocked),
	}
}

// HasCode returns a Retryable predicate matching errors with code.
func HasCode(code string) func(error) bool {
	return func(err error) bool { return GetCode(err) == code }
}

// Wait returns the wait before retry n (1-based), without jitter.
func (b Backoff) Wait(n int) time.Duration {
	wait := b.Initial
	for i := 1; i < n; i++ {
		wait = time.Duration(float64(wait) * b.Factor)
		if b.Max > 0 && wait >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && wait > b.Max {
		return b.Max
	}
	return wait
}

// Retry calls fn until it succeeds, returns an error Retryable rejects, the
// retries run out or ctx is done. A rejected error is returned as is; an
// exhausted one is wrapped so its code stays visible to GetCode.
func Retry[T any](ctx context.Context, b Backoff, fn func() (T, error)) (T, error) {
	var zero T
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return zero, err
		}
		if n >= b.Attempts {
			return zero, fmt.Errorf("gave up after %d attempts: %w", n+1, err)
		}

		wait := b.Wait(n + 1)
		if b.Jitter {
			wait = time.Duration(float64(wait) * (0.5 + rand.Float64()*0.5))
		}
		if b.OnRetry != nil {
			b.OnRetry(n+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// Do is Retry for calls without a result.
func Do(ctx context.Context, b Backoff, fn func() error) error {
	_, err := Retry(ctx, b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
