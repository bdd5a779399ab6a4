// Package retry wraps fallible operations with bounded retries and a fixed
// delay between attempts.
package retry

import (
	"context"
	"time"
)

// Policy controls how many attempts an operation gets and the pause between
// them. MaxRetries is the total attempt count: MaxRetries=1 means a single
// attempt and no retry. The delay is fixed, without jitter or backoff.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

// Do invokes op until it succeeds or the policy is exhausted. The error from
// the final attempt is returned unmodified so callers can branch on its kind.
// Do keeps no state between calls and is safe for concurrent use.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return err
		}
	}
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		out = v
		return nil
	})
	return out, err
}
