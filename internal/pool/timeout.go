package pool

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout wraps task so that it fails with ErrTaskTimeout once d elapses
// The task keeps running in the background with a cancelled context; it is never
// forcibly stopped. A non-positive d returns task unchanged
func WithTimeout[T any](d time.Duration, task Task[T]) Task[T] {
	if d <= 0 {
		return task
	}

	return func(ctx context.Context) (T, error) {
		taskCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type settled struct {
			value T
			err   error
		}
		done := make(chan settled, 1)

		go func() {
			value, err := invoke(taskCtx, task)
			done <- settled{value: value, err: err}
		}()

		select {
		case s := <-done:
			return s.value, s.err
		case <-taskCtx.Done():
			var zero T
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, fmt.Errorf("%w after %s", ErrTaskTimeout, d)
		}
	}
}
