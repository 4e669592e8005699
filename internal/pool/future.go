package pool

import (
	"context"
	"sync"
)

// Future holds a value that becomes available exactly once
// It is pending until resolved, then fulfilled (nil error) or rejected
type Future[V any] struct {
	done chan struct{}
	once sync.Once
	val  V
	err  error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

// resolve settles the future; only the first call has any effect
func (f *Future[V]) resolve(val V, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future has settled
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles and returns its value and error
func (f *Future[V]) Wait() (V, error) {
	<-f.done
	return f.val, f.err
}

// WaitContext is like Wait but gives up when ctx is done
// Giving up does not affect the underlying work
func (f *Future[V]) WaitContext(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
