package pool

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Task is one unit of work. It is started at most once and yields exactly one outcome
type Task[T any] func(ctx context.Context) (T, error)

// Source is a pull-based, possibly infinite provider of tasks
//
// Next returns the next task with ok set to true, or ok == false once the sequence is
// exhausted. A non-nil error means the source itself failed and is fatal for the run.
// Pulls are ordered: the Nth call yields the task with generation index N-1.
type Source[T any] interface {
	Next(ctx context.Context) (task Task[T], ok bool, err error)
}

// SourceFunc adapts a plain function to the Source interface
type SourceFunc[T any] func(ctx context.Context) (Task[T], bool, error)

// Next calls f(ctx)
func (f SourceFunc[T]) Next(ctx context.Context) (Task[T], bool, error) {
	return f(ctx)
}

// sliceSource serves a fixed list of tasks in order
type sliceSource[T any] struct {
	mu    sync.Mutex
	tasks []Task[T]
	pos   int
}

// FromSlice returns a Source over a fixed list of tasks
func FromSlice[T any](tasks []Task[T]) Source[T] {
	return &sliceSource[T]{tasks: tasks}
}

func (s *sliceSource[T]) Next(_ context.Context) (Task[T], bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.tasks) {
		return nil, false, nil
	}
	task := s.tasks[s.pos]
	s.pos++
	return task, true, nil
}

// funcSource produces tasks lazily from a generator
type funcSource[T any] struct {
	mu   sync.Mutex
	gen  func(i int) (Task[T], bool)
	next int
	done bool
}

// FromFunc returns a lazy Source that calls gen with 0, 1, 2, ... until it reports false
// A generator that never reports false yields an infinite source
func FromFunc[T any](gen func(i int) (Task[T], bool)) Source[T] {
	return &funcSource[T]{gen: gen}
}

func (s *funcSource[T]) Next(_ context.Context) (Task[T], bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, false, nil
	}
	task, ok := s.gen(s.next)
	if !ok {
		s.done = true
		return nil, false, nil
	}
	s.next++
	return task, true, nil
}

// FromChannel returns a Source fed asynchronously by ch
// The sequence ends when ch is closed; a pull blocks until a task arrives or ctx is done
func FromChannel[T any](ch <-chan Task[T]) Source[T] {
	return SourceFunc[T](func(ctx context.Context) (Task[T], bool, error) {
		select {
		case task, ok := <-ch:
			if !ok {
				return nil, false, nil
			}
			return task, true, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	})
}

// RateLimited wraps src so that every pull first waits on limiter
// When the next token is not due before ctx's deadline the pull blocks until ctx is
// done and returns ctx.Err(), so the pool sees an interrupted pull rather than a
// source failure. A nil limiter returns src unchanged
func RateLimited[T any](src Source[T], limiter *rate.Limiter) Source[T] {
	if limiter == nil {
		return src
	}
	return SourceFunc[T](func(ctx context.Context) (Task[T], bool, error) {
		if err := limiter.Wait(ctx); err != nil {
			if _, ok := ctx.Deadline(); ok && ctx.Err() == nil && limiter.Burst() > 0 {
				<-ctx.Done()
			}
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			return nil, false, err
		}
		return src.Next(ctx)
	})
}
