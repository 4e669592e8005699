package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// stopReason records what ended dispatching; the first trigger wins
type stopReason int

const (
	stopNone stopReason = iota
	stopTaskFailure
	stopCancelled
	stopSourceFailure
)

// Pool pulls tasks from a Source and keeps at most limit of them in flight
// A Pool runs once; construct a new one for every run
type Pool[T any] struct {
	// source provides the tasks
	source Source[T]

	// limit is the concurrency budget
	limit int

	stopOnError bool
	name        string
	logger      Logger
	onSettle    SettleFunc

	// slots holds one token per task in flight
	slots chan struct{}

	// wg tracks in-flight tasks
	wg sync.WaitGroup

	// started guards against a second run
	started atomic.Bool

	// stopped is closed on the first stop trigger
	stopped chan struct{}

	// finished is closed once the run reached a terminal state
	finished chan struct{}

	// mu protects everything below
	mu        sync.Mutex
	state     State
	stats     Stats
	outcomes  []Outcome[T]
	reason    stopReason
	cause     error
	stopPull  context.CancelFunc
	startedAt time.Time
}

// New creates a pool over src with the given concurrency limit
// limit must be >= 1 and src non-nil, otherwise ErrInvalidConfiguration is returned
// and src is never pulled
func New[T any](src Source[T], limit int, opts ...Option) (*Pool[T], error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: concurrency limit must be at least 1, got %d", ErrInvalidConfiguration, limit)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrInvalidConfiguration)
	}

	o := &options{
		logger: nopLogger{},
		name:   "pool",
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Pool[T]{
		source:      src,
		limit:       limit,
		stopOnError: o.stopOnError,
		name:        o.name,
		logger:      o.logger,
		onSettle:    o.onSettle,
		slots:       make(chan struct{}, limit),
		stopped:     make(chan struct{}),
		finished:    make(chan struct{}),
		state:       StateIdle,
	}, nil
}

// Run executes the pool to completion and returns the aggregate result
// The returned error is ErrAlreadyRunning (with a nil result) on a second call,
// otherwise it equals result.Err
func (p *Pool[T]) Run(ctx context.Context) (*Result[T], error) {
	fut, err := p.Start(ctx)
	if err != nil {
		return nil, err
	}
	return fut.Wait()
}

// Start launches the dispatch loop and returns a future for the aggregate result
// Cancelling ctx has the same effect as Cancel: nothing new is dispatched and the
// run ends Cancelled. Tasks receive ctx's values but not its cancellation, so tasks
// in flight run to completion
func (p *Pool[T]) Start(ctx context.Context) (*Future[*Result[T]], error) {
	if !p.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	pullCtx, stopPull := context.WithCancel(ctx)

	p.mu.Lock()
	p.state = StateRunning
	p.startedAt = time.Now()
	p.stopPull = stopPull
	if p.reason != stopNone {
		stopPull()
	}
	p.mu.Unlock()

	p.logger.Info("pool started", p.name, []string{"pool", "start"}, map[string]any{
		"limit":         p.limit,
		"stop_on_error": p.stopOnError,
	})

	fut := newFuture[*Result[T]]()

	go func() {
		select {
		case <-ctx.Done():
			p.Cancel()
		case <-p.finished:
		}
	}()

	taskCtx := context.WithoutCancel(ctx)

	go func() {
		defer stopPull()
		result := p.loop(ctx, pullCtx, taskCtx)
		close(p.finished)
		fut.resolve(result, result.Err)
	}()

	return fut, nil
}

// Cancel stops dispatching and lets in-flight tasks finish; the run ends Cancelled
// Called before Start the run ends Cancelled without dispatching anything.
// Called after the run reached a terminal state, or once a stop is already under way,
// it does nothing
func (p *Pool[T]) Cancel() {
	p.mu.Lock()
	fired := p.stopLocked(stopCancelled, ErrCancelled)
	running := p.stats.Running
	p.mu.Unlock()

	if fired {
		p.logger.Warn("pool cancelled", p.name, []string{"pool", "cancel"}, map[string]any{
			"running": running,
		})
	}
}

// Stats returns a consistent snapshot of the counters; it never blocks on tasks
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// State returns the current lifecycle state
func (p *Pool[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Limit returns the concurrency limit
func (p *Pool[T]) Limit() int {
	return p.limit
}

// Name returns the id used in log events
func (p *Pool[T]) Name() string {
	return p.name
}

// loop is the dispatch/refill loop; it returns once every dispatched task settled
// ctx is the caller's context, tasks run under taskCtx
func (p *Pool[T]) loop(ctx, pullCtx, taskCtx context.Context) *Result[T] {
	for {
		select {
		case p.slots <- struct{}{}:
		case <-p.stopped:
			return p.drain()
		case <-ctx.Done():
			p.Cancel()
			return p.drain()
		}

		// select picks randomly when several cases are ready
		if p.stopping() {
			<-p.slots
			break
		}
		if ctx.Err() != nil {
			<-p.slots
			p.Cancel()
			break
		}

		task, ok, err := p.source.Next(pullCtx)
		if err != nil {
			<-p.slots
			if pullCtx.Err() != nil {
				// the pull was interrupted by a stop or by the caller's context
				if ctx.Err() != nil {
					p.Cancel()
				}
				break
			}
			p.failSource(err)
			break
		}
		if !ok {
			<-p.slots
			p.logger.Info("source exhausted", p.name, []string{"pool", "source"}, map[string]any{
				"dispatched": p.Stats().Dispatched,
			})
			break
		}
		if task == nil {
			<-p.slots
			p.failSource(errors.New("source returned a nil task"))
			break
		}

		if !p.dispatch(ctx, taskCtx, task) {
			<-p.slots
			break
		}
	}

	return p.drain()
}

// dispatch records and starts task unless a stop fired or ctx ended since it was pulled
func (p *Pool[T]) dispatch(ctx, taskCtx context.Context, task Task[T]) bool {
	if ctx.Err() != nil {
		p.Cancel()
		return false
	}

	p.mu.Lock()
	if p.reason != stopNone {
		p.mu.Unlock()
		return false
	}
	index := len(p.outcomes)
	p.outcomes = append(p.outcomes, Outcome[T]{Index: index})
	p.stats.Dispatched++
	p.stats.Running++
	p.wg.Add(1)
	p.mu.Unlock()

	go p.execute(taskCtx, index, task)
	return true
}

// execute runs one task and reports its outcome exactly once
func (p *Pool[T]) execute(ctx context.Context, index int, task Task[T]) {
	defer p.wg.Done()

	start := time.Now()
	value, err := invoke(ctx, task)
	p.settle(index, value, err, time.Since(start))

	// free the slot only after the counters moved, so Running never exceeds limit
	<-p.slots
}

func (p *Pool[T]) settle(index int, value T, err error, d time.Duration) {
	p.mu.Lock()
	o := &p.outcomes[index]
	o.Value = value
	o.Err = err
	o.Duration = d

	p.stats.Running--
	if err != nil {
		p.stats.Failed++
	} else {
		p.stats.Succeeded++
	}

	triggered := false
	if err != nil && p.stopOnError {
		triggered = p.stopLocked(stopTaskFailure, nil)
	}
	snapshot := p.stats
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("task failed", p.name, []string{"pool", "task"}, map[string]any{
			"index":    index,
			"error":    err.Error(),
			"duration": d.String(),
		})
	}
	if triggered {
		p.logger.Warn("stopping on task failure", p.name, []string{"pool", "drain"}, map[string]any{
			"index":   index,
			"running": snapshot.Running,
		})
	}

	if p.onSettle != nil {
		p.onSettle(index, err, snapshot)
	}
}

func (p *Pool[T]) failSource(err error) {
	p.mu.Lock()
	serr := &SourceError{Pull: len(p.outcomes), Err: err}
	fired := p.stopLocked(stopSourceFailure, serr)
	running := p.stats.Running
	p.mu.Unlock()

	if fired {
		p.logger.Error("source failed", p.name, []string{"pool", "source"}, map[string]any{
			"error":   err.Error(),
			"running": running,
		})
	}
}

// stopLocked records the first stop trigger; p.mu must be held
func (p *Pool[T]) stopLocked(reason stopReason, cause error) bool {
	if p.reason != stopNone || p.state.Terminal() {
		return false
	}
	p.reason = reason
	p.cause = cause
	if p.stats.Running > 0 {
		p.state = StateDraining
	}
	close(p.stopped)
	if p.stopPull != nil {
		p.stopPull()
	}
	return true
}

func (p *Pool[T]) stopping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason != stopNone
}

// drain waits for in-flight tasks and moves the pool to its terminal state
func (p *Pool[T]) drain() *Result[T] {
	p.wg.Wait()

	p.mu.Lock()
	var err error
	switch p.reason {
	case stopNone:
		p.state = StateCompleted
	case stopCancelled:
		p.state = StateCancelled
		err = ErrCancelled
	case stopSourceFailure:
		p.state = StateFailed
		err = p.cause
	case stopTaskFailure:
		p.state = StateFailed
		err = p.firstFailureLocked()
	}

	outcomes := make([]Outcome[T], len(p.outcomes))
	copy(outcomes, p.outcomes)
	result := &Result[T]{
		Stats:    p.stats,
		Outcomes: outcomes,
		State:    p.state,
		Err:      err,
		Elapsed:  time.Since(p.startedAt),
	}
	p.mu.Unlock()

	details := map[string]any{
		"state":      result.State.String(),
		"dispatched": result.Stats.Dispatched,
		"succeeded":  result.Stats.Succeeded,
		"failed":     result.Stats.Failed,
		"elapsed":    result.Elapsed.String(),
	}
	if result.State == StateFailed {
		details["error"] = err.Error()
		p.logger.Error("pool failed", p.name, []string{"pool", "finish"}, details)
	} else {
		p.logger.Info("pool finished", p.name, []string{"pool", "finish"}, details)
	}

	return result
}

// firstFailureLocked returns the failure with the lowest generation index
func (p *Pool[T]) firstFailureLocked() error {
	for _, o := range p.outcomes {
		if o.Err != nil {
			return &TaskError{Index: o.Index, Err: o.Err}
		}
	}
	return nil
}

// invoke runs task, converting a panic into a *PanicError
func invoke[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: r, Stack: buf[:n]}
		}
	}()

	return task(ctx)
}
