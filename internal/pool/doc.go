// Package pool provides a bounded-concurrency scheduler for lazily produced tasks.
//
// A Pool pulls tasks from a Source one slot-grant at a time, keeps at most a fixed
// number of them in flight, records every outcome by generation index, and supports
// a cooperative stop-on-error and cancellation protocol.
//
// # Key Features
//
//   - Pull-based sources: slices, lazy (possibly infinite) generators, channels
//   - Bounded concurrency with strict source-order dispatch
//   - Outcomes ordered by generation index regardless of settlement order
//   - Live, lock-consistent stats snapshots
//   - Stop-on-error and caller cancellation that drain in-flight work
//   - Panic recovery and optional per-task timeouts
//   - Rate-limited sources via golang.org/x/time/rate
//
// # Basic Usage
//
//	src := pool.FromFunc(func(i int) (pool.Task[string], bool) {
//	    if i >= len(urls) {
//	        return nil, false
//	    }
//	    return func(ctx context.Context) (string, error) {
//	        return fetch(ctx, urls[i])
//	    }, true
//	})
//
//	p, err := pool.New(src, 4, pool.WithStopOnError(true))
//	if err != nil {
//	    return err
//	}
//	result, err := p.Run(ctx)
//
// # Lifecycle
//
// A pool moves Idle -> Running -> {Completed | Cancelled | Failed}, passing through
// Draining when a stop fires while tasks are still in flight. While draining nothing
// new is dispatched. Terminal states never change.
//
//   - Completed: the source was exhausted; task failures are reported per outcome
//   - Failed: with WithStopOnError, the lowest-index failure as a *TaskError;
//     or a *SourceError when pulling failed
//   - Cancelled: Cancel was called or the run context was done; Err is ErrCancelled
//
// # Cancellation
//
// Cancellation is cooperative. In-flight tasks are never aborted by the pool; it only
// stops pulling and waits. Tasks run under context.WithoutCancel of the run context:
// they keep its values but not its deadline or cancellation, so cancelling
// the run context behaves exactly like Cancel. Bound tasks with WithTimeout instead.
//
// # Progress
//
// Stats may be called at any time; WithOnSettle receives a snapshot after each settlement:
//
//	p, _ := pool.New(src, 8, pool.WithOnSettle(func(i int, err error, s pool.Stats) {
//	    fmt.Printf("%d/%d settled\n", s.Settled(), s.Dispatched)
//	}))
package pool
