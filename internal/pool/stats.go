package pool

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a pool run
type State int

const (
	// StateIdle is a constructed pool that has not been started
	StateIdle State = iota
	// StateRunning dispatches tasks as slots free up
	StateRunning
	// StateDraining dispatches nothing and waits for in-flight tasks
	StateDraining
	// StateCompleted means the source was exhausted and every task settled
	StateCompleted
	// StateCancelled means the caller stopped the run
	StateCancelled
	// StateFailed means a stop-on-error failure or a source failure ended the run
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no transition can leave s
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// MarshalText lets JSON and YAML encoders print the state name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stats is a point-in-time snapshot of pool progress
// Running + Succeeded + Failed == Dispatched holds for every snapshot
type Stats struct {
	Dispatched int `json:"dispatched" yaml:"dispatched"`
	Running    int `json:"running" yaml:"running"`
	Succeeded  int `json:"succeeded" yaml:"succeeded"`
	Failed     int `json:"failed" yaml:"failed"`
}

// Settled returns the number of tasks that finished either way
func (s Stats) Settled() int {
	return s.Succeeded + s.Failed
}

func (s Stats) String() string {
	return fmt.Sprintf("dispatched=%d running=%d succeeded=%d failed=%d",
		s.Dispatched, s.Running, s.Succeeded, s.Failed)
}

// Outcome is the settled result of one task
type Outcome[T any] struct {
	// Index is the generation index assigned when the task was pulled
	Index int

	// Value is the task's result (zero value if Err is set)
	Value T

	// Err is the failure reason (nil on success)
	Err error

	// Duration is how long the task ran
	Duration time.Duration
}

// Result is the aggregate returned by a run
type Result[T any] struct {
	// Stats are the final counts
	Stats Stats

	// Outcomes are ordered by generation index, not by settlement
	Outcomes []Outcome[T]

	// State is the terminal state
	State State

	// Err is nil for Completed, ErrCancelled for Cancelled,
	// and a *TaskError or *SourceError for Failed
	Err error

	// Elapsed is the wall time of the run
	Elapsed time.Duration
}

// Report is a type-erased Result used by formatters
type Report = Result[any]

// Report converts r into a Report
func (r *Result[T]) Report() *Report {
	outcomes := make([]Outcome[any], len(r.Outcomes))
	for i, o := range r.Outcomes {
		var value any
		if o.Err == nil {
			value = o.Value
		}
		outcomes[i] = Outcome[any]{
			Index:    o.Index,
			Value:    value,
			Err:      o.Err,
			Duration: o.Duration,
		}
	}
	return &Report{
		Stats:    r.Stats,
		Outcomes: outcomes,
		State:    r.State,
		Err:      r.Err,
		Elapsed:  r.Elapsed,
	}
}
