package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned by New for a concurrency limit below 1 or a nil source
	ErrInvalidConfiguration = errors.New("invalid pool configuration")

	// ErrAlreadyRunning is returned when Start or Run is called more than once
	ErrAlreadyRunning = errors.New("pool already running")

	// ErrCancelled is the terminating error of a run stopped by Cancel or by its context
	ErrCancelled = errors.New("pool cancelled by caller")

	// ErrTaskTimeout is the failure reported by a task wrapped with WithTimeout when its timer fires
	ErrTaskTimeout = errors.New("task timed out")
)

// TaskError attributes a task failure to the generation index of the task
type TaskError struct {
	Index int
	Err   error
}

// Error implements the error interface
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d failed: %v", e.Index, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *TaskError) Unwrap() error {
	return e.Err
}

// SourceError reports a failure of the Source itself while pulling
// Pull is the zero-based number of the pull that failed
type SourceError struct {
	Pull int
	Err  error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	return fmt.Sprintf("source failed on pull %d: %v", e.Pull, e.Err)
}

// Unwrap returns the wrapped error
func (e *SourceError) Unwrap() error {
	return e.Err
}

// PanicError is recorded as the failure of a task that panicked
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}

// IsTaskError reports whether err carries a *TaskError
func IsTaskError(err error) bool {
	var te *TaskError
	return errors.As(err, &te)
}

// IsSourceError reports whether err carries a *SourceError
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// IsCancelled reports whether err is the caller cancellation of a run
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
