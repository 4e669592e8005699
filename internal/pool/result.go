package pool

import (
	"fmt"
	"strings"
	"time"
)

// CountSuccessful returns the number of successful outcomes (no error)
func CountSuccessful[T any](outcomes []Outcome[T]) int {
	count := 0
	for _, o := range outcomes {
		if o.Err == nil {
			count++
		}
	}
	return count
}

// CountFailed returns the number of failed outcomes
func CountFailed[T any](outcomes []Outcome[T]) int {
	return len(outcomes) - CountSuccessful(outcomes)
}

// FilterSuccessful returns only the successful outcomes
func FilterSuccessful[T any](outcomes []Outcome[T]) []Outcome[T] {
	filtered := make([]Outcome[T], 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// FilterFailed returns only the failed outcomes
func FilterFailed[T any](outcomes []Outcome[T]) []Outcome[T] {
	filtered := make([]Outcome[T], 0)
	for _, o := range outcomes {
		if o.Err != nil {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// Values returns the values of the successful outcomes in generation order
func Values[T any](outcomes []Outcome[T]) []T {
	values := make([]T, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			values = append(values, o.Value)
		}
	}
	return values
}

// Errors returns every failure wrapped in a *TaskError, in generation order
func Errors[T any](outcomes []Outcome[T]) []error {
	errs := make([]error, 0)
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, &TaskError{Index: o.Index, Err: o.Err})
		}
	}
	return errs
}

// AverageDuration calculates the average duration of all outcomes
func AverageDuration[T any](outcomes []Outcome[T]) time.Duration {
	if len(outcomes) == 0 {
		return 0
	}

	var total time.Duration
	for _, o := range outcomes {
		total += o.Duration
	}
	return total / time.Duration(len(outcomes))
}

// MaxDuration returns the longest duration among all outcomes
func MaxDuration[T any](outcomes []Outcome[T]) time.Duration {
	var longest time.Duration
	for _, o := range outcomes {
		longest = max(longest, o.Duration)
	}
	return longest
}

// MinDuration returns the shortest duration among all outcomes
func MinDuration[T any](outcomes []Outcome[T]) time.Duration {
	if len(outcomes) == 0 {
		return 0
	}

	shortest := outcomes[0].Duration
	for _, o := range outcomes[1:] {
		shortest = min(shortest, o.Duration)
	}
	return shortest
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func SuccessRate[T any](outcomes []Outcome[T]) float64 {
	if len(outcomes) == 0 {
		return 0.0
	}
	return float64(CountSuccessful(outcomes)) / float64(len(outcomes)) * 100.0
}

// Summary provides a summary of a run's outcomes
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	AvgDuration time.Duration
	MaxDuration time.Duration
	MinDuration time.Duration
}

// Summarize creates a summary of the outcomes
func Summarize[T any](outcomes []Outcome[T]) Summary {
	return Summary{
		Total:       len(outcomes),
		Successful:  CountSuccessful(outcomes),
		Failed:      CountFailed(outcomes),
		AvgDuration: AverageDuration(outcomes),
		MaxDuration: MaxDuration(outcomes),
		MinDuration: MinDuration(outcomes),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, Successful: %d, Failed: %d", s.Total, s.Successful, s.Failed))
	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Min: %s", s.MinDuration.Round(time.Millisecond)))
	}

	return sb.String()
}
