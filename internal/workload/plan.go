// Package workload builds synthetic task sources for the taskpool CLI.
//
// A Plan is a list of steps repeated Count times (or forever when Count is -1).
// Every step sleeps for its delay, honouring cancellation, then either returns
// its value or fails with one of the util exception kinds. Plans are loaded from
// YAML files or built from command-line flags.
package workload

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/taskpool/internal/pool"
	"github.com/aryankumar/taskpool/internal/util"
)

// Infinite as a Count repeats the steps until the pool is stopped
const Infinite = -1

// Step describes one task
type Step struct {
	Delay time.Duration `yaml:"delay,omitempty"`
	Fail  bool          `yaml:"fail,omitempty"`
	Kind  string        `yaml:"kind,omitempty"`
	Value string        `yaml:"value,omitempty"`
}

// Plan is a repeatable sequence of steps
type Plan struct {
	Name  string `yaml:"name,omitempty"`
	Count int    `yaml:"count,omitempty"`
	Steps []Step `yaml:"steps"`

	// FailAt forces the tasks at these absolute indices to fail with Kind
	FailAt []int  `yaml:"failAt,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
}

// FromFlags builds a plan of n identical tasks, failing the ones listed in failAt
func FromFlags(n int, delay time.Duration, failAt []int, kind string) *Plan {
	return &Plan{
		Name:   "flags",
		Count:  n,
		Steps:  []Step{{Delay: delay}},
		FailAt: failAt,
		Kind:   kind,
	}
}

// LoadPlan reads and validates a YAML plan file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	p, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// ParsePlan decodes and validates a YAML plan
// A missing count runs the steps once
func ParsePlan(data []byte) (*Plan, error) {
	p := &Plan{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if p.Count == 0 {
		p.Count = 1
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the plan for errors
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return util.NewValidationError("steps", nil, "at least one step is required")
	}
	if p.Count < Infinite {
		return util.NewValidationError("count", p.Count, "must be -1 (infinite) or a non-negative number")
	}
	if _, err := util.ExceptionFor(p.Kind, nil); err != nil {
		return err
	}
	for _, idx := range p.FailAt {
		if idx < 0 {
			return util.NewValidationError("failAt", idx, "indices must not be negative")
		}
	}
	for i, s := range p.Steps {
		if s.Delay < 0 {
			return util.NewValidationError(fmt.Sprintf("steps[%d].delay", i), s.Delay, "must not be negative")
		}
		if _, err := util.ExceptionFor(s.Kind, nil); err != nil {
			return util.WrapErrorf(err, "steps[%d]", i)
		}
	}
	return nil
}

// Len returns the number of tasks the plan produces, or Infinite
func (p *Plan) Len() int {
	if p.Count == Infinite {
		return Infinite
	}
	return p.Count * len(p.Steps)
}

// Task returns the task at absolute index i
func (p *Plan) Task(i int) pool.Task[string] {
	step := p.Steps[i%len(p.Steps)]
	fail, kind := step.Fail, step.Kind
	if slices.Contains(p.FailAt, i) {
		fail = true
		if kind == "" {
			kind = p.Kind
		}
	}
	value := step.Value
	if value == "" {
		value = fmt.Sprintf("task-%d", i)
	}

	return func(ctx context.Context) (string, error) {
		if step.Delay > 0 {
			timer := time.NewTimer(step.Delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if fail {
			exc, err := util.ExceptionFor(kind, fmt.Sprintf("task %d", i))
			if err != nil {
				return "", err
			}
			return "", exc
		}
		return value, nil
	}
}

// Source returns a lazy source over the plan's tasks
// A positive timeout bounds every task
func (p *Plan) Source(timeout time.Duration) pool.Source[string] {
	n := p.Len()
	return pool.FromFunc(func(i int) (pool.Task[string], bool) {
		if n != Infinite && i >= n {
			return nil, false
		}
		return pool.WithTimeout(timeout, p.Task(i)), true
	})
}
