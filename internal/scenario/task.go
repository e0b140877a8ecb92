// Package scenario turns a set of weighted tasks into a core.Workflow:
// each cycle picks one task at random by weight, runs it, then pauses.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"primeload/internal/core"
)

// ErrNoTasks is returned when no task has a positive weight.
var ErrNoTasks = errors.New("no task with positive weight")

// TaskFunc performs one task. Requests it issues are reported through rep.
type TaskFunc func(ctx context.Context, rep core.Reporter) error

// Task is a named, weighted unit of user behavior. Weight is relative:
// a task of weight 3 is picked three times as often as one of weight 1.
// Weight 0 disables the task.
type Task struct {
	Name   string
	Weight int
	Fn     TaskFunc
}

// WithWeights returns a copy of tasks with weights replaced from overrides.
// Naming a task that does not exist is an error.
func WithWeights(tasks []Task, overrides map[string]int) ([]Task, error) {
	out := make([]Task, len(tasks))
	copy(out, tasks)

	index := make(map[string]int, len(out))
	for i, t := range out {
		index[t.Name] = i
	}

	var unknown []string
	for name, w := range overrides {
		i, ok := index[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out[i].Weight = w
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown tasks %v", unknown)
	}
	return out, nil
}

// Selector draws tasks from the discrete distribution given by their weights.
// A Selector is not safe for concurrent use; each actor owns one.
type Selector struct {
	tasks      []Task
	cumulative []int
	total      int
	rng        *rand.Rand
}

// NewSelector builds a Selector over the tasks with positive weight.
func NewSelector(tasks []Task, rng *rand.Rand) (*Selector, error) {
	s := &Selector{rng: rng}
	for _, t := range tasks {
		switch {
		case t.Weight < 0:
			return nil, fmt.Errorf("task %q: weight %d must not be negative", t.Name, t.Weight)
		case t.Weight == 0:
			continue
		case t.Fn == nil:
			return nil, fmt.Errorf("task %q has no function", t.Name)
		}
		s.total += t.Weight
		s.tasks = append(s.tasks, t)
		s.cumulative = append(s.cumulative, s.total)
	}
	if s.total == 0 {
		return nil, ErrNoTasks
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return s, nil
}

// Pick returns task i with probability Weight(i)/sum(weights).
func (s *Selector) Pick() Task {
	n := s.rng.Intn(s.total)
	i := sort.SearchInts(s.cumulative, n+1)
	return s.tasks[i]
}

// Wait computes the pause after a task.
type Wait func(rng *rand.Rand) time.Duration

// Between waits a uniformly random duration in [min, max].
func Between(min, max time.Duration) Wait {
	if max < min {
		min, max = max, min
	}
	return func(rng *rand.Rand) time.Duration {
		if max == min {
			return min
		}
		return min + time.Duration(rng.Int63n(int64(max-min)+1))
	}
}

// Constant always waits d.
func Constant(d time.Duration) Wait {
	return func(*rand.Rand) time.Duration { return d }
}
