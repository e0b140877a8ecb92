package core

import (
	"context"
	"errors"
)

// ErrMaxIterationsReached is returned once an actor has used its iteration budget.
var ErrMaxIterationsReached = errors.New("max iterations reached")

// NullReporter discards every event. Warmup cycles report into it.
var NullReporter Reporter = discard{}

type discard struct{}

func (discard) Report(Event) {}

// RunnerConfig bounds one actor's execution.
type RunnerConfig struct {
	MaxIterations int // 0 means no limit
	WarmupIters   int // leading cycles whose events are discarded
}

// Runner drives the cycles of a single actor. It is not safe for concurrent
// use; every actor goroutine owns its Runner.
type Runner struct {
	workflow Workflow
	reporter Reporter
	coord    Coordinator
	actorID  int
	config   RunnerConfig

	cycles  int
	started bool
}

// NewRunner binds workflow to actorID.
func NewRunner(workflow Workflow, reporter Reporter, coord Coordinator, actorID int, config RunnerConfig) *Runner {
	return &Runner{workflow: workflow, reporter: reporter, coord: coord, actorID: actorID, config: config}
}

// RunIteration runs one cycle, preceded on the first call by the workflow's
// Setup hook when it has one. Setup events are always reported, even during
// warmup. A failed Setup is returned without counting a cycle.
func (r *Runner) RunIteration(ctx context.Context) error {
	if limit := r.config.MaxIterations; limit > 0 && r.cycles >= limit {
		return ErrMaxIterationsReached
	}

	if !r.started {
		r.started = true
		if s, ok := r.workflow.(Setup); ok {
			if err := s.Setup(ctx, r.actorID, r.reporter); err != nil {
				return err
			}
		}
	}

	rep := r.reporter
	if r.IsWarmup() {
		rep = NullReporter
	}
	defer func() { r.cycles++ }()
	return r.workflow.Run(ctx, r.actorID, r.coord, rep)
}

// Iteration is the number of cycles run so far, failed ones included.
func (r *Runner) Iteration() int { return r.cycles }

// IsWarmup reports whether the next cycle's events will be discarded.
func (r *Runner) IsWarmup() bool { return r.cycles < r.config.WarmupIters }
