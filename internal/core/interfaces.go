// Package core holds the types shared by the engine, the scenario and the
// reporting side: events, workflows, runners and clocks.
package core

import (
	"context"
	"time"
)

// Event is one measurement reported by an actor: a request, or a whole task
// execution when Protocol is "task".
type Event struct {
	ActorID    int
	Timestamp  time.Time
	Step       string // request label or task name
	Task       string // task that issued the request, empty during setup
	Protocol   string
	Duration   time.Duration
	Success    bool
	Error      string
	StatusCode int
	BytesSent  int64
	BytesRecv  int64
}

// Reporter receives events. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(Event)
}

// Workflow runs one scheduling cycle of an actor per call.
type Workflow interface {
	Run(ctx context.Context, actorID int, coord Coordinator, rep Reporter) error
}

// Setup is an optional one-time hook run before a workflow's first cycle.
type Setup interface {
	Setup(ctx context.Context, actorID int, rep Reporter) error
}

// WorkflowFactory builds the Workflow owned by one actor, so per-actor state
// such as a token or a header set never leaks between actors.
type WorkflowFactory func(actorID int) Workflow

// Shared hands the same stateless workflow to every actor.
func Shared(w Workflow) WorkflowFactory {
	return func(int) Workflow { return w }
}

// Coordinator starts actors.
type Coordinator interface {
	Spawn(ctx context.Context, count int, factory WorkflowFactory)
}
