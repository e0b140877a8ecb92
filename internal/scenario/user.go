package scenario

import (
	"context"
	"math/rand"
	"time"

	"primeload/internal/collector"
	"primeload/internal/core"

	"github.com/sirupsen/logrus"
)

// Options configures a User. Zero values pick real-time defaults.
type Options struct {
	Wait    Wait
	Sleeper core.Sleeper
	Rand    *rand.Rand
	Logger  logrus.FieldLogger
	// OnStart runs once per actor before its first task.
	OnStart func(ctx context.Context, rep core.Reporter) error
}

// User is the workflow of one simulated user. Build a fresh User per actor.
type User struct {
	selector *Selector
	wait     Wait
	sleeper  core.Sleeper
	rng      *rand.Rand
	log      logrus.FieldLogger
	onStart  func(ctx context.Context, rep core.Reporter) error
}

func NewUser(tasks []Task, opts Options) (*User, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	sel, err := NewSelector(tasks, rng)
	if err != nil {
		return nil, err
	}

	u := &User{
		selector: sel,
		wait:     opts.Wait,
		sleeper:  opts.Sleeper,
		rng:      rng,
		log:      opts.Logger,
		onStart:  opts.OnStart,
	}
	if u.wait == nil {
		u.wait = Constant(0)
	}
	if u.sleeper == nil {
		u.sleeper = core.RealSleeper{}
	}
	if u.log == nil {
		u.log = logrus.StandardLogger()
	}
	return u, nil
}

// Setup implements core.Setup.
func (u *User) Setup(ctx context.Context, actorID int, rep core.Reporter) error {
	if u.onStart == nil {
		return nil
	}
	return u.onStart(core.ContextWithActorID(ctx, actorID), rep)
}

// Run implements core.Workflow: one task followed by one pause.
// A failing task is recorded and logged; it does not stop the user.
func (u *User) Run(ctx context.Context, actorID int, coord core.Coordinator, rep core.Reporter) error {
	task := u.selector.Pick()
	tctx := core.ContextWithTask(core.ContextWithActorID(ctx, actorID), task.Name)

	start := time.Now()
	err := task.Fn(tctx, rep)
	duration := time.Since(start)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	ev := core.Event{
		ActorID:   actorID,
		Timestamp: time.Now(),
		Step:      task.Name,
		Task:      task.Name,
		Protocol:  collector.ProtocolTask,
		Duration:  duration,
		Success:   err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
		u.log.WithFields(logrus.Fields{"actor": actorID, "task": task.Name}).WithError(err).Debug("task failed")
	}
	rep.Report(ev)

	return u.sleeper.Sleep(ctx, u.wait(u.rng))
}
