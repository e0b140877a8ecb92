// Package coordinator manages actor lifecycle and orchestration.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"primeload/internal/config"
	"primeload/internal/core"
	"primeload/internal/progress"
	"primeload/internal/ratelimit"

	"github.com/sirupsen/logrus"
)

// phaseTickInterval is how often the profile loop checks phase transitions
// and adjusts the actor count.
const phaseTickInterval = 100 * time.Millisecond

// Coordinator runs one goroutine per actor. Every actor drives its own
// Workflow through a core.Runner, so Setup hooks, iteration limits and
// warmup apply uniformly.
type Coordinator struct {
	reporter core.Reporter
	log      logrus.FieldLogger
	config   core.RunnerConfig
	limiter  *ratelimit.Limiter

	nextID atomic.Int64
	active atomic.Int32
	wg     sync.WaitGroup

	stopMu   sync.Mutex
	stops    []chan struct{} // oldest actor first
	finished int             // actors that exited on their own
}

func NewCoordinator(reporter core.Reporter) *Coordinator {
	return &Coordinator{
		reporter: reporter,
		log:      logrus.StandardLogger(),
	}
}

// SetLogger replaces the logger used for actor lifecycle messages.
func (c *Coordinator) SetLogger(log logrus.FieldLogger) {
	c.log = log
}

// SetRunnerConfig sets iteration limits for actors spawned afterwards.
func (c *Coordinator) SetRunnerConfig(cfg core.RunnerConfig) {
	c.config = cfg
}

// SetLimiter makes every actor wait on l before each cycle.
func (c *Coordinator) SetLimiter(l *ratelimit.Limiter) {
	c.limiter = l
}

// Spawn starts count actors, each with its own Workflow from factory.
// It implements core.Coordinator.
func (c *Coordinator) Spawn(ctx context.Context, count int, factory core.WorkflowFactory) {
	c.SpawnWithConfig(ctx, count, factory, c.config)
}

// SpawnWithConfig starts count actors with explicit iteration limits.
func (c *Coordinator) SpawnWithConfig(ctx context.Context, count int, factory core.WorkflowFactory, cfg core.RunnerConfig) {
	for i := 0; i < count; i++ {
		c.spawn(ctx, factory, cfg)
	}
}

// Wait blocks until every actor has exited.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// ActiveActors returns the number of running actors.
func (c *Coordinator) ActiveActors() int {
	return int(c.active.Load())
}

func (c *Coordinator) spawn(ctx context.Context, factory core.WorkflowFactory, cfg core.RunnerConfig) {
	stop := make(chan struct{})
	id := int(c.nextID.Add(1))

	c.stopMu.Lock()
	c.stops = append(c.stops, stop)
	c.stopMu.Unlock()

	c.active.Add(1)
	c.wg.Add(1)
	go func() {
		defer func() {
			c.forget(stop)
			c.active.Add(-1)
			c.wg.Done()
		}()
		defer c.recoverPanic(id)
		c.runActor(ctx, id, factory(id), cfg, stop)
	}()
}

func (c *Coordinator) runActor(ctx context.Context, id int, workflow core.Workflow, cfg core.RunnerConfig, stop <-chan struct{}) {
	ctx = core.ContextWithActorID(ctx, id)
	log := c.log.WithField("actor", id)
	runner := core.NewRunner(workflow, c.reporter, c, id, cfg)

	log.Debug("actor started")
	for {
		select {
		case <-ctx.Done():
			log.Debug("actor stopped")
			return
		case <-stop:
			log.Debug("actor retired")
			return
		default:
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		err := runner.RunIteration(ctx)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrMaxIterationsReached):
			log.WithField("iterations", runner.Iteration()).Debug("actor finished")
			return
		case ctx.Err() != nil:
			return
		default:
			log.WithError(err).Warn("actor stopped on error")
			return
		}
	}
}

// recoverPanic recovers from panics in actor goroutines and reports them as failed events.
func (c *Coordinator) recoverPanic(actorID int) {
	if r := recover(); r != nil {
		c.log.WithField("actor", actorID).Errorf("actor panicked: %v", r)
		c.reporter.Report(core.Event{
			ActorID:   actorID,
			Timestamp: time.Now(),
			Step:      "panic",
			Success:   false,
			Error:     fmt.Sprintf("panic: %v", r),
		})
	}
}

// stopActors retires the n oldest actors. They exit after their current cycle.
func (c *Coordinator) stopActors(n int) {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	if n > len(c.stops) {
		n = len(c.stops)
	}
	for _, ch := range c.stops[:n] {
		close(ch)
	}
	c.stops = c.stops[n:]
}

func (c *Coordinator) stopAllActors() {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	for _, ch := range c.stops {
		close(ch)
	}
	c.stops = nil
}

// forget drops the stop channel of an actor that exited on its own.
// The actor keeps its slot in the profile until a ramp-down releases it,
// so a failed login or an exhausted iteration budget is never respawned.
func (c *Coordinator) forget(stop chan struct{}) {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	for i, ch := range c.stops {
		if ch == stop {
			c.stops = append(c.stops[:i], c.stops[i+1:]...)
			c.finished++
			return
		}
	}
}

// RunWithProfile scales actors to the profile's phases until the profile
// completes or ctx is done. It returns once every actor has been told to stop;
// call Wait to block until they have exited.
func (c *Coordinator) RunWithProfile(ctx context.Context, profile *config.LoadProfile, factory core.WorkflowFactory, prog *progress.Progress) {
	pm := ratelimit.NewPhaseManager(profile.Phases)
	if c.limiter == nil {
		for _, p := range profile.Phases {
			if p.RPS > 0 {
				c.limiter = ratelimit.NewLimiter(0)
				break
			}
		}
	}
	c.runProfile(ctx, pm, factory, prog)
}

func (c *Coordinator) runProfile(ctx context.Context, pm *ratelimit.PhaseManager, factory core.WorkflowFactory, prog *progress.Progress) {
	announce := func(format string, args ...any) {
		if prog != nil {
			prog.Printf(format, args...)
			return
		}
		c.log.Infof(format, args...)
	}

	ticker := time.NewTicker(phaseTickInterval)
	defer ticker.Stop()

	phase := -1
	for {
		state := pm.State()
		if state.Complete {
			c.stopAllActors()
			return
		}

		if state.Index != phase {
			phase = state.Index
			if state.RPS > 0 {
				announce("Phase: %s (target users: %d, rps: %d)", state.Name, state.TargetActors, state.RPS)
			} else {
				announce("Phase: %s (target users: %d)", state.Name, state.TargetActors)
			}
			if c.limiter != nil {
				c.limiter.SetRate(state.RPS)
			}
		}

		c.scaleTo(ctx, state.TargetActors, factory)

		select {
		case <-ctx.Done():
			c.stopAllActors()
			return
		case <-ticker.C:
		}
	}
}

// scaleTo moves the slot count to target. Finished actors hold slots, so
// only a rising target spawns; a falling one releases finished slots before
// retiring running actors.
func (c *Coordinator) scaleTo(ctx context.Context, target int, factory core.WorkflowFactory) {
	c.stopMu.Lock()
	current := len(c.stops) + c.finished
	if current > target {
		released := min(current-target, c.finished)
		c.finished -= released
		current -= released
	}
	c.stopMu.Unlock()

	switch {
	case current < target:
		c.SpawnWithConfig(ctx, target-current, factory, c.config)
	case current > target:
		c.stopActors(current - target)
	}
}
