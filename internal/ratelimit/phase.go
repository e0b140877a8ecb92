package ratelimit

import (
	"time"

	"primeload/internal/config"
	"primeload/internal/core"
)

// PhaseState is what the coordinator needs to know at one instant of a profile.
type PhaseState struct {
	Index        int
	Name         string
	TargetActors int
	RPS          int
	Complete     bool
}

// PhaseManager maps elapsed run time onto the configured phases.
type PhaseManager struct {
	phases    []config.Phase
	startTime time.Time
	clock     core.Clock
}

func NewPhaseManager(phases []config.Phase) *PhaseManager {
	return NewPhaseManagerWithClock(phases, core.RealClock{})
}

func NewPhaseManagerWithClock(phases []config.Phase, clock core.Clock) *PhaseManager {
	return &PhaseManager{
		phases:    phases,
		startTime: clock.Now(),
		clock:     clock,
	}
}

func (pm *PhaseManager) Elapsed() time.Duration {
	return pm.clock.Since(pm.startTime)
}

// State computes the current phase, its actor target and its rate.
// Ramps interpolate linearly between StartActors and EndActors.
func (pm *PhaseManager) State() PhaseState {
	elapsed := pm.Elapsed()

	var phaseStart time.Duration
	for i, p := range pm.phases {
		if elapsed >= phaseStart+p.Duration {
			phaseStart += p.Duration
			continue
		}
		return PhaseState{
			Index:        i,
			Name:         p.Name,
			TargetActors: targetActors(p, elapsed-phaseStart),
			RPS:          p.RPS,
		}
	}
	return PhaseState{Index: len(pm.phases), Complete: true}
}

func targetActors(p config.Phase, into time.Duration) int {
	if p.Actors > 0 {
		return p.Actors
	}
	if p.StartActors == p.EndActors || p.Duration <= 0 {
		return p.StartActors
	}
	progress := float64(into) / float64(p.Duration)
	if progress > 1 {
		progress = 1
	}
	return p.StartActors + int(float64(p.EndActors-p.StartActors)*progress)
}

// CurrentPhase returns the active phase, or nil once the profile is over.
func (pm *PhaseManager) CurrentPhase() *config.Phase {
	s := pm.State()
	if s.Complete {
		return nil
	}
	return &pm.phases[s.Index]
}

func (pm *PhaseManager) IsComplete() bool { return pm.State().Complete }

func (pm *PhaseManager) TargetActors() int { return pm.State().TargetActors }
