// Package ratelimit caps the aggregate task rate of a run and tracks the
// phases of a load profile.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a shared token bucket that every actor waits on before
// starting a task. A rate of zero disables limiting.
type Limiter struct {
	mu      sync.RWMutex
	limiter *rate.Limiter
}

// NewLimiter creates a Limiter allowing perSecond tasks per second with a
// burst of the same size.
func NewLimiter(perSecond int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond)}
}

// Wait blocks until a task may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	lim := l.limiter
	l.mu.RUnlock()

	if lim.Limit() == 0 {
		return ctx.Err()
	}
	return lim.Wait(ctx)
}

// SetRate changes the rate, typically on a phase transition.
func (l *Limiter) SetRate(perSecond int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter.SetLimit(rate.Limit(perSecond))
	l.limiter.SetBurst(perSecond)
}

// Rate returns the current tasks-per-second ceiling, 0 meaning unlimited.
func (l *Limiter) Rate() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int(l.limiter.Limit())
}
