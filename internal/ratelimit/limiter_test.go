package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_ZeroRateDoesNotBlock(t *testing.T) {
	l := NewLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_ZeroRateHonoursCancelledContext(t *testing.T) {
	l := NewLimiter(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestLimiter_NilIsUnlimited(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_BurstThenBlocks(t *testing.T) {
	l := NewLimiter(1)
	assert.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestLimiter_SetRate(t *testing.T) {
	l := NewLimiter(1)
	l.SetRate(1000)
	assert.Equal(t, 1000, l.Rate())

	start := time.Now()
	for i := 0; i < 10; i++ {
		assert.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	l.SetRate(0)
	assert.Equal(t, 0, l.Rate())
}
