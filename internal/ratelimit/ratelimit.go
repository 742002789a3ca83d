// Package ratelimit paces the sequential product loop with a fixed
// inter-product delay.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	delay      time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func New(delay time.Duration) *Limiter {
	return &Limiter{delay: delay}
}

// Wait blocks until the configured delay has elapsed since the previous
// action, or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := time.Since(l.lastAction)
	if elapsed < l.delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.delay - elapsed):
		}
	}

	l.lastAction = time.Now()
	return nil
}
