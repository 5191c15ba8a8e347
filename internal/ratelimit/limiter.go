// Package ratelimit throttles calls to external metadata services.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging/debugging.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter allowing requestsPerSecond on average. The burst
// is the rate rounded up, and at least one.
func New(name string, requestsPerSecond float64) *Limiter {
	burst := max(1, int(math.Ceil(requestsPerSecond)))
	return NewWithBurst(name, requestsPerSecond, burst)
}

// NewWithBurst creates a new rate limiter with custom burst size.
func NewWithBurst(name string, requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows a request to proceed.
// Returns an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.limiter.Allow() {
		slog.Debug("Waiting for rate limiter", "limiter", l.name)
		if err := l.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
		}
	}
	return nil
}

// Allow reports whether a request can proceed without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	return l.name
}
