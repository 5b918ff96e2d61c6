// Package ratelimit provides a token-bucket limiter backed by
// golang.org/x/time/rate that throttles how often a memoized computation is
// invoked on cache misses.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter that decides whether the wrapped
// computation may run now.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps invocations per second with
// the given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a single invocation may proceed without waiting.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Wait blocks until an invocation may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
