// Package ratelimit wraps a token-bucket limiter for the single remote
// call budget every log-service call must acquire from: capacity N,
// initial tokens N, refill N tokens per second, acquire cost 1.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter bounds remote-call throughput to N calls per second, including
// pagination continuations; each call acquires exactly one token.
type Limiter struct {
	l *rate.Limiter
}

// New builds a Limiter at tps tokens/second, with a full bucket of tps
// tokens available immediately.
func New(tps int) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(tps), tps)}
}

// Acquire blocks until a token is available or ctx is done.
func (r *Limiter) Acquire(ctx context.Context) error {
	return r.l.Wait(ctx)
}
