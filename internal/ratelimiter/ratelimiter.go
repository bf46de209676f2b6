// Package ratelimiter throttles background refreshes against remote
// providers using the token bucket algorithm.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the semantics the
// providers need: a non-blocking fast path for opportunistic refreshes and
// a context-aware blocking path for mandatory ones.
//
// Thread Safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained and up to
// burst immediate requests.
//
// Special cases:
//   - requestsPerSecond = 0: no rate limiting (effectively unlimited)
//   - burst = 0 with a nonzero rate: burst defaults to requestsPerSecond,
//     since a zero-burst limiter rejects every Wait
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		// Effectively unlimited; rate.Inf has edge cases, so use a large value
		requestsPerSecond = 1_000_000_000
		burst = requestsPerSecond
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether one request is allowed right now, consuming a
// token when it is. This is the fast path: it never blocks.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled.
//
// Returns nil once a token was acquired, or the context error if ctx was
// cancelled first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the current number of available tokens. Primarily useful
// for monitoring and tests; the value may change immediately after the
// call.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
