package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// TokenLimiter throttles LLM usage by tokens per minute.
type TokenLimiter struct {
	limiter *rate.Limiter
	max     int
}

// NewTokenLimiter creates a limiter refilling maxPerMinute tokens every minute.
// A non-positive limit disables throttling.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	if maxPerMinute <= 0 {
		return &TokenLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &TokenLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), maxPerMinute),
		max:     maxPerMinute,
	}
}

// Wait blocks until the given number of tokens is available or ctx is done.
// Requests larger than the per-minute budget wait for a full bucket.
func (t *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	if t.max == 0 || tokens <= 0 {
		return nil
	}
	if tokens > t.max {
		tokens = t.max
	}
	return t.limiter.WaitN(ctx, tokens)
}

// GetRemaining reports the tokens currently available.
func (t *TokenLimiter) GetRemaining() int {
	if t.max == 0 {
		return -1
	}
	return int(t.limiter.Tokens())
}
