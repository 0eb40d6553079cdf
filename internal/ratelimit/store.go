// Package ratelimit enforces per-client request budgets on the public API.
// Crawl endpoints hammer an external registry, so their budgets are the
// tightest in the system.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Store tracks request counts per key over a sliding window.
type Store interface {
	// Allow records one request against key if the budget permits and
	// reports the decision.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	// Reset clears the counter for a key.
	Reset(ctx context.Context, key string) error
}
