// Package ratelimit throttles anonymous traffic per client address.
//
// A Store counts requests per key over a window. The in-memory store keeps a
// sliding window per key and serves a single instance; the Redis store keeps a
// fixed window shared by every instance behind the same Redis.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of counting one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts a request against key and reports whether it fits within
// limit requests per window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*Result, error)
}
