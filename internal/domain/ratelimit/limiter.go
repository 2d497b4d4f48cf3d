package ratelimit

import "context"

// RateLimiter decides whether a request identified by key may proceed.
//
// Implementations use GCRA (Generic Cell Rate Algorithm), which spreads
// requests evenly instead of resetting at fixed window boundaries.
type RateLimiter interface {
	// Allow records one request for key and reports whether it is allowed.
	// The key should be created by FormatKey.
	Allow(ctx context.Context, key string, config RateLimitConfig) (RateLimitResult, error)
}
