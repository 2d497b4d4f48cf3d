// Package ratelimit provides rate limiting domain types for the REST surface.
package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// Rate is the number of allowed requests per Period.
	Rate int

	// Burst is how many requests may arrive back to back. Defaults to Rate.
	Burst int

	// Period is the window Rate applies to.
	Period time.Duration
}

// PerMinute returns a config allowing n requests a minute with a burst of n.
func PerMinute(n int) RateLimitConfig {
	return RateLimitConfig{Rate: n, Burst: n, Period: time.Minute}
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed bool

	// Remaining is the number of requests still allowed right now.
	Remaining int

	// RetryAfter is how long until the next request is allowed.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration

	// ResetAfter is how long until the full burst is available again.
	ResetAfter time.Duration
}

// KeyType identifies what a rate limit key is derived from.
type KeyType string

// KeyTypeIP limits per client IP address.
const KeyTypeIP KeyType = "ip"

const keyPrefix = "ratelimit"

// FormatKey returns a structured rate limit key, e.g. "ratelimit:ip:10.0.0.1".
func FormatKey(keyType KeyType, value string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, keyType, value)
}
