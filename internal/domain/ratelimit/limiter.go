// Package ratelimit provides rate limiting domain types for sign-in throttling.
package ratelimit

import (
	"context"
	"time"
)

// Config defines the rate limiting parameters.
type Config struct {
	// Rate is the number of allowed events in the period.
	Rate int
	// Burst is the maximum number of events that can occur at once.
	// Burst should be >= Rate for meaningful operation.
	Burst int
	// Period is the time window for the rate limit.
	Period time.Duration
}

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool
	// Remaining is the number of remaining requests in the current window.
	Remaining int
	// RetryAfter is the duration until the next request will be allowed.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration
	// ResetAfter is the duration until the rate limit resets.
	ResetAfter time.Duration
}

// Limiter is the interface for rate limiting operations.
//
// Implementations should use GCRA (Generic Cell Rate Algorithm) for smooth
// limiting without burst artifacts at window boundaries. The interface is
// storage-agnostic; the in-memory implementation lives in adapter/outbound/memory.
type Limiter interface {
	// Allow checks if an event identified by key is allowed under the
	// given config, atomically consuming capacity when it is.
	Allow(ctx context.Context, key string, config Config) (Result, error)
}
