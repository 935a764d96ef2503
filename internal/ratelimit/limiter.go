package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Check performs a single admission check for the given key.
	Check(ctx context.Context, key string) (*Result, error)

	// Reset discards the recorded state for the given key.
	Reset(ctx context.Context, key string) error
}

// Result represents the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is admitted.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the current window expires.
	ResetAt time.Time

	// RetryAfter is the delay before a denied caller may retry. Zero
	// when the request was admitted.
	RetryAfter time.Duration
}

// Profile is a named rate limit configuration. The scope partitions
// limiter namespaces so the same identity has an independent budget
// per profile.
type Profile struct {
	// Scope prefixes every key derived under this profile.
	Scope string `yaml:"scope"`

	// Window is the sliding window duration.
	Window time.Duration `yaml:"window"`

	// MaxRequests is the admission budget within the window.
	MaxRequests int `yaml:"max_requests"`
}

// DefaultProfile covers general API traffic.
func DefaultProfile() Profile {
	return Profile{Scope: "api", Window: time.Minute, MaxRequests: 100}
}

// AuthProfile covers authentication endpoints, which tolerate far
// fewer attempts.
func AuthProfile() Profile {
	return Profile{Scope: "auth", Window: 15 * time.Minute, MaxRequests: 5}
}

// StrictProfile covers sensitive administrative endpoints.
func StrictProfile() Profile {
	return Profile{Scope: "strict", Window: time.Minute, MaxRequests: 10}
}

// NoopLimiter is a rate limiter that always admits requests.
type NoopLimiter struct{}

// NewNoopLimiter creates a new noop limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Check implements Limiter.
func (l *NoopLimiter) Check(ctx context.Context, key string) (*Result, error) {
	return &Result{Allowed: true}, nil
}

// Reset implements Limiter.
func (l *NoopLimiter) Reset(ctx context.Context, key string) error {
	return nil
}
