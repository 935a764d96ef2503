package ratelimit

import (
	"context"
	"time"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit/store"
)

// SlidingWindowLimiter implements exact-timestamp sliding window rate
// limiting on top of a store.Store. A denied attempt never consumes
// budget.
type SlidingWindowLimiter struct {
	store   store.Store
	profile Profile
	logger  observability.Logger
	metrics *Metrics
	now     func() time.Time
}

// SlidingWindowOption is a functional option for SlidingWindowLimiter.
type SlidingWindowOption func(*SlidingWindowLimiter)

// WithLimiterLogger sets the logger.
func WithLimiterLogger(logger observability.Logger) SlidingWindowOption {
	return func(l *SlidingWindowLimiter) {
		l.logger = logger
	}
}

// WithLimiterMetrics sets the metrics.
func WithLimiterMetrics(metrics *Metrics) SlidingWindowOption {
	return func(l *SlidingWindowLimiter) {
		l.metrics = metrics
	}
}

// WithLimiterClock sets the time source. Intended for tests.
func WithLimiterClock(now func() time.Time) SlidingWindowOption {
	return func(l *SlidingWindowLimiter) {
		l.now = now
	}
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(s store.Store, profile Profile, opts ...SlidingWindowOption) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		store:   s,
		profile: profile,
		logger:  observability.NopLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.metrics == nil {
		l.metrics = NewMetrics("olympus")
	}

	return l
}

// Profile returns the limiter's configuration.
func (l *SlidingWindowLimiter) Profile() Profile {
	return l.profile
}

// Check implements Limiter. The store performs the prune-count-record
// sequence atomically per key, so two racing requests never both take
// the last slot.
func (l *SlidingWindowLimiter) Check(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	cutoff := now.Add(-l.profile.Window)

	count, recorded, err := l.store.Take(ctx, key, cutoff, now, l.profile.MaxRequests)
	if err != nil {
		return nil, err
	}

	resetAt := now.Add(l.profile.Window)

	if !recorded {
		l.metrics.RecordCheck(l.profile.Scope, "denied")
		l.logger.Debug("rate limit exceeded",
			observability.String("key", key),
			observability.Int("limit", l.profile.MaxRequests),
		)
		return &Result{
			Allowed:    false,
			Limit:      l.profile.MaxRequests,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: l.profile.Window,
		}, nil
	}

	remaining := l.profile.MaxRequests - count - 1
	if remaining < 0 {
		remaining = 0
	}

	l.metrics.RecordCheck(l.profile.Scope, "allowed")

	return &Result{
		Allowed:   true,
		Limit:     l.profile.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset implements Limiter.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}

// Ensure SlidingWindowLimiter implements Limiter.
var _ Limiter = (*SlidingWindowLimiter)(nil)
