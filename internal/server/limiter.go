package server

import (
	"context"
	"sync"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit"
)

// swappableLimiter delegates to a replaceable inner limiter so rate
// limit profiles can be hot swapped on config reload without
// rebuilding the middleware chain.
type swappableLimiter struct {
	mu      sync.RWMutex
	limiter ratelimit.Limiter
}

func newSwappableLimiter(limiter ratelimit.Limiter) *swappableLimiter {
	return &swappableLimiter{limiter: limiter}
}

// Check implements ratelimit.Limiter.
func (s *swappableLimiter) Check(ctx context.Context, key string) (*ratelimit.Result, error) {
	s.mu.RLock()
	limiter := s.limiter
	s.mu.RUnlock()
	return limiter.Check(ctx, key)
}

// Reset implements ratelimit.Limiter.
func (s *swappableLimiter) Reset(ctx context.Context, key string) error {
	s.mu.RLock()
	limiter := s.limiter
	s.mu.RUnlock()
	return limiter.Reset(ctx, key)
}

// Swap replaces the inner limiter.
func (s *swappableLimiter) Swap(limiter ratelimit.Limiter) {
	s.mu.Lock()
	s.limiter = limiter
	s.mu.Unlock()
}

// Ensure swappableLimiter implements Limiter.
var _ ratelimit.Limiter = (*swappableLimiter)(nil)
