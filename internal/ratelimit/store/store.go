// Package store provides storage backends for rate limiting state.
package store

import (
	"context"
	"time"
)

// Store persists per-key request timestamps for sliding-window
// admission.
type Store interface {
	// Take atomically prunes timestamps older than cutoff, counts the
	// survivors, and records now if the count is below max. It returns
	// the pre-record count and whether the attempt was recorded. The
	// prune-count-record sequence is linearizable per key.
	Take(ctx context.Context, key string, cutoff, now time.Time, max int) (count int, recorded bool, err error)

	// Reset discards all recorded timestamps for the given key.
	Reset(ctx context.Context, key string) error

	// EvictIdle removes keys whose newest timestamp is older than
	// cutoff. Backends with native expiry may implement it as a no-op.
	EvictIdle(ctx context.Context, cutoff time.Time) error

	// Close releases backend resources.
	Close() error
}
