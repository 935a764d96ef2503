package store

import (
	"context"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the janitor scans for idle keys.
const DefaultCleanupInterval = time.Minute

// DefaultMaxIdle is how long a key may stay untouched before the
// janitor evicts it.
const DefaultMaxIdle = 10 * time.Minute

// record holds the request timestamps for a single key. Each record
// carries its own mutex so unrelated keys never contend. deleted is
// set under mu when the record is removed from the map, so a reader
// that loaded the record before removal knows to retry instead of
// writing into an orphan.
type record struct {
	mu      sync.Mutex
	times   []time.Time
	deleted bool
}

// MemoryStore implements Store using in-process storage.
type MemoryStore struct {
	data    sync.Map
	janitor *time.Ticker
	maxIdle time.Duration
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// MemoryStoreOption is a functional option for MemoryStore.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	cleanupInterval time.Duration
	maxIdle         time.Duration
}

// WithCleanupInterval sets how often idle keys are scanned.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.cleanupInterval = interval
	}
}

// WithMaxIdle sets how long a key may stay untouched before eviction.
func WithMaxIdle(maxIdle time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.maxIdle = maxIdle
	}
}

// NewMemoryStore creates a new in-memory store with a background
// janitor that evicts idle keys.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := &memoryStoreConfig{
		cleanupInterval: DefaultCleanupInterval,
		maxIdle:         DefaultMaxIdle,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &MemoryStore{
		janitor: time.NewTicker(cfg.cleanupInterval),
		maxIdle: cfg.maxIdle,
		done:    make(chan struct{}),
	}

	go s.runJanitor()

	return s
}

// Take implements Store.
func (s *MemoryStore) Take(ctx context.Context, key string, cutoff, now time.Time, max int) (int, bool, error) {
	select {
	case <-ctx.Done():
		return 0, false, ctx.Err()
	default:
	}

	for {
		rec := s.getOrCreate(key)

		rec.mu.Lock()
		if rec.deleted {
			// The janitor removed this record between the map load and
			// the lock. Retry against the map's current record.
			rec.mu.Unlock()
			continue
		}

		// Prune in place. Timestamps are appended in order, so the
		// survivors form a suffix.
		keep := rec.times[:0]
		for _, t := range rec.times {
			if t.After(cutoff) {
				keep = append(keep, t)
			}
		}
		rec.times = keep

		count := len(rec.times)
		if count >= max {
			rec.mu.Unlock()
			return count, false, nil
		}

		rec.times = append(rec.times, now)
		rec.mu.Unlock()
		return count, true, nil
	}
}

// Reset implements Store.
func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if value, ok := s.data.Load(key); ok {
		rec := value.(*record)
		rec.mu.Lock()
		rec.deleted = true
		rec.mu.Unlock()
		s.data.Delete(key)
	}
	return nil
}

// EvictIdle implements Store. It removes keys whose newest timestamp
// is older than cutoff.
func (s *MemoryStore) EvictIdle(ctx context.Context, cutoff time.Time) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.data.Range(func(key, value interface{}) bool {
		rec := value.(*record)
		rec.mu.Lock()
		idle := true
		for _, t := range rec.times {
			if t.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			// Mark before removing so a Take that already loaded this
			// record retries instead of recording into an orphan.
			rec.deleted = true
			s.data.Delete(key)
		}
		rec.mu.Unlock()
		return true
	})

	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.janitor.Stop()
	close(s.done)

	return nil
}

// Size returns the number of tracked keys.
func (s *MemoryStore) Size() int {
	count := 0
	s.data.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// getOrCreate retrieves or creates the record for the given key.
func (s *MemoryStore) getOrCreate(key string) *record {
	value, _ := s.data.LoadOrStore(key, &record{})
	return value.(*record)
}

// runJanitor periodically evicts idle keys.
func (s *MemoryStore) runJanitor() {
	for {
		select {
		case <-s.janitor.C:
			_ = s.EvictIdle(context.Background(), time.Now().Add(-s.maxIdle))
		case <-s.done:
			return
		}
	}
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
