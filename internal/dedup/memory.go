package dedup

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store backed by a TTL map. Entries expire
// after the retention window; expired entries are reclaimed by Sweep, which
// the application schedules on its own cadence so eviction never runs inside
// an in-flight check-and-mark.
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates a memory store with the given retention window.
// The cache's internal janitor is disabled; call Sweep periodically instead.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, 0),
		ttl:   ttl,
	}
}

// CheckAndMark records id and reports whether it was the first observation.
// Add fails when the key already exists and holds the cache lock for the
// whole check-and-set, which makes the operation atomic under concurrency.
func (s *MemoryStore) CheckAndMark(ctx context.Context, id string) (bool, error) {
	err := s.cache.Add(id, time.Now(), s.ttl)
	return err == nil, nil
}

// Unmark forgets id so a retry of the same event is treated as new.
func (s *MemoryStore) Unmark(ctx context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// Len returns the number of ids currently tracked, including entries that
// have expired but not yet been swept.
func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	return s.cache.ItemCount(), nil
}

// Sweep removes entries older than the retention window.
func (s *MemoryStore) Sweep() {
	s.cache.DeleteExpired()
}

// Health always succeeds for the in-process store.
func (s *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-process store.
func (s *MemoryStore) Close() error {
	return nil
}
