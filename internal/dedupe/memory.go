package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a bounded, time-expiring dedupe store scoped to a single
// process. Entries silently expire after the TTL, after which a redelivery
// of the same id is treated as new and re-published; under horizontal
// scale-out instances do not share state, so suppression is best-effort.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]time.Time // id -> expiry
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

// NewMemoryStore creates an in-memory store holding at most maxEntries ids
// for ttl each.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]time.Time),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Seen(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	// Expired entries are reaped on the next MarkSeen sweep.
	return s.now().Before(expiry), nil
}

func (s *MemoryStore) MarkSeen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxEntries {
		s.evictLocked()
	}
	s.entries[id] = s.now().Add(s.ttl)
	return nil
}

// evictLocked drops expired entries, then the soonest-expiring entry if the
// map is still full. Linear over the map, acceptable at the configured cap.
func (s *MemoryStore) evictLocked() {
	now := s.now()
	for id, expiry := range s.entries {
		if !now.Before(expiry) {
			delete(s.entries, id)
		}
	}
	if len(s.entries) < s.maxEntries {
		return
	}

	var (
		oldestID     string
		oldestExpiry time.Time
	)
	for id, expiry := range s.entries {
		if oldestID == "" || expiry.Before(oldestExpiry) {
			oldestID = id
			oldestExpiry = expiry
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the current number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
