package geocoding

import (
	"context"
	"sync"
	"time"

	"github.com/handcar/handcar-backend/pkg/geo"
)

const defaultMaxEntries = 10000

// MemoryStore is a process-local Store. Entries expire ttl after insertion; when
// maxEntries is reached the oldest insertion is evicted first. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]memoryEntry
	order      []string
	now        func() time.Time
}

type memoryEntry struct {
	point     geo.Point
	expiresAt time.Time
}

// NewMemoryStore builds a MemoryStore. ttl <= 0 keeps entries until evicted.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]memoryEntry),
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (geo.Point, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return geo.Point{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.remove(key)
		return geo.Point{}, false, nil
	}
	return entry.point, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, point geo.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		s.remove(key)
	}
	for len(s.order) >= s.maxEntries {
		s.remove(s.order[0])
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = memoryEntry{point: point, expiresAt: expiresAt}
	s.order = append(s.order, key)
	return nil
}

// Len reports the number of cached entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// remove expects s.mu to be held.
func (s *MemoryStore) remove(key string) {
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
