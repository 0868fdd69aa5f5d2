package artifact

import (
	"context"
	"sync"
	"time"
)

type key struct {
	jobID  string
	format Format
}

// MemoryStore is a thread-safe in-process Store with TTL eviction.
type MemoryStore struct {
	mu    sync.Mutex
	items map[key]*Artifact
	ttl   time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[key]*Artifact),
		ttl:   ttl,
	}
}

func (s *MemoryStore) Put(_ context.Context, a *Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key{a.JobID, a.Format}] = a
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string, format Format) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[key{jobID, format}]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Cleanup removes artifacts older than TTL and returns how many it removed.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for k, a := range s.items {
		if a.CreatedAt.Before(cutoff) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}
