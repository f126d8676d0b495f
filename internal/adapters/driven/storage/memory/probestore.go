package memory

import (
	"context"
	"sync"
	"time"

	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// Ensure ProbeStore implements the interface.
var _ driven.ProbeStore = (*ProbeStore)(nil)

// ProbeStore is an in-memory implementation of driven.ProbeStore.
type ProbeStore struct {
	mu      sync.RWMutex
	results map[string]driven.ProbeResult
}

// NewProbeStore creates a new in-memory probe store.
func NewProbeStore() *ProbeStore {
	return &ProbeStore{
		results: make(map[string]driven.ProbeResult),
	}
}

// Get returns the cached verdict for a URL if it is newer than maxAge.
// Misses and stale entries both return nil without error.
func (s *ProbeStore) Get(_ context.Context, url string, maxAge time.Duration) (*driven.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[url]
	if !ok {
		return nil, nil
	}
	if maxAge > 0 && time.Since(result.CheckedAt) > maxAge {
		return nil, nil
	}
	return &result, nil
}

// Save stores or replaces the verdict for a URL.
func (s *ProbeStore) Save(_ context.Context, result driven.ProbeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result.CheckedAt.IsZero() {
		result.CheckedAt = time.Now()
	}
	s.results[result.URL] = result
	return nil
}

// PruneOlderThan removes verdicts checked before the cutoff.
func (s *ProbeStore) PruneOlderThan(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for url, result := range s.results {
		if result.CheckedAt.Before(cutoff) {
			delete(s.results, url)
		}
	}
	return nil
}
