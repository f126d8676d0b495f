package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// Ensure GuideStore implements the interface.
var _ driven.GuideStore = (*GuideStore)(nil)

// GuideStore is an in-memory implementation of driven.GuideStore.
// It mirrors the SQLite store's identity rule: a guide is addressed by
// (source, path), and rescans keep the stored ID.
type GuideStore struct {
	mu     sync.RWMutex
	guides map[string]domain.Guide
}

// NewGuideStore creates a new in-memory guide store.
func NewGuideStore() *GuideStore {
	return &GuideStore{
		guides: make(map[string]domain.Guide),
	}
}

// SaveGuide stores or updates a guide with its child rows.
func (s *GuideStore) SaveGuide(_ context.Context, guide *domain.Guide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.guides {
		existing := s.guides[id]
		if existing.SourceID == guide.SourceID && existing.Path == guide.Path {
			guide.ID = existing.ID
			guide.CreatedAt = existing.CreatedAt
			break
		}
	}
	if guide.ID == "" {
		guide.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if guide.CreatedAt.IsZero() {
		guide.CreatedAt = now
	}
	guide.UpdatedAt = now

	for i := range guide.Sections {
		if guide.Sections[i].ID == "" {
			guide.Sections[i].ID = uuid.NewString()
		}
		guide.Sections[i].GuideID = guide.ID
	}
	for i := range guide.Links {
		if guide.Links[i].ID == "" {
			guide.Links[i].ID = uuid.NewString()
		}
		guide.Links[i].GuideID = guide.ID
	}
	for i := range guide.References {
		if guide.References[i].ID == "" {
			guide.References[i].ID = uuid.NewString()
		}
		guide.References[i].GuideID = guide.ID
	}

	s.guides[guide.ID] = *guide
	return nil
}

// GetGuide retrieves a guide by ID.
func (s *GuideStore) GetGuide(_ context.Context, id string) (*domain.Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guide, ok := s.guides[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &guide, nil
}

// GetGuideByPath retrieves a guide by source and corpus-relative path.
func (s *GuideStore) GetGuideByPath(_ context.Context, sourceID, path string) (*domain.Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.guides {
		guide := s.guides[id]
		if guide.SourceID == sourceID && guide.Path == path {
			return &guide, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteGuide removes a guide.
func (s *GuideStore) DeleteGuide(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guides, id)
	return nil
}

// DeleteGuideByPath removes a guide addressed by source and path.
func (s *GuideStore) DeleteGuideByPath(_ context.Context, sourceID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, guide := range s.guides {
		if guide.SourceID == sourceID && guide.Path == path {
			delete(s.guides, id)
			return nil
		}
	}
	return nil
}

// ListGuides returns guides for a source, ordered by path.
// An empty sourceID returns the whole corpus.
func (s *GuideStore) ListGuides(_ context.Context, sourceID string) ([]domain.Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Guide
	for id := range s.guides {
		guide := s.guides[id]
		if sourceID == "" || guide.SourceID == sourceID {
			result = append(result, guide)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result, nil
}

// ListBacklinks returns every relative link whose resolved target is
// the given corpus path, ordered by linking path then line.
func (s *GuideStore) ListBacklinks(_ context.Context, path string) ([]domain.Backlink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Backlink
	for id := range s.guides {
		guide := s.guides[id]
		for i := range guide.Links {
			link := &guide.Links[i]
			if link.Kind != domain.LinkRelative {
				continue
			}
			if link.ResolveAgainst(guide.Path) != path {
				continue
			}
			result = append(result, domain.Backlink{
				FromPath:  guide.Path,
				FromTitle: guide.Title,
				Line:      link.Line,
				Text:      link.Text,
				Fragment:  link.Fragment,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FromPath != result[j].FromPath {
			return result[i].FromPath < result[j].FromPath
		}
		return result[i].Line < result[j].Line
	})
	return result, nil
}
