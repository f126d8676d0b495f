package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Ensure GuideService implements the interface.
var _ driving.GuideService = (*GuideService)(nil)

// GuideService provides read access to catalogued guides.
type GuideService struct {
	guideStore  driven.GuideStore
	sourceStore driven.SourceStore
}

// NewGuideService creates a new guide service.
func NewGuideService(guideStore driven.GuideStore, sourceStore driven.SourceStore) *GuideService {
	return &GuideService{
		guideStore:  guideStore,
		sourceStore: sourceStore,
	}
}

// List returns all guides for a source, or the whole corpus when
// sourceID is empty.
func (s *GuideService) List(ctx context.Context, sourceID string) ([]domain.Guide, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.guideStore.ListGuides(ctx, sourceID)
}

// Get retrieves a guide by ID.
func (s *GuideService) Get(ctx context.Context, id string) (*domain.Guide, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.guideStore.GetGuide(ctx, id)
}

// GetByPath retrieves a guide by corpus-relative path, searching across
// sources. Paths are how users name guides on the command line, so the
// lookup fails loudly when two sources both hold the path.
func (s *GuideService) GetByPath(ctx context.Context, path string) (*domain.Guide, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}

	guides, err := s.guideStore.ListGuides(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	var matches []domain.Guide
	for i := range guides {
		if guides[i].Path == path {
			matches = append(matches, guides[i])
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: guide %q", domain.ErrNotFound, path)
	case 1:
		return &matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i := range matches {
			ids[i] = matches[i].SourceID
		}
		return nil, fmt.Errorf("%w: path %q exists in sources %s",
			domain.ErrInvalidInput, path, strings.Join(ids, ", "))
	}
}

// Content returns the raw Markdown source of a guide.
func (s *GuideService) Content(ctx context.Context, path string) (string, error) {
	guide, err := s.GetByPath(ctx, path)
	if err != nil {
		return "", err
	}
	return guide.Content, nil
}

// Details returns display metadata for a guide.
func (s *GuideService) Details(ctx context.Context, path string) (*driving.GuideDetails, error) {
	guide, err := s.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	// Source info is display-only, so a missing source does not fail
	// the lookup
	var sourceName, sourceType string
	if s.sourceStore != nil {
		source, err := s.sourceStore.Get(ctx, guide.SourceID)
		if err == nil && source != nil {
			sourceName = source.Name
			sourceType = source.ConnectorType.String()
		}
	}

	return &driving.GuideDetails{
		ID:               guide.ID,
		SourceID:         guide.SourceID,
		SourceName:       sourceName,
		SourceType:       sourceType,
		Path:             guide.Path,
		Title:            guide.Title,
		Framework:        guide.Framework,
		FrameworkVersion: guide.FrameworkVersion,
		Extends:          guide.Extends,
		SectionCount:     len(guide.Sections),
		LinkCount:        len(guide.Links),
		ReferenceCount:   len(guide.References),
		CreatedAt:        guide.CreatedAt,
		UpdatedAt:        guide.UpdatedAt,
	}, nil
}
