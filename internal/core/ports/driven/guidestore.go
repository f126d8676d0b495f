package driven

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// GuideStore persists parsed guides and their sections, links, and
// references. Backed by SQLite; the Markdown files remain the source
// of truth and the store is a rebuildable cache.
type GuideStore interface {
	// SaveGuide stores or updates a guide together with its sections,
	// links, and references. Existing child rows are replaced.
	SaveGuide(ctx context.Context, guide *domain.Guide) error

	// GetGuide retrieves a guide by ID with all child rows populated.
	GetGuide(ctx context.Context, id string) (*domain.Guide, error)

	// GetGuideByPath retrieves a guide by source and corpus-relative path.
	GetGuideByPath(ctx context.Context, sourceID, path string) (*domain.Guide, error)

	// DeleteGuide removes a guide and its child rows.
	DeleteGuide(ctx context.Context, id string) error

	// DeleteGuideByPath removes a guide addressed by source and path.
	// Returns nil when no guide exists at the path.
	DeleteGuideByPath(ctx context.Context, sourceID, path string) error

	// ListGuides returns guides for a source with child rows populated.
	// An empty sourceID returns the whole corpus.
	ListGuides(ctx context.Context, sourceID string) ([]domain.Guide, error)

	// ListBacklinks returns every relative link across the corpus whose
	// resolved target is the given corpus path.
	ListBacklinks(ctx context.Context, path string) ([]domain.Backlink, error)
}
