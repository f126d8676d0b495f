package driving

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// GraphService answers questions about the corpus link graph.
type GraphService interface {
	// Backlinks returns every corpus location linking to the guide at
	// the given path.
	Backlinks(ctx context.Context, path string) ([]domain.Backlink, error)

	// Orphans returns guides nothing links to. The index document and
	// guides extended by others are not orphans.
	Orphans(ctx context.Context) ([]domain.Guide, error)
}
