package driven

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// SearchEngine provides full-text search over guide sections.
// Backed by SQLite FTS5 with bm25 ranking.
type SearchEngine interface {
	// Index adds or updates a guide's sections in the search index.
	Index(ctx context.Context, guide *domain.Guide) error

	// Delete removes a guide's sections from the search index.
	Delete(ctx context.Context, guideID string) error

	// Search performs a full-text search over section content and
	// headings, returning ranked hits.
	Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
