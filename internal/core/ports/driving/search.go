package driving

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// SearchService provides full-text search over the corpus.
type SearchService interface {
	// Search runs a full-text query over guide sections.
	Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
