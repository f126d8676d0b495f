package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
	"github.com/welshwandering/doctrine/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultSearchLimit caps result counts when the caller does not.
const DefaultSearchLimit = 20

// SearchService provides full-text search over guide sections.
type SearchService struct {
	searchEngine driven.SearchEngine
}

// NewSearchService creates a new search service.
func NewSearchService(searchEngine driven.SearchEngine) *SearchService {
	return &SearchService{searchEngine: searchEngine}
}

// Search runs a full-text query over guide sections.
func (s *SearchService) Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if s.searchEngine == nil {
		return nil, domain.ErrSearchUnavailable
	}

	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}

	logger.Debug("Search: query=%q limit=%d framework=%q source=%q",
		opts.Query, opts.Limit, opts.Framework, opts.SourceID)

	results, err := s.searchEngine.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Debug("Search: %d hits", len(results))
	return results, nil
}
