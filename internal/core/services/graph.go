package services

import (
	"context"
	"fmt"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Ensure GraphService implements the interface.
var _ driving.GraphService = (*GraphService)(nil)

// DefaultIndexFile is the corpus index document when none is configured.
const DefaultIndexFile = "README.md"

// GraphService answers questions about the corpus link graph.
type GraphService struct {
	guideStore driven.GuideStore
	indexFile  string
}

// NewGraphService creates a new graph service. indexFile is the
// corpus-relative path of the frameworks index document.
func NewGraphService(guideStore driven.GuideStore, indexFile string) *GraphService {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	return &GraphService{
		guideStore: guideStore,
		indexFile:  indexFile,
	}
}

// Backlinks returns every corpus location linking to the guide at the
// given path.
func (s *GraphService) Backlinks(ctx context.Context, path string) ([]domain.Backlink, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.guideStore.ListBacklinks(ctx, path)
}

// Orphans returns markdown guides nothing links to. The index file's
// table links to every guide, so its links do not count as inbound;
// an Extends reference does.
func (s *GraphService) Orphans(ctx context.Context) ([]domain.Guide, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}

	guides, err := s.guideStore.ListGuides(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	inbound := make(map[string]bool)
	for i := range guides {
		guide := &guides[i]
		if guide.Path == s.indexFile {
			continue
		}
		for j := range guide.Links {
			link := &guide.Links[j]
			if link.Kind != domain.LinkRelative {
				continue
			}
			inbound[link.ResolveAgainst(guide.Path)] = true
		}
		if guide.Extends != "" {
			inbound[guide.Extends] = true
		}
	}

	var orphans []domain.Guide
	for i := range guides {
		guide := guides[i]
		if guide.Path == s.indexFile || !guide.IsMarkdown() {
			continue
		}
		if inbound[guide.Path] {
			continue
		}
		orphans = append(orphans, guide)
	}
	return orphans, nil
}
