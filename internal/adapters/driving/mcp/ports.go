package mcp

import (
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides full-text search over guide sections.
	Search driving.SearchService

	// Guide provides read access to catalogued guides.
	Guide driving.GuideService

	// Catalog builds the frameworks catalog.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Guide and Catalog are optional; their resources answer not-found
	return nil
}
