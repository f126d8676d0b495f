// Package tui provides an interactive terminal user interface for doctrine.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides full-text search over guide sections.
	Search driving.SearchService

	// Source manages corpus source configurations.
	Source driving.SourceService

	// Scan orchestrates guide ingestion from sources.
	Scan driving.ScanOrchestrator

	// Guide provides read access to catalogued guides.
	Guide driving.GuideService

	// Catalog builds the frameworks catalog.
	Catalog driving.CatalogService

	// Lint runs corpus checks.
	Lint driving.LintService

	// Graph answers link-graph queries.
	Graph driving.GraphService

	// Actions opens guides and drives the clipboard.
	Actions driving.GuideActionService
}

// Validate ensures all required ports are set.
// Source, Scan, Lint, Graph, and Actions are optional; the views that
// need them degrade to an error line when they are absent.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Guide == nil {
		return ErrMissingGuideService
	}
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
