// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// QueryChanged is sent when the search query input changes.
type QueryChanged struct {
	Query string
}

// SearchRequested is a command to perform a search.
type SearchRequested struct {
	Options domain.SearchOptions
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Results []domain.SearchResult
	Err     error
}

// ResultSelected is sent when a search result is selected.
type ResultSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewFrameworks is the frameworks catalog view.
	ViewFrameworks
	// ViewGuideDetail shows metadata for a single guide.
	ViewGuideDetail
	// ViewGuideContent shows rendered guide content.
	ViewGuideContent
	// ViewIssues lists lint findings.
	ViewIssues
	// ViewSources is the source management view.
	ViewSources
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewFrameworks:
		return "frameworks"
	case ViewGuideDetail:
		return "guide_detail"
	case ViewGuideContent:
		return "guide_content"
	case ViewIssues:
		return "issues"
	case ViewSources:
		return "sources"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// StatusMessage carries one-line feedback for the active view, e.g.
// after a clipboard copy.
type StatusMessage struct {
	Message string
}

// CatalogLoaded carries the frameworks catalog.
type CatalogLoaded struct {
	Catalog *domain.Catalog
	Err     error
}

// GuideSelected signals a guide was chosen for the detail view.
type GuideSelected struct {
	Path string
}

// GuideDetailsLoaded carries guide metadata, the extends chain, and
// the guide's backlinks.
type GuideDetailsLoaded struct {
	Path      string
	Details   *driving.GuideDetails
	Chain     []string
	Backlinks []domain.Backlink
	Err       error
}

// ContentRequested signals the content view should load a guide.
type ContentRequested struct {
	Path string
}

// GuideContentLoaded carries a guide's Markdown source and, when
// rendering succeeded, a terminal-rendered form.
type GuideContentLoaded struct {
	Path     string
	Raw      string
	Rendered string
	Err      error
}

// LintCompleted carries the findings of a lint run.
type LintCompleted struct {
	Issues   []domain.Issue
	Errors   int
	Warnings int
	Err      error
}

// SourcesLoaded carries the list of sources from the service.
type SourcesLoaded struct {
	Sources []domain.Source
	Err     error
}

// SourceRemoved signals a source was removed.
type SourceRemoved struct {
	ID  string
	Err error
}

// ScanCompleted signals a source scan finished.
type ScanCompleted struct {
	SourceID string
	Err      error
}
