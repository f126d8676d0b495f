package driven

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// GuideParser transforms raw corpus files into parsed guides.
// Each parser handles specific MIME types (e.g., Markdown, plain text).
type GuideParser interface {
	// SupportedMIMETypes returns the MIME types this parser handles.
	SupportedMIMETypes() []string

	// SupportedConnectorTypes returns connector types for specialised
	// handling. Empty slice means all connectors.
	SupportedConnectorTypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Connector-specific parsers should return 90-100.
	// Generic MIME parsers should return 50-89.
	// Fallback parsers should return 1-9.
	Priority() int

	// Parse transforms a raw file into a guide with its sections,
	// links, and references extracted.
	Parse(ctx context.Context, raw *domain.RawDocument) (*ParseResult, error)
}

// ParseResult contains the output of parsing.
type ParseResult struct {
	// Guide is the parsed guide with sections, links, and references
	// populated and fresh IDs assigned.
	Guide domain.Guide
}
