package driven

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// ParserRegistry selects the appropriate parser for a corpus file.
// It maintains a priority-ordered list of parsers and dispatches
// based on MIME type and connector type.
type ParserRegistry interface {
	// Parse transforms a raw file using the best matching parser.
	// Selection priority: connector-specific > MIME-specific > fallback.
	Parse(ctx context.Context, raw *domain.RawDocument) (*ParseResult, error)

	// Register adds a parser to the registry.
	Register(parser GuideParser)

	// SupportedMIMETypes returns all MIME types that can be parsed.
	SupportedMIMETypes() []string
}
