package parsers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry selects the appropriate parser for a corpus file.
// Selection priority: connector-specific > MIME-specific > fallback,
// using each parser's Priority within those bands.
type Registry struct {
	mu      sync.RWMutex
	parsers []driven.GuideParser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a parser to the registry.
func (r *Registry) Register(parser driven.GuideParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, parser)
}

// Parse transforms a raw file using the best matching parser.
func (r *Registry) Parse(ctx context.Context, raw *domain.RawDocument) (*driven.ParseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	parser := r.selectParser(raw)
	if parser == nil {
		return nil, fmt.Errorf("no parser for MIME type %q: %w", raw.MIMEType, domain.ErrUnsupportedType)
	}

	logger.Debug("parsing %s with %T", raw.Path, parser)
	return parser.Parse(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be parsed.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, p := range r.parsers {
		for _, mt := range p.SupportedMIMETypes() {
			if _, ok := seen[mt]; ok {
				continue
			}
			seen[mt] = struct{}{}
			types = append(types, mt)
		}
	}
	sort.Strings(types)
	return types
}

// selectParser picks the highest-priority parser matching the file's
// MIME type. A parser that names the file's connector type outranks
// any generic parser regardless of priority.
func (r *Registry) selectParser(raw *domain.RawDocument) driven.GuideParser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.GuideParser
	bestScore := -1
	for _, p := range r.parsers {
		if !matchesMIME(p, raw.MIMEType) {
			continue
		}
		score := p.Priority()
		switch {
		case len(p.SupportedConnectorTypes()) == 0:
			// Generic parser, applies to all connectors.
		case matchesConnector(p, raw.ConnectorType):
			score += 1000
		default:
			continue
		}
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best
}

func matchesMIME(p driven.GuideParser, mimeType string) bool {
	for _, mt := range p.SupportedMIMETypes() {
		if mt == mimeType {
			return true
		}
	}
	return false
}

func matchesConnector(p driven.GuideParser, ct domain.ConnectorType) bool {
	for _, t := range p.SupportedConnectorTypes() {
		if t == ct.String() {
			return true
		}
	}
	return false
}
