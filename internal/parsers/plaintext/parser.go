// Package plaintext provides the fallback parser for corpus files that
// no structural parser claims. The file is catalogued with a single
// section so it stays searchable, but no links or references are
// extracted.
package plaintext

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.GuideParser = (*Parser)(nil)

// Parser handles plain text files.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// SupportedConnectorTypes returns connector types for specialised handling.
func (p *Parser) SupportedConnectorTypes() []string {
	return nil // All connectors
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser
}

// Parse catalogues a plain text file as an unstructured guide.
func (p *Parser) Parse(_ context.Context, raw *domain.RawDocument) (*driven.ParseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	title := titleFromPath(raw.Path)
	guideID := uuid.New().String()
	now := time.Now()
	checksum := sha256.Sum256(raw.Content)

	guide := domain.Guide{
		ID:        guideID,
		SourceID:  raw.SourceID,
		Path:      raw.Path,
		Title:     title,
		Framework: title,
		Format:    domain.FormatPlain,
		Checksum:  hex.EncodeToString(checksum[:]),
		Content:   content,
		Sections: []domain.Section{{
			ID:       uuid.New().String(),
			GuideID:  guideID,
			Heading:  title,
			Anchor:   anchorFromTitle(title),
			Level:    1,
			Position: 0,
			Content:  strings.TrimSpace(content),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return &driven.ParseResult{Guide: guide}, nil
}

// titleFromPath derives a title from the filename.
func titleFromPath(p string) string {
	name := path.Base(p)
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// anchorFromTitle builds a single lowercase anchor for the one section.
func anchorFromTitle(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "-")
}
