package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// fakeParser is a configurable GuideParser for registry tests.
type fakeParser struct {
	name       string
	mimeTypes  []string
	connectors []string
	priority   int
}

func (f *fakeParser) SupportedMIMETypes() []string      { return f.mimeTypes }
func (f *fakeParser) SupportedConnectorTypes() []string { return f.connectors }
func (f *fakeParser) Priority() int                     { return f.priority }

func (f *fakeParser) Parse(_ context.Context, raw *domain.RawDocument) (*driven.ParseResult, error) {
	return &driven.ParseResult{Guide: domain.Guide{Title: f.name, Path: raw.Path}}, nil
}

func TestRegistry_Parse_SelectsByPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeParser{name: "low", mimeTypes: []string{"text/markdown"}, priority: 5})
	r.Register(&fakeParser{name: "high", mimeTypes: []string{"text/markdown"}, priority: 50})

	result, err := r.Parse(context.Background(), &domain.RawDocument{
		Path:     "guide.md",
		MIMEType: "text/markdown",
	})

	require.NoError(t, err)
	assert.Equal(t, "high", result.Guide.Title)
}

func TestRegistry_Parse_ConnectorSpecificWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeParser{name: "generic", mimeTypes: []string{"text/markdown"}, priority: 50})
	r.Register(&fakeParser{
		name:       "github",
		mimeTypes:  []string{"text/markdown"},
		connectors: []string{"github"},
		priority:   10,
	})

	result, err := r.Parse(context.Background(), &domain.RawDocument{
		Path:          "guide.md",
		MIMEType:      "text/markdown",
		ConnectorType: domain.ConnectorGitHub,
	})

	require.NoError(t, err)
	assert.Equal(t, "github", result.Guide.Title)
}

func TestRegistry_Parse_ConnectorMismatchSkipped(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeParser{name: "generic", mimeTypes: []string{"text/markdown"}, priority: 5})
	r.Register(&fakeParser{
		name:       "github",
		mimeTypes:  []string{"text/markdown"},
		connectors: []string{"github"},
		priority:   95,
	})

	result, err := r.Parse(context.Background(), &domain.RawDocument{
		Path:          "guide.md",
		MIMEType:      "text/markdown",
		ConnectorType: domain.ConnectorFilesystem,
	})

	require.NoError(t, err)
	assert.Equal(t, "generic", result.Guide.Title)
}

func TestRegistry_Parse_NoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeParser{name: "md", mimeTypes: []string{"text/markdown"}, priority: 50})

	result, err := r.Parse(context.Background(), &domain.RawDocument{
		Path:     "img.png",
		MIMEType: "image/png",
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Nil(t, result)
}

func TestRegistry_Parse_NilDocument(t *testing.T) {
	r := NewRegistry()

	result, err := r.Parse(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeParser{mimeTypes: []string{"text/markdown", "text/x-markdown"}})
	r.Register(&fakeParser{mimeTypes: []string{"text/plain", "text/markdown"}})

	types := r.SupportedMIMETypes()

	assert.Equal(t, []string{"text/markdown", "text/plain", "text/x-markdown"}, types)
}
