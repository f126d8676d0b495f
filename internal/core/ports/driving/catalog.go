package driving

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// CatalogService builds the frameworks catalog and maintains the
// generated regions of corpus documents: the catalog table in the
// index document and per-guide tables of contents.
type CatalogService interface {
	// Catalog returns the frameworks catalog in presentation order.
	Catalog(ctx context.Context) (*domain.Catalog, error)

	// RenderTable renders the catalog as a Markdown table.
	RenderTable(ctx context.Context) (string, error)

	// WriteIndex rewrites the catalog table between the doctrine
	// markers in the source's index document. The source must be a
	// filesystem source. The write is atomic.
	WriteIndex(ctx context.Context, sourceID string) (*IndexResult, error)

	// CheckIndex reports whether the index document's catalog table
	// matches the corpus, without writing.
	CheckIndex(ctx context.Context, sourceID string) (*IndexResult, error)

	// WriteTOCs rewrites the table of contents between the doctrine
	// markers in guides that carry them. An empty guidePath processes
	// every marked guide in the source.
	WriteTOCs(ctx context.Context, sourceID, guidePath string) ([]TOCResult, error)

	// CheckTOCs reports which marked guides have stale tables of
	// contents, without writing.
	CheckTOCs(ctx context.Context, sourceID, guidePath string) ([]TOCResult, error)
}

// IndexResult reports the outcome of an index write or check.
type IndexResult struct {
	// Path is the absolute path of the index document.
	Path string

	// Changed indicates the on-disk table differed from the corpus.
	Changed bool

	// Table is the rendered catalog table.
	Table string
}

// TOCResult reports the outcome of a TOC write or check for one guide.
type TOCResult struct {
	// GuidePath is the corpus-relative path of the guide.
	GuidePath string

	// Changed indicates the on-disk TOC differed from the headings.
	Changed bool

	// TOC is the rendered table of contents.
	TOC string
}
