package driving

import (
	"context"
	"time"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// GuideService provides read access to catalogued guides.
type GuideService interface {
	// List returns all guides for a source, or the whole corpus when
	// sourceID is empty.
	List(ctx context.Context, sourceID string) ([]domain.Guide, error)

	// Get retrieves a guide by ID.
	Get(ctx context.Context, id string) (*domain.Guide, error)

	// GetByPath retrieves a guide by corpus-relative path, searching
	// across sources. Returns ErrInvalidInput when the path exists in
	// more than one source.
	GetByPath(ctx context.Context, path string) (*domain.Guide, error)

	// Content returns the raw Markdown source of a guide.
	Content(ctx context.Context, path string) (string, error)

	// Details returns display metadata for a guide.
	Details(ctx context.Context, path string) (*GuideDetails, error)
}

// GuideDetails provides a standardised view of guide metadata.
type GuideDetails struct {
	// ID is the unique guide identifier.
	ID string

	// SourceID links to the parent source.
	SourceID string

	// SourceName is the human-readable source name.
	SourceName string

	// SourceType is the connector type (e.g., "filesystem").
	SourceType string

	// Path is the corpus-relative path.
	Path string

	// Title is the guide title.
	Title string

	// Framework is the covered framework, with targeted version.
	Framework string

	// FrameworkVersion is the targeted version, if pinned.
	FrameworkVersion string

	// Extends is the parent language guide path, if any.
	Extends string

	// SectionCount is the number of headings.
	SectionCount int

	// LinkCount is the number of outbound links.
	LinkCount int

	// ReferenceCount is the number of reference occurrences.
	ReferenceCount int

	// CreatedAt is when the guide was first catalogued.
	CreatedAt time.Time

	// UpdatedAt is when the guide was last re-scanned.
	UpdatedAt time.Time
}
