package driven

import (
	"context"
	"errors"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// Connector fetches corpus files from a source.
// Each connector type (filesystem, github) implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks if the connector is properly configured.
	// For the filesystem this checks the corpus root exists and is
	// readable. For GitHub it makes a lightweight API call.
	// Returns nil if ready to scan, error describing the problem otherwise.
	Validate(ctx context.Context) error

	// FullSync fetches all corpus files from the source.
	// Returns channels for documents and errors. Connectors that
	// support cursor return send SyncComplete on the error channel
	// upon successful completion.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// IncrementalSync fetches only changes since the cursor position.
	// Only available if SupportsIncremental is true.
	IncrementalSync(ctx context.Context, cursor string) (<-chan domain.RawDocumentChange, <-chan error)

	// Watch listens for real-time changes.
	// Only available if SupportsWatch is true.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsIncremental indicates the connector can fetch only changes.
	SupportsIncremental bool

	// SupportsWatch indicates the connector can push real-time events.
	SupportsWatch bool

	// RequiresAuth indicates the connector needs a token.
	// False for local connectors like filesystem.
	RequiresAuth bool

	// SupportsCursorReturn indicates sync can return an updated cursor
	// via the SyncComplete sentinel on the error channel.
	SupportsCursorReturn bool

	// IncrementalIsSnapshot indicates a moved cursor makes the connector
	// redeliver the complete corpus rather than a delta. When set, a
	// non-empty incremental change stream is a full snapshot and paths
	// absent from it are deletions.
	IncrementalIsSnapshot bool

	// SupportsRateLimiting indicates the connector handles rate
	// limiting internally.
	SupportsRateLimiting bool
}

// SyncComplete is sent on the error channel when a scan completes
// successfully. Carries the new cursor state for incremental sync.
type SyncComplete struct {
	NewCursor string
}

// Error implements the error interface.
// This allows SyncComplete to be sent on the error channel.
func (*SyncComplete) Error() string {
	return "sync complete"
}

// IsSyncComplete checks if an error is actually a successful completion.
// Returns the SyncComplete and true if it is, nil and false otherwise.
func IsSyncComplete(err error) (*SyncComplete, bool) {
	var sc *SyncComplete
	if errors.As(err, &sc) {
		return sc, true
	}
	return nil, false
}
