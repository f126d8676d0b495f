package driving

import "context"

// ScanOrchestrator coordinates guide ingestion from sources.
type ScanOrchestrator interface {
	// Scan triggers a scan for a source. Incremental when the
	// connector supports it and sync state exists, full otherwise.
	Scan(ctx context.Context, sourceID string) error

	// ScanAll triggers a scan for all configured sources.
	ScanAll(ctx context.Context) error

	// FullScan forces a full re-scan for a source, ignoring any
	// saved sync state.
	FullScan(ctx context.Context, sourceID string) error

	// Watch follows a source for changes, re-parsing guides as they
	// change. Blocks until the context is cancelled.
	Watch(ctx context.Context, sourceID string) error

	// Status returns scan status for a source.
	Status(ctx context.Context, sourceID string) (*ScanStatus, error)
}

// ScanStatus represents the current state of a scan operation.
type ScanStatus struct {
	// SourceID identifies the source.
	SourceID string

	// Running indicates if a scan is currently in progress.
	Running bool

	// GuidesProcessed is the count of guides processed.
	GuidesProcessed int

	// ErrorCount is the number of errors encountered.
	ErrorCount int
}
