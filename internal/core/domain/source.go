package domain

import "time"

// Source represents a configured corpus location, e.g. a local
// directory of guides or a GitHub repository.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Name is the user-facing name of the source.
	Name string

	// ConnectorType identifies which connector serves this source.
	ConnectorType ConnectorType

	// Config holds connector-specific settings keyed by ConfigKey,
	// e.g. the root path for filesystem sources or owner/repo for
	// GitHub sources.
	Config map[ConfigKey]string

	// CreatedAt is when the source was added.
	CreatedAt time.Time

	// UpdatedAt is when the source configuration last changed.
	UpdatedAt time.Time
}

// ConfigValue returns the configured value for key, or empty.
func (s *Source) ConfigValue(key ConfigKey) string {
	if s.Config == nil {
		return ""
	}
	return s.Config[key]
}

// SyncState tracks incremental scan progress for one source.
// Cursor is connector-defined: the filesystem connector stores a
// modification-time watermark, the GitHub connector a tree SHA.
type SyncState struct {
	// SourceID identifies the source the state belongs to.
	SourceID string

	// Cursor is the connector-defined resume position.
	Cursor string

	// LastSyncAt is when the last successful scan completed.
	LastSyncAt time.Time

	// LastError records the failure message of the most recent scan,
	// empty after a successful scan.
	LastError string
}
