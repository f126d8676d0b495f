package domain

import "time"

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before parsing.
type RawDocument struct {
	// SourceID links to the Source that produced this document.
	SourceID string

	// ConnectorType identifies the connector that fetched the file.
	// Parsers use it for connector-specific handling.
	ConnectorType ConnectorType

	// Path is the slash-separated path relative to the corpus root.
	Path string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ModifiedAt is the file's last modification time when the
	// connector can determine it.
	ModifiedAt time.Time
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// RawDocumentChange represents a change event from a connector.
// Used for incremental sync and watch operations.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document.
	// For deletions only SourceID and Path are populated.
	Document RawDocument
}
