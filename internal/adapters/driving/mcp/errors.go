// Package mcp provides an MCP (Model Context Protocol) server adapter
// for doctrine. It lets AI assistants search the corpus and read guides
// without shelling out to the CLI.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
