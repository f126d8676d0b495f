// Package connectors provides implementations of the Connector
// interface for the places a style guide corpus can live. Each
// connector knows how to fetch guide files from one source type
// (a local directory, a GitHub repository).
//
// Connectors are registered with the ConnectorFactory at startup.
package connectors
