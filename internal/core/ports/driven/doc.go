// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Fetches corpus files from a source
//   - ConnectorFactory: Creates connectors from configuration
//   - GuideParser: Transforms raw files into parsed guides
//   - ParserRegistry: Selects the appropriate parser
//   - GuideStore: Guide persistence
//   - SourceStore: Source configuration persistence
//   - SyncStateStore: Scan progress persistence
//   - SchedulerStore: Background task persistence
//   - ConfigStore: Application configuration
//   - SearchEngine: Full-text search over guide sections (SQLite FTS5)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LinkProber: External URL checking. Without it, lint skips URL probing.
//   - ProbeStore: Cached URL verdicts. Without it, every lint run re-probes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or parser package
package driven
