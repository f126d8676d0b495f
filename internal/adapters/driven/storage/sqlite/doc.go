// Package sqlite implements the storage ports on a single SQLite
// database. One Store owns the connection; wrapper types expose the
// per-concern interfaces (sources, guides, sync state, scheduler,
// link-check cache) plus an FTS5-backed search engine. The schema is
// managed by embedded migrations and can always be rebuilt from the
// Markdown corpus.
package sqlite
