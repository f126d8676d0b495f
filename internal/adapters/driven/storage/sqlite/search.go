package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// DefaultSearchLimit caps result counts when the caller does not.
const DefaultSearchLimit = 20

// searchEngine implements driven.SearchEngine on top of the FTS5
// sections_fts table.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index replaces a guide's sections in the search index.
func (e *searchEngine) Index(ctx context.Context, guide *domain.Guide) error {
	tx, err := e.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sections_fts WHERE guide_id = ?", guide.ID); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	for i := range guide.Sections {
		section := &guide.Sections[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sections_fts (heading, content, section_id, guide_id)
			VALUES (?, ?, ?, ?)
		`, section.Heading, section.Content, section.ID, guide.ID); err != nil {
			return fmt.Errorf("indexing section %q: %w", section.Heading, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes a guide's sections from the search index.
func (e *searchEngine) Delete(ctx context.Context, guideID string) error {
	_, err := e.store.db.ExecContext(ctx,
		"DELETE FROM sections_fts WHERE guide_id = ?", guideID)
	if err != nil {
		return fmt.Errorf("deleting from index: %w", err)
	}
	return nil
}

// Search runs a full-text query over section headings and content.
// Results are ordered by bm25 rank, best match first.
func (e *searchEngine) Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	match := sanitizeQuery(opts.Query)
	if match == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query := `
		SELECT s.guide_id, g.path, g.title, g.framework, s.heading, s.anchor,
			snippet(sections_fts, 1, '**', '**', '…', 12),
			bm25(sections_fts)
		FROM sections_fts
		JOIN sections s ON s.id = sections_fts.section_id
		JOIN guides g ON g.id = s.guide_id
		WHERE sections_fts MATCH ?
	`
	args := []any{match}

	if opts.Framework != "" {
		query += " AND g.framework = ?"
		args = append(args, opts.Framework)
	}
	if opts.SourceID != "" {
		query += " AND g.source_id = ?"
		args = append(args, opts.SourceID)
	}

	query += " ORDER BY bm25(sections_fts) LIMIT ?"
	args = append(args, limit)

	rows, err := e.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.SearchResult
		var rank float64
		if err := rows.Scan(&r.GuideID, &r.GuidePath, &r.GuideTitle,
			&r.Framework, &r.Heading, &r.Anchor, &r.Snippet, &rank); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		// bm25 ranks lower-is-better; flip so callers sort naturally.
		r.Score = -rank
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return results, nil
}

// Close is a no-op. The Store owns the database handle.
func (e *searchEngine) Close() error {
	return nil
}

// sanitizeQuery rewrites free-form input as quoted FTS5 terms so user
// punctuation cannot produce MATCH syntax errors. Terms combine with
// implicit AND.
func sanitizeQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(fields))
	for _, field := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(field, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
