package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// probeStore implements driven.ProbeStore on the link_checks table.
type probeStore struct {
	store *Store
}

var _ driven.ProbeStore = (*probeStore)(nil)

// Get returns the cached verdict for a URL if it is newer than maxAge.
// Misses and stale entries both return nil without error.
func (p *probeStore) Get(ctx context.Context, url string, maxAge time.Duration) (*driven.ProbeResult, error) {
	row := p.store.db.QueryRowContext(ctx, `
		SELECT url, ok, status_code, missing_fragments, error, checked_at
		FROM link_checks WHERE url = ?
	`, url)

	var result driven.ProbeResult
	var ok int
	var fragmentsJSON string
	var checkedAt sql.NullTime

	err := row.Scan(&result.URL, &ok, &result.StatusCode, &fragmentsJSON,
		&result.Error, &checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning link check: %w", err)
	}

	result.OK = ok == 1
	if checkedAt.Valid {
		result.CheckedAt = checkedAt.Time
	}

	if err := json.Unmarshal([]byte(fragmentsJSON), &result.MissingFragments); err != nil {
		return nil, fmt.Errorf("unmarshaling missing fragments: %w", err)
	}

	if maxAge > 0 && time.Since(result.CheckedAt) > maxAge {
		return nil, nil
	}

	return &result, nil
}

// Save stores or replaces the verdict for a URL.
func (p *probeStore) Save(ctx context.Context, result driven.ProbeResult) error {
	fragmentsJSON, err := json.Marshal(result.MissingFragments)
	if err != nil {
		return fmt.Errorf("marshalling missing fragments: %w", err)
	}

	checkedAt := result.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	_, err = p.store.db.ExecContext(ctx, `
		INSERT INTO link_checks (url, ok, status_code, missing_fragments, error, checked_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			ok = excluded.ok,
			status_code = excluded.status_code,
			missing_fragments = excluded.missing_fragments,
			error = excluded.error,
			checked_at = excluded.checked_at
	`, result.URL, boolToInt(result.OK), result.StatusCode,
		string(fragmentsJSON), result.Error, checkedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving link check: %w", err)
	}
	return nil
}

// PruneOlderThan removes verdicts checked before the cutoff.
func (p *probeStore) PruneOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := p.store.db.ExecContext(ctx,
		"DELETE FROM link_checks WHERE checked_at < ?", cutoff.UTC())
	if err != nil {
		return fmt.Errorf("pruning link checks: %w", err)
	}
	return nil
}
