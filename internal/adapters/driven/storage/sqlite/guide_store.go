package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// guideStore implements driven.GuideStore.
type guideStore struct {
	store *Store
}

var _ driven.GuideStore = (*guideStore)(nil)

// SaveGuide stores or updates a guide together with its sections,
// links, and references in a single transaction. Child rows are
// replaced wholesale on every save.
func (g *guideStore) SaveGuide(ctx context.Context, guide *domain.Guide) error {
	tx, err := g.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// A rescan of the same path keeps the stored identity stable even
	// when the caller minted a fresh ID.
	var existingID string
	var createdAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM guides WHERE source_id = ? AND path = ?",
		guide.SourceID, guide.Path).Scan(&existingID, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if guide.ID == "" {
			guide.ID = uuid.NewString()
		}
	case err != nil:
		return fmt.Errorf("resolving guide identity: %w", err)
	default:
		guide.ID = existingID
		if createdAt.Valid {
			guide.CreatedAt = createdAt.Time
		}
	}

	now := time.Now().UTC()
	if guide.CreatedAt.IsZero() {
		guide.CreatedAt = now
	}
	guide.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO guides (id, source_id, path, title, framework,
			framework_version, extends, format, checksum, content,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			path = excluded.path,
			title = excluded.title,
			framework = excluded.framework,
			framework_version = excluded.framework_version,
			extends = excluded.extends,
			format = excluded.format,
			checksum = excluded.checksum,
			content = excluded.content,
			updated_at = excluded.updated_at
	`, guide.ID, guide.SourceID, guide.Path, guide.Title, guide.Framework,
		guide.FrameworkVersion, guide.Extends, string(guide.Format),
		guide.Checksum, guide.Content, guide.CreatedAt, guide.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving guide: %w", err)
	}

	for _, table := range []string{"sections", "links", "refs"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE guide_id = ?", table), guide.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i := range guide.Sections {
		section := &guide.Sections[i]
		if section.ID == "" {
			section.ID = uuid.NewString()
		}
		section.GuideID = guide.ID

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sections (id, guide_id, heading, anchor, level, position, content)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, section.ID, section.GuideID, section.Heading, section.Anchor,
			section.Level, section.Position, section.Content); err != nil {
			return fmt.Errorf("saving section %q: %w", section.Heading, err)
		}
	}

	for i := range guide.Links {
		link := &guide.Links[i]
		if link.ID == "" {
			link.ID = uuid.NewString()
		}
		link.GuideID = guide.ID

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO links (id, guide_id, line, kind, text, target, fragment, resolved_target)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, link.ID, link.GuideID, link.Line, string(link.Kind), link.Text,
			link.Target, link.Fragment,
			link.ResolveAgainst(guide.Path)); err != nil {
			return fmt.Errorf("saving link at line %d: %w", link.Line, err)
		}
	}

	for i := range guide.References {
		ref := &guide.References[i]
		if ref.ID == "" {
			ref.ID = uuid.NewString()
		}
		ref.GuideID = guide.ID

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO refs (id, guide_id, label, url, line, kind)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ref.ID, ref.GuideID, ref.Label, ref.URL, ref.Line,
			string(ref.Kind)); err != nil {
			return fmt.Errorf("saving reference %q: %w", ref.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetGuide retrieves a guide by ID with child rows populated.
func (g *guideStore) GetGuide(ctx context.Context, id string) (*domain.Guide, error) {
	row := g.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, path, title, framework, framework_version,
			extends, format, checksum, content, created_at, updated_at
		FROM guides WHERE id = ?
	`, id)

	guide, err := scanGuide(row)
	if err != nil {
		return nil, err
	}

	if err := g.loadChildren(ctx, guide); err != nil {
		return nil, err
	}
	return guide, nil
}

// GetGuideByPath retrieves a guide by source and corpus-relative path.
func (g *guideStore) GetGuideByPath(ctx context.Context, sourceID, path string) (*domain.Guide, error) {
	row := g.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, path, title, framework, framework_version,
			extends, format, checksum, content, created_at, updated_at
		FROM guides WHERE source_id = ? AND path = ?
	`, sourceID, path)

	guide, err := scanGuide(row)
	if err != nil {
		return nil, err
	}

	if err := g.loadChildren(ctx, guide); err != nil {
		return nil, err
	}
	return guide, nil
}

// DeleteGuide removes a guide. Child rows cascade.
func (g *guideStore) DeleteGuide(ctx context.Context, id string) error {
	_, err := g.store.db.ExecContext(ctx, "DELETE FROM guides WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting guide: %w", err)
	}
	return nil
}

// DeleteGuideByPath removes a guide addressed by source and path.
// Deleting a path with no stored guide is not an error.
func (g *guideStore) DeleteGuideByPath(ctx context.Context, sourceID, path string) error {
	_, err := g.store.db.ExecContext(ctx,
		"DELETE FROM guides WHERE source_id = ? AND path = ?", sourceID, path)
	if err != nil {
		return fmt.Errorf("deleting guide by path: %w", err)
	}
	return nil
}

// ListGuides returns guides for a source with child rows populated.
// An empty sourceID returns the whole corpus.
func (g *guideStore) ListGuides(ctx context.Context, sourceID string) ([]domain.Guide, error) {
	query := `
		SELECT id, source_id, path, title, framework, framework_version,
			extends, format, checksum, content, created_at, updated_at
		FROM guides
	`
	var args []any
	if sourceID != "" {
		query += " WHERE source_id = ?"
		args = append(args, sourceID)
	}
	query += " ORDER BY path"

	rows, err := g.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying guides: %w", err)
	}
	defer rows.Close()

	var guides []domain.Guide //nolint:prealloc // size unknown from query
	for rows.Next() {
		guide, err := scanGuideRows(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, *guide)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating guides: %w", err)
	}

	for i := range guides {
		if err := g.loadChildren(ctx, &guides[i]); err != nil {
			return nil, err
		}
	}

	return guides, nil
}

// ListBacklinks returns every relative link across the corpus whose
// resolved target is the given corpus path.
func (g *guideStore) ListBacklinks(ctx context.Context, path string) ([]domain.Backlink, error) {
	rows, err := g.store.db.QueryContext(ctx, `
		SELECT g.path, g.title, l.line, l.text, l.fragment
		FROM links l
		JOIN guides g ON g.id = l.guide_id
		WHERE l.kind = ? AND l.resolved_target = ?
		ORDER BY g.path, l.line
	`, string(domain.LinkRelative), path)
	if err != nil {
		return nil, fmt.Errorf("querying backlinks: %w", err)
	}
	defer rows.Close()

	var backlinks []domain.Backlink //nolint:prealloc // size unknown from query
	for rows.Next() {
		var b domain.Backlink
		if err := rows.Scan(&b.FromPath, &b.FromTitle, &b.Line, &b.Text, &b.Fragment); err != nil {
			return nil, fmt.Errorf("scanning backlink: %w", err)
		}
		backlinks = append(backlinks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backlinks: %w", err)
	}

	return backlinks, nil
}

// loadChildren populates sections, links, and references for a guide.
func (g *guideStore) loadChildren(ctx context.Context, guide *domain.Guide) error {
	sections, err := g.loadSections(ctx, guide.ID)
	if err != nil {
		return err
	}
	guide.Sections = sections

	links, err := g.loadLinks(ctx, guide.ID)
	if err != nil {
		return err
	}
	guide.Links = links

	refs, err := g.loadReferences(ctx, guide.ID)
	if err != nil {
		return err
	}
	guide.References = refs

	return nil
}

func (g *guideStore) loadSections(ctx context.Context, guideID string) ([]domain.Section, error) {
	rows, err := g.store.db.QueryContext(ctx, `
		SELECT id, guide_id, heading, anchor, level, position, content
		FROM sections WHERE guide_id = ? ORDER BY position
	`, guideID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section //nolint:prealloc // size unknown from query
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.GuideID, &s.Heading, &s.Anchor,
			&s.Level, &s.Position, &s.Content); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sections = append(sections, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}

	return sections, nil
}

func (g *guideStore) loadLinks(ctx context.Context, guideID string) ([]domain.Link, error) {
	rows, err := g.store.db.QueryContext(ctx, `
		SELECT id, guide_id, line, kind, text, target, fragment
		FROM links WHERE guide_id = ? ORDER BY line, id
	`, guideID)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var links []domain.Link //nolint:prealloc // size unknown from query
	for rows.Next() {
		var l domain.Link
		var kind string
		if err := rows.Scan(&l.ID, &l.GuideID, &l.Line, &kind,
			&l.Text, &l.Target, &l.Fragment); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		l.Kind = domain.LinkKind(kind)
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}

	return links, nil
}

func (g *guideStore) loadReferences(ctx context.Context, guideID string) ([]domain.Reference, error) {
	rows, err := g.store.db.QueryContext(ctx, `
		SELECT id, guide_id, label, url, line, kind
		FROM refs WHERE guide_id = ? ORDER BY line, id
	`, guideID)
	if err != nil {
		return nil, fmt.Errorf("querying references: %w", err)
	}
	defer rows.Close()

	var refs []domain.Reference //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.Reference
		var kind string
		if err := rows.Scan(&r.ID, &r.GuideID, &r.Label, &r.URL,
			&r.Line, &kind); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		r.Kind = domain.RefKind(kind)
		refs = append(refs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating references: %w", err)
	}

	return refs, nil
}

// scanGuide scans a single guide row.
func scanGuide(row *sql.Row) (*domain.Guide, error) {
	var guide domain.Guide
	var format string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&guide.ID, &guide.SourceID, &guide.Path, &guide.Title,
		&guide.Framework, &guide.FrameworkVersion, &guide.Extends, &format,
		&guide.Checksum, &guide.Content, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning guide: %w", err)
	}

	guide.Format = domain.GuideFormat(format)
	if createdAt.Valid {
		guide.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		guide.UpdatedAt = updatedAt.Time
	}

	return &guide, nil
}

// scanGuideRows scans a guide from *sql.Rows.
func scanGuideRows(rows *sql.Rows) (*domain.Guide, error) {
	var guide domain.Guide
	var format string
	var createdAt, updatedAt sql.NullTime

	if err := rows.Scan(&guide.ID, &guide.SourceID, &guide.Path, &guide.Title,
		&guide.Framework, &guide.FrameworkVersion, &guide.Extends, &format,
		&guide.Checksum, &guide.Content, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning guide: %w", err)
	}

	guide.Format = domain.GuideFormat(format)
	if createdAt.Valid {
		guide.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		guide.UpdatedAt = updatedAt.Time
	}

	return &guide, nil
}
