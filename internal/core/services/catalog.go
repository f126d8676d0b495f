package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
	"github.com/welshwandering/doctrine/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// Markers delimiting the generated regions inside corpus documents.
// Everything between a pair is owned by the generator; prose outside
// is never touched.
const (
	FrameworksMarkerStart = "<!-- doctrine:frameworks -->"
	FrameworksMarkerEnd   = "<!-- /doctrine:frameworks -->"
	TOCMarkerStart        = "<!-- doctrine:toc -->"
	TOCMarkerEnd          = "<!-- /doctrine:toc -->"
)

// CatalogService builds the frameworks catalog and maintains the
// generated regions of corpus documents.
type CatalogService struct {
	guideStore  driven.GuideStore
	sourceStore driven.SourceStore
	indexFile   string
}

// NewCatalogService creates a new catalog service. indexFile is the
// corpus-relative path of the frameworks index document.
func NewCatalogService(guideStore driven.GuideStore, sourceStore driven.SourceStore, indexFile string) *CatalogService {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	return &CatalogService{
		guideStore:  guideStore,
		sourceStore: sourceStore,
		indexFile:   indexFile,
	}
}

// Catalog returns the frameworks catalog for the whole corpus in
// presentation order.
func (s *CatalogService) Catalog(ctx context.Context) (*domain.Catalog, error) {
	return s.catalogFor(ctx, "")
}

// RenderTable renders the corpus-wide catalog as a Markdown table.
func (s *CatalogService) RenderTable(ctx context.Context) (string, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return "", err
	}
	return s.renderTable(catalog), nil
}

// WriteIndex rewrites the catalog table between the doctrine markers in
// the source's index document.
func (s *CatalogService) WriteIndex(ctx context.Context, sourceID string) (*driving.IndexResult, error) {
	return s.index(ctx, sourceID, true)
}

// CheckIndex reports whether the index document's catalog table matches
// the corpus, without writing.
func (s *CatalogService) CheckIndex(ctx context.Context, sourceID string) (*driving.IndexResult, error) {
	return s.index(ctx, sourceID, false)
}

func (s *CatalogService) index(ctx context.Context, sourceID string, write bool) (*driving.IndexResult, error) {
	root, err := s.corpusRoot(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	// The table only carries this source's guides, so every link in it
	// resolves inside the tree it is written into.
	catalog, err := s.catalogFor(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	table := s.renderTable(catalog)

	abs := filepath.Join(root, filepath.FromSlash(s.indexFile))
	raw, err := os.ReadFile(abs)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var newContent string
	switch {
	case errors.Is(err, fs.ErrNotExist):
		newContent = "# Frameworks\n\n" + FrameworksMarkerStart + "\n" + table + "\n" + FrameworksMarkerEnd + "\n"
	default:
		content := string(raw)
		spliced, found, serr := spliceRegion(content, FrameworksMarkerStart, FrameworksMarkerEnd, table)
		if serr != nil {
			return nil, fmt.Errorf("%s: %w", s.indexFile, serr)
		}
		if found {
			newContent = spliced
		} else {
			newContent = appendFrameworksSection(content, table)
		}
	}

	result := &driving.IndexResult{
		Path:    abs,
		Changed: newContent != string(raw),
		Table:   table,
	}
	if write && result.Changed {
		logger.Debug("Writing index %s", abs)
		if err := writeFileAtomic(abs, []byte(newContent)); err != nil {
			return nil, fmt.Errorf("write index: %w", err)
		}
	}
	return result, nil
}

// WriteTOCs rewrites the table of contents between the doctrine markers
// in guides that carry them.
func (s *CatalogService) WriteTOCs(ctx context.Context, sourceID, guidePath string) ([]driving.TOCResult, error) {
	return s.tocs(ctx, sourceID, guidePath, true)
}

// CheckTOCs reports which marked guides have stale tables of contents,
// without writing.
func (s *CatalogService) CheckTOCs(ctx context.Context, sourceID, guidePath string) ([]driving.TOCResult, error) {
	return s.tocs(ctx, sourceID, guidePath, false)
}

func (s *CatalogService) tocs(ctx context.Context, sourceID, guidePath string, write bool) ([]driving.TOCResult, error) {
	root, err := s.corpusRoot(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	var guides []domain.Guide
	if guidePath != "" {
		guide, err := s.guideStore.GetGuideByPath(ctx, sourceID, guidePath)
		if err != nil {
			return nil, fmt.Errorf("get guide: %w", err)
		}
		guides = []domain.Guide{*guide}
	} else {
		guides, err = s.guideStore.ListGuides(ctx, sourceID)
		if err != nil {
			return nil, fmt.Errorf("list guides: %w", err)
		}
	}

	var results []driving.TOCResult
	for i := range guides {
		guide := &guides[i]
		if !guide.IsMarkdown() {
			continue
		}

		abs := filepath.Join(root, filepath.FromSlash(guide.Path))
		raw, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", guide.Path, err)
		}
		content := string(raw)

		toc := renderTOC(guide)
		newContent, found, serr := spliceRegion(content, TOCMarkerStart, TOCMarkerEnd, toc)
		if serr != nil {
			return nil, fmt.Errorf("%s: %w", guide.Path, serr)
		}
		if !found {
			// Unmarked guides opted out, unless one was asked for by name
			if guidePath != "" {
				return nil, fmt.Errorf("%w: %s has no doctrine:toc markers", domain.ErrInvalidInput, guide.Path)
			}
			continue
		}

		result := driving.TOCResult{
			GuidePath: guide.Path,
			Changed:   newContent != content,
			TOC:       toc,
		}
		if write && result.Changed {
			logger.Debug("Writing TOC in %s", abs)
			if err := writeFileAtomic(abs, []byte(newContent)); err != nil {
				return nil, fmt.Errorf("write %s: %w", guide.Path, err)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// catalogFor builds the catalog from one source's guides, or the whole
// corpus when sourceID is empty. The index document itself and plain
// files are not catalogued.
func (s *CatalogService) catalogFor(ctx context.Context, sourceID string) (*domain.Catalog, error) {
	if s.guideStore == nil {
		return nil, domain.ErrNotImplemented
	}

	guides, err := s.guideStore.ListGuides(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	titles := make(map[string]string, len(guides))
	for i := range guides {
		titles[guides[i].Path] = guides[i].Title
	}

	catalog := &domain.Catalog{}
	for i := range guides {
		guide := &guides[i]
		if guide.Path == s.indexFile || !guide.IsMarkdown() {
			continue
		}
		catalog.Entries = append(catalog.Entries, domain.CatalogEntry{
			Framework:        guide.Framework,
			FrameworkVersion: guide.FrameworkVersion,
			GuidePath:        guide.Path,
			GuideTitle:       guide.Title,
			Extends:          guide.Extends,
			ExtendsTitle:     titles[guide.Extends],
		})
	}
	catalog.Sort()
	return catalog, nil
}

// corpusRoot resolves the on-disk corpus root for a source. Generated
// files can only be written into filesystem sources.
func (s *CatalogService) corpusRoot(ctx context.Context, sourceID string) (string, error) {
	if s.sourceStore == nil {
		return "", domain.ErrNotImplemented
	}

	source, err := s.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("get source: %w", err)
	}
	if source.ConnectorType != domain.ConnectorFilesystem {
		return "", fmt.Errorf("%w: generated files need a filesystem source, not %s",
			domain.ErrUnsupportedType, source.ConnectorType)
	}

	root := source.ConfigValue(domain.ConfigKeyPath)
	if root == "" {
		return "", fmt.Errorf("%w: source %s has no corpus path", domain.ErrInvalidInput, sourceID)
	}
	return root, nil
}

// renderTable renders the catalog as a Markdown table without a
// trailing newline.
func (s *CatalogService) renderTable(catalog *domain.Catalog) string {
	var b strings.Builder
	b.WriteString("| Framework | Guide | Extends |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, e := range catalog.Entries {
		framework := e.Framework
		if e.FrameworkVersion != "" {
			framework += " " + e.FrameworkVersion
		}

		guideTitle := e.GuideTitle
		if guideTitle == "" {
			guideTitle = e.GuidePath
		}
		guideCell := fmt.Sprintf("[%s](%s)", cellText(guideTitle), s.linkTo(e.GuidePath))

		var extendsCell string
		if e.Extends != "" {
			title := e.ExtendsTitle
			if title == "" {
				title = e.Extends
			}
			extendsCell = fmt.Sprintf("[%s](%s)", cellText(title), s.linkTo(e.Extends))
		}

		fmt.Fprintf(&b, "| %s | %s | %s |\n", cellText(framework), guideCell, extendsCell)
	}
	return strings.TrimRight(b.String(), "\n")
}

// linkTo renders a corpus-root-relative target as a link relative to
// the index document's directory.
func (s *CatalogService) linkTo(target string) string {
	dir := path.Dir(s.indexFile)
	if dir == "." {
		return target
	}
	up := strings.Count(dir, "/") + 1
	return strings.Repeat("../", up) + target
}

// renderTOC renders the bullet-list table of contents for a guide.
// The H1 title is left out; deeper headings nest by two spaces.
func renderTOC(guide *domain.Guide) string {
	var b strings.Builder
	for i := range guide.Sections {
		section := &guide.Sections[i]
		if section.Level < 2 {
			continue
		}
		indent := strings.Repeat("  ", section.Level-2)
		fmt.Fprintf(&b, "%s- [%s](#%s)\n", indent, cellText(section.Heading), section.Anchor)
	}
	return strings.TrimRight(b.String(), "\n")
}

// spliceRegion replaces the text between a start and end marker with
// body, keeping the markers. Reports whether the marker pair exists.
func spliceRegion(content, startMarker, endMarker, body string) (string, bool, error) {
	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start == -1 && end == -1 {
		return content, false, nil
	}
	if start == -1 || end == -1 || end < start {
		return "", false, fmt.Errorf("%w: unbalanced %s markers", domain.ErrInvalidInput, startMarker)
	}

	var b strings.Builder
	b.WriteString(content[:start+len(startMarker)])
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(content[end:])
	return b.String(), true, nil
}

// appendFrameworksSection adds a fresh marked section to an index
// document that never carried one.
func appendFrameworksSection(content, table string) string {
	var b strings.Builder
	b.WriteString(content)
	if content != "" {
		if !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("## Frameworks\n\n")
	b.WriteString(FrameworksMarkerStart)
	b.WriteString("\n")
	b.WriteString(table)
	b.WriteString("\n")
	b.WriteString(FrameworksMarkerEnd)
	b.WriteString("\n")
	return b.String()
}

// cellText escapes pipes so titles cannot break table rows.
func cellText(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// writeFileAtomic writes content through a temp file and an atomic
// rename, so readers never observe a half-written document.
func writeFileAtomic(path string, content []byte) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		//nolint:errcheck // Cleanup after a successful replace is a no-op
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(content); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
