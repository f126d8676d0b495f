package markdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.GuideParser = (*Parser)(nil)

// Parser handles Markdown style guides. It extracts the heading
// structure, every link and reference occurrence with its file line,
// and the guide metadata: title, framework, targeted version, and the
// language guide it extends.
//
// Metadata comes from YAML frontmatter when present. Otherwise it is
// inferred from the document: the first H1 supplies the title, a
// trailing "Style Guide" suffix marks the framework name, a "Targets
// <framework> <version>" statement supplies the version, and the first
// relative link on a line opening with "Extends" supplies the parent
// guide.
type Parser struct{}

// New creates a new Markdown parser.
func New() *Parser {
	return &Parser{}
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// SupportedConnectorTypes returns connector types for specialised handling.
func (p *Parser) SupportedConnectorTypes() []string {
	return nil // All connectors
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50 // Generic MIME parser, higher than plaintext
}

// Parse converts a Markdown file into a guide.
func (p *Parser) Parse(_ context.Context, raw *domain.RawDocument) (*driven.ParseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	fm, body, offset := extractFrontmatter(content)
	sc := scanBody(body, offset)

	guideID := uuid.New().String()
	now := time.Now()

	title := fm.Title
	if title == "" {
		title = firstH1(sc)
	}
	if title == "" {
		title = titleFromPath(raw.Path)
	}

	checksum := sha256.Sum256(raw.Content)

	guide := domain.Guide{
		ID:               guideID,
		SourceID:         raw.SourceID,
		Path:             raw.Path,
		Title:            title,
		Framework:        inferFramework(fm, sc, title, raw.Path),
		FrameworkVersion: inferVersion(fm, sc),
		Extends:          inferExtends(fm, sc, raw.Path),
		Format:           domain.FormatMarkdown,
		Checksum:         hex.EncodeToString(checksum[:]),
		Content:          content,
		Sections:         buildSections(sc, guideID),
		Links:            buildLinks(sc, guideID),
		References:       buildReferences(sc, guideID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	return &driven.ParseResult{Guide: guide}, nil
}

// firstH1 returns the text of the first level-1 heading, or empty.
func firstH1(sc *scanned) string {
	for _, h := range sc.headings {
		if h.level == 1 {
			return inlineText(h.text)
		}
	}
	return ""
}

// titleFromPath derives a title from the filename, the fallback when a
// guide has neither frontmatter nor an H1.
func titleFromPath(p string) string {
	name := path.Base(p)
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// inferFramework resolves the framework name. Frontmatter wins, then a
// title carrying a "Style Guide" suffix, then a Targets statement,
// then the filename.
func inferFramework(fm frontmatter, sc *scanned, title, rawPath string) string {
	if fm.Framework != "" {
		return fm.Framework
	}
	if fw := strings.TrimSpace(trimGuideSuffix(title)); fw != "" && fw != title {
		return fw
	}
	if sc.targetsFramework != "" {
		return sc.targetsFramework
	}
	return titleCase(titleFromPath(rawPath))
}

// trimGuideSuffix removes a trailing "Style Guide" or "Guide" from a
// title, so "Axum Style Guide" yields "Axum".
func trimGuideSuffix(title string) string {
	lower := strings.ToLower(title)
	for _, suffix := range []string{" style guide", " styleguide", " guide"} {
		if strings.HasSuffix(lower, suffix) {
			return title[:len(title)-len(suffix)]
		}
	}
	return title
}

// inferVersion resolves the targeted framework version. framework_version
// wins over the shorter version key.
func inferVersion(fm frontmatter, sc *scanned) string {
	if fm.FrameworkVersion != "" {
		return string(fm.FrameworkVersion)
	}
	if fm.Version != "" {
		return string(fm.Version)
	}
	return sc.targetsVersion
}

// inferExtends resolves the parent guide declaration to a corpus
// relative path. Frontmatter wins over an Extends statement. Targets
// are resolved against the guide's directory; any fragment is dropped.
func inferExtends(fm frontmatter, sc *scanned, rawPath string) string {
	dest := fm.Extends
	if dest == "" {
		dest = sc.extendsDest
	}
	if dest == "" {
		return ""
	}
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		dest = dest[:i]
	}
	dest = strings.TrimPrefix(dest, "/")
	if dest == "" {
		return ""
	}
	return path.Clean(path.Join(path.Dir(rawPath), dest))
}

// buildSections turns the scanned headings into sections. The prose
// under each heading, up to the next heading, becomes the section
// content with Markdown formatting stripped.
func buildSections(sc *scanned, guideID string) []domain.Section {
	slugs := newSlugger()
	sections := make([]domain.Section, 0, len(sc.headings))
	for i, h := range sc.headings {
		end := len(sc.bodyLines)
		if i+1 < len(sc.headings) {
			end = sc.headings[i+1].bodyIdx
		}
		var content string
		if h.bodyIdx+1 < end {
			content = stripMarkdown(strings.Join(sc.bodyLines[h.bodyIdx+1:end], "\n"))
		}
		sections = append(sections, domain.Section{
			ID:       uuid.New().String(),
			GuideID:  guideID,
			Heading:  inlineText(h.text),
			Anchor:   slugs.anchor(h.text),
			Level:    h.level,
			Position: i,
			Content:  content,
		})
	}
	return sections
}

// buildLinks classifies the scanned link occurrences.
func buildLinks(sc *scanned, guideID string) []domain.Link {
	links := make([]domain.Link, 0, len(sc.links))
	for _, l := range sc.links {
		dest := strings.TrimSpace(l.dest)
		if dest == "" {
			continue
		}

		link := domain.Link{
			ID:      uuid.New().String(),
			GuideID: guideID,
			Line:    l.line,
			Text:    l.text,
		}
		switch {
		case strings.HasPrefix(dest, "#"):
			link.Kind = domain.LinkAnchor
			link.Fragment = dest[1:]
		case schemePattern.MatchString(dest):
			link.Kind = domain.LinkExternal
			link.Target, link.Fragment = splitFragment(dest)
		default:
			link.Kind = domain.LinkRelative
			target, fragment := splitFragment(dest)
			link.Target = strings.TrimPrefix(target, "/")
			link.Fragment = fragment
		}
		links = append(links, link)
	}
	return links
}

// buildReferences converts the scanned footnote and reference-link
// occurrences.
func buildReferences(sc *scanned, guideID string) []domain.Reference {
	refs := make([]domain.Reference, 0, len(sc.refs))
	for _, r := range sc.refs {
		kind := domain.RefUsage
		if r.def {
			kind = domain.RefDefinition
		}
		refs = append(refs, domain.Reference{
			ID:      uuid.New().String(),
			GuideID: guideID,
			Label:   r.label,
			URL:     r.url,
			Line:    r.line,
			Kind:    kind,
		})
	}
	return refs
}

// splitFragment divides a destination at the first #.
func splitFragment(dest string) (target, fragment string) {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i], dest[i+1:]
	}
	return dest, ""
}

// titleCase uppercases the first letter of each word, for titles
// derived from filenames.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
