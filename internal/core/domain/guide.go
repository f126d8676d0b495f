package domain

import (
	"path"
	"strings"
	"time"
)

// GuideFormat identifies how a corpus file was parsed.
type GuideFormat string

const (
	// FormatMarkdown is a fully parsed Markdown style guide.
	FormatMarkdown GuideFormat = "markdown"

	// FormatPlain is a corpus file catalogued without structural parsing.
	FormatPlain GuideFormat = "plain"
)

// Guide represents one parsed style-guide document.
// It is the canonical representation after parsing; the Markdown file
// remains the source of truth and the catalog is a derived cache.
type Guide struct {
	// ID is the unique identifier for the guide.
	ID string

	// SourceID links to the Source the guide was scanned from.
	SourceID string

	// Path is the slash-separated path relative to the corpus root.
	Path string

	// Title is the document title (frontmatter, first H1, or filename).
	Title string

	// Framework is the framework the guide prescribes conventions for.
	Framework string

	// FrameworkVersion is the framework version the guide targets.
	// Empty when the guide does not pin a version.
	FrameworkVersion string

	// Extends is the corpus-relative path of the parent language guide,
	// or empty for guides that stand alone.
	Extends string

	// Format records how the file was parsed.
	Format GuideFormat

	// Checksum is the sha256 hex digest of the raw file content.
	Checksum string

	// Content is the raw Markdown source of the guide.
	Content string

	// Sections is the ordered heading structure of the document.
	Sections []Section

	// Links holds every outbound link occurrence in document order.
	Links []Link

	// References holds footnote and reference-style definitions and usages.
	References []Reference

	// CreatedAt is when the guide was first catalogued.
	CreatedAt time.Time

	// UpdatedAt is when the guide was last re-scanned.
	UpdatedAt time.Time
}

// IsMarkdown reports whether the guide was structurally parsed.
func (g *Guide) IsMarkdown() bool {
	return g.Format == FormatMarkdown
}

// Dir returns the corpus-relative directory containing the guide.
// Returns "." for guides at the corpus root.
func (g *Guide) Dir() string {
	return path.Dir(g.Path)
}

// SectionByAnchor returns the section with the given anchor, or nil.
func (g *Guide) SectionByAnchor(anchor string) *Section {
	for i := range g.Sections {
		if g.Sections[i].Anchor == anchor {
			return &g.Sections[i]
		}
	}
	return nil
}

// ReferenceDefinitions returns only the definition entries, in order.
func (g *Guide) ReferenceDefinitions() []Reference {
	var defs []Reference
	for _, r := range g.References {
		if r.Kind == RefDefinition {
			defs = append(defs, r)
		}
	}
	return defs
}

// Section is one heading-delimited unit of a guide. Sections are the
// granularity of full-text search and of anchor resolution.
type Section struct {
	// ID is the unique identifier for the section.
	ID string

	// GuideID links to the parent Guide.
	GuideID string

	// Heading is the heading text without the leading # markers.
	Heading string

	// Anchor is the GitHub-style slug for the heading, unique within
	// the guide (duplicate headings get -1, -2 suffixes).
	Anchor string

	// Level is the heading depth, 1 through 6.
	Level int

	// Position is the ordinal position within the document.
	Position int

	// Content is the prose under the heading with Markdown markers
	// stripped, up to the next heading.
	Content string
}

// LinkKind classifies where a link points.
type LinkKind string

const (
	// LinkRelative points at another corpus file by relative path.
	LinkRelative LinkKind = "relative"

	// LinkExternal points outside the corpus (http, https, mailto...).
	LinkExternal LinkKind = "external"

	// LinkAnchor points at a heading within the same document.
	LinkAnchor LinkKind = "anchor"
)

// Link is a single outbound link occurrence inside a guide.
type Link struct {
	// ID is the unique identifier for the occurrence.
	ID string

	// GuideID links to the guide containing the occurrence.
	GuideID string

	// Line is the 1-based source line of the occurrence.
	Line int

	// Kind classifies the target.
	Kind LinkKind

	// Text is the link text as written.
	Text string

	// Target is the raw destination without any fragment.
	// Empty for pure same-document anchor links.
	Target string

	// Fragment is the #anchor portion without the leading #.
	Fragment string
}

// ResolveAgainst resolves a relative link target against the directory
// of the guide that contains it, producing a corpus-relative path.
// Cleaned paths that escape the corpus root keep their ../ prefix so
// callers can detect the escape.
func (l *Link) ResolveAgainst(guidePath string) string {
	if l.Kind != LinkRelative || l.Target == "" {
		return ""
	}
	return path.Clean(path.Join(path.Dir(guidePath), l.Target))
}

// EscapesCorpus reports whether the resolved target climbs above the
// corpus root.
func (l *Link) EscapesCorpus(guidePath string) bool {
	resolved := l.ResolveAgainst(guidePath)
	return resolved == ".." || strings.HasPrefix(resolved, "../")
}

// RefKind distinguishes reference definitions from usages.
type RefKind string

const (
	// RefDefinition is a footnote or reference-link definition line,
	// e.g. `[^axum-docs]: https://docs.rs/axum`.
	RefDefinition RefKind = "definition"

	// RefUsage is an in-prose usage, e.g. `[^axum-docs]` or `[text][label]`.
	RefUsage RefKind = "usage"
)

// Reference is one footnote/reference occurrence, scoped to a guide.
type Reference struct {
	// ID is the unique identifier for the occurrence.
	ID string

	// GuideID links to the guide containing the occurrence.
	GuideID string

	// Label is the reference label without brackets. Footnote labels
	// keep their leading ^ so footnotes and reference links stay in
	// separate namespaces.
	Label string

	// URL is the cited destination. Set for definitions only.
	URL string

	// Line is the 1-based source line of the occurrence.
	Line int

	// Kind distinguishes definitions from usages.
	Kind RefKind
}
