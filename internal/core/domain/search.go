package domain

// SearchOptions narrows a full-text search over guide sections.
type SearchOptions struct {
	// Query is the full-text query string.
	Query string

	// Limit caps the number of results. Zero means the engine default.
	Limit int

	// Framework restricts results to guides for one framework.
	// Empty searches the whole corpus.
	Framework string

	// SourceID restricts results to guides from one source.
	SourceID string
}

// SearchResult is one section-level hit from a full-text search.
type SearchResult struct {
	// GuideID identifies the guide containing the hit.
	GuideID string

	// GuidePath is the corpus-relative path of the guide.
	GuidePath string

	// GuideTitle is the guide's document title.
	GuideTitle string

	// Framework is the framework the guide covers.
	Framework string

	// Heading is the matched section's heading text.
	Heading string

	// Anchor is the matched section's anchor slug.
	Anchor string

	// Snippet is an excerpt of the matched content with the engine's
	// highlight markers applied.
	Snippet string

	// Score ranks the hit, higher is better. Engines normalise their
	// native ranking (e.g. bm25, where lower is better) before returning.
	Score float64
}
