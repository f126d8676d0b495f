package domain

// Backlink is one inbound relative link: a place in the corpus that
// links to a given guide.
type Backlink struct {
	// FromPath is the corpus-relative path of the linking guide.
	FromPath string

	// FromTitle is the linking guide's title.
	FromTitle string

	// Line is the 1-based line of the link occurrence.
	Line int

	// Text is the link text as written.
	Text string

	// Fragment is the #anchor portion of the link, if any.
	Fragment string
}
