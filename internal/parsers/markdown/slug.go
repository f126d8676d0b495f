package markdown

import (
	"fmt"
	"strings"
	"unicode"
)

// slugify converts heading text to a GitHub-style anchor: lowercased,
// spaces become hyphens, punctuation is dropped, letters, digits,
// hyphens, and underscores survive.
func slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// slugger assigns unique anchors within one document. Duplicate
// headings get -1, -2 suffixes the way GitHub renders them.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

// anchor returns the unique slug for a heading, reducing inline
// Markdown to its rendered text first.
func (s *slugger) anchor(headingText string) string {
	base := slugify(inlineText(headingText))
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
