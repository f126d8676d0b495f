package markdown

import (
	"regexp"
	"strings"
)

var (
	codeBlockPattern    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodePattern   = regexp.MustCompile("`[^`]+`")
	headingMarkPattern  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquotePattern   = regexp.MustCompile(`(?m)^>\s*`)
	hrPattern           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkerPattern   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListPattern = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting for plain text
// content. This is a simplified implementation that handles the
// constructs the corpus actually uses.
func stripMarkdown(content string) string {
	content = codeBlockPattern.ReplaceAllString(content, "")
	content = inlineCodePattern.ReplaceAllStringFunc(content, func(m string) string {
		return strings.Trim(m, "`")
	})
	content = imagePattern.ReplaceAllString(content, "$1")
	content = linkPattern.ReplaceAllString(content, "$1")
	content = reflinkPattern.ReplaceAllString(content, "$1")
	content = footnotePattern.ReplaceAllString(content, "")
	content = headingMarkPattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = blockquotePattern.ReplaceAllString(content, "")
	content = hrPattern.ReplaceAllString(content, "")
	content = listMarkerPattern.ReplaceAllString(content, "")
	content = numberedListPattern.ReplaceAllString(content, "")
	content = multiNewlinePattern.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// inlineText reduces inline Markdown to its rendered text: images to
// their alt text, links to their link text, code and emphasis markers
// dropped. Used for heading anchors and titles.
func inlineText(s string) string {
	s = imagePattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = reflinkPattern.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	return strings.TrimSpace(s)
}
