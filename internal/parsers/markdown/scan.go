package markdown

import (
	"regexp"
	"strings"
)

// doctrine scans guides line by line rather than building a full AST.
// The corpus is plain ATX Markdown, and issue reporting needs the file
// line of every link and reference, which a line scanner gives for free.
var (
	headingPattern     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	closingHashPattern = regexp.MustCompile(`\s+#+\s*$`)
	fencePattern       = regexp.MustCompile("^\\s{0,3}(`{3,}|~{3,})")
	imagePattern       = regexp.MustCompile(`!\[([^\]]*)\]\(\s*([^)\s]+)(?:\s+"[^"]*")?\s*\)`)
	linkPattern        = regexp.MustCompile(`\[([^\]]+)\]\(\s*([^)\s]+)(?:\s+"[^"]*")?\s*\)`)
	autolinkPattern    = regexp.MustCompile(`<(https?://[^>\s]+)>`)
	reflinkPattern     = regexp.MustCompile(`\[([^\]^][^\]]*)\]\[([^\]]*)\]`)
	footnotePattern    = regexp.MustCompile(`\[(\^[^\]\s]+)\]`)
	definitionPattern  = regexp.MustCompile(`^\s{0,3}\[([^\]]+)\]:\s*(.*)$`)
	urlPattern         = regexp.MustCompile(`https?://\S+`)
	extendsPattern     = regexp.MustCompile(`(?i)^\s{0,3}[*_]{0,2}extends\b`)
	targetsPattern     = regexp.MustCompile(`(?i)\btargets\s+(.+?)\s+v?(\d+(?:\.\w+)*)`)
	schemePattern      = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// heading is one ATX heading found in the body.
type heading struct {
	level   int
	text    string
	line    int // 1-based file line
	bodyIdx int // index into the body's line slice
}

// rawLink is one link occurrence before classification.
type rawLink struct {
	line  int
	text  string
	dest  string // raw destination including any fragment
	image bool
}

// rawRef is one footnote or reference-link occurrence. Labels keep
// their leading ^ so footnotes and reference links stay in separate
// namespaces, matching how Markdown resolves them.
type rawRef struct {
	line  int
	label string
	url   string
	def   bool
}

// scanned holds the structural elements pulled from a document body.
type scanned struct {
	bodyLines []string
	headings  []heading
	links     []rawLink
	refs      []rawRef

	// extendsDest is the destination of the first relative link on a
	// line opening with "Extends", raw, or empty.
	extendsDest string

	// targetsFramework and targetsVersion come from the first
	// "Targets <framework> <version>" statement, or are empty.
	targetsFramework string
	targetsVersion   string
}

// scanBody walks the document line by line, skipping fenced code
// blocks, and collects headings, links, and references. offset is the
// number of file lines consumed by frontmatter.
func scanBody(body string, offset int) *scanned {
	sc := &scanned{bodyLines: strings.Split(body, "\n")}

	inFence := false
	var fenceDelim byte
	for i, line := range sc.bodyLines {
		fileLine := offset + i + 1

		if m := fencePattern.FindStringSubmatch(line); m != nil {
			switch {
			case !inFence:
				inFence = true
				fenceDelim = m[1][0]
			case m[1][0] == fenceDelim:
				inFence = false
			}
			continue
		}
		if inFence {
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			text := closingHashPattern.ReplaceAllString(strings.TrimSpace(m[2]), "")
			sc.headings = append(sc.headings, heading{
				level:   len(m[1]),
				text:    text,
				line:    fileLine,
				bodyIdx: i,
			})
			sc.scanInline(text, fileLine, line)
			continue
		}

		if m := definitionPattern.FindStringSubmatch(line); m != nil {
			url := ""
			if u := urlPattern.FindString(m[2]); u != "" {
				url = strings.TrimRight(u, ").,;")
			}
			sc.refs = append(sc.refs, rawRef{
				line:  fileLine,
				label: m[1],
				url:   url,
				def:   true,
			})
			continue
		}

		sc.scanInline(line, fileLine, line)
	}
	return sc
}

// scanInline extracts links and reference usages from one line of
// prose. content is the text to scan; full is the complete original
// line, used for the Extends and Targets statements.
func (sc *scanned) scanInline(content string, fileLine int, full string) {
	masked := maskInlineCode(content)

	var lineLinks []rawLink
	for _, m := range imagePattern.FindAllStringSubmatch(masked, -1) {
		lineLinks = append(lineLinks, rawLink{line: fileLine, text: m[1], dest: m[2], image: true})
	}
	masked = blankMatches(masked, imagePattern)

	for _, m := range linkPattern.FindAllStringSubmatch(masked, -1) {
		lineLinks = append(lineLinks, rawLink{line: fileLine, text: strings.TrimSpace(m[1]), dest: m[2]})
	}
	masked = blankMatches(masked, linkPattern)

	for _, m := range autolinkPattern.FindAllStringSubmatch(masked, -1) {
		lineLinks = append(lineLinks, rawLink{line: fileLine, text: m[1], dest: m[1]})
	}
	masked = blankMatches(masked, autolinkPattern)

	for _, m := range reflinkPattern.FindAllStringSubmatch(masked, -1) {
		label := m[2]
		if label == "" {
			// Collapsed reference link: [label][].
			label = m[1]
		}
		sc.refs = append(sc.refs, rawRef{line: fileLine, label: label})
	}
	masked = blankMatches(masked, reflinkPattern)

	for _, m := range footnotePattern.FindAllStringSubmatch(masked, -1) {
		sc.refs = append(sc.refs, rawRef{line: fileLine, label: m[1]})
	}

	sc.links = append(sc.links, lineLinks...)

	if sc.extendsDest == "" && extendsPattern.MatchString(full) {
		for _, l := range lineLinks {
			if !l.image && isRelativeDest(l.dest) {
				sc.extendsDest = l.dest
				break
			}
		}
	}
	if sc.targetsVersion == "" {
		if m := targetsPattern.FindStringSubmatch(full); m != nil {
			sc.targetsFramework = strings.Trim(m[1], " *_:")
			sc.targetsVersion = m[2]
		}
	}
}

// maskInlineCode blanks `code` spans so link syntax inside them is not
// extracted. Lengths are preserved so match positions stay meaningful.
// A line with an unclosed backtick is returned untouched, since the
// span would render literally anyway.
func maskInlineCode(line string) string {
	out := []byte(line)
	inCode := false
	for i := 0; i < len(out); i++ {
		if out[i] == '`' {
			inCode = !inCode
			out[i] = ' '
			continue
		}
		if inCode {
			out[i] = ' '
		}
	}
	if inCode {
		return line
	}
	return string(out)
}

// blankMatches replaces every match of re with spaces of equal length.
func blankMatches(s string, re *regexp.Regexp) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}

// isRelativeDest reports whether a link destination points inside the
// corpus rather than at an external URL or a same-document anchor.
func isRelativeDest(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	return !schemePattern.MatchString(dest)
}
