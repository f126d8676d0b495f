package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter holds the YAML metadata block doctrine recognises at the
// top of a guide. All keys are optional; missing values fall back to
// inference from the document body.
type frontmatter struct {
	Title            string     `yaml:"title"`
	Framework        string     `yaml:"framework"`
	FrameworkVersion flexString `yaml:"framework_version"`
	Version          flexString `yaml:"version"`
	Extends          string     `yaml:"extends"`
}

// flexString accepts any YAML scalar where doctrine expects text, so
// `version: 0.8` and `version: "0.8"` both parse.
type flexString string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *flexString) UnmarshalYAML(value *yaml.Node) error {
	*s = flexString(value.Value)
	return nil
}

// extractFrontmatter splits a leading YAML block from the document.
// Returns the parsed block, the remaining body, and the number of file
// lines the block occupied including both fences, so body line numbers
// can be offset back to file positions.
//
// A document without an opening --- fence, or with YAML that does not
// parse, is treated as having no frontmatter.
func extractFrontmatter(content string) (frontmatter, string, int) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return fm, content, 0
	}

	lines := strings.SplitAfter(content, "\n")
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], "\r\n")
		if trimmed != "---" && trimmed != "..." {
			continue
		}
		block := strings.Join(lines[1:i], "")
		if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
			return frontmatter{}, content, 0
		}
		return fm, strings.Join(lines[i+1:], ""), i + 1
	}
	return frontmatter{}, content, 0
}
