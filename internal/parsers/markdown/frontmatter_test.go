package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFrontmatter(t *testing.T) {
	content := "---\ntitle: Rust Style Guide\nframework: Rust\n---\n# Rust\n\nBody.\n"

	fm, body, offset := extractFrontmatter(content)

	assert.Equal(t, "Rust Style Guide", fm.Title)
	assert.Equal(t, "Rust", fm.Framework)
	assert.Equal(t, "# Rust\n\nBody.\n", body)
	assert.Equal(t, 4, offset)
}

func TestExtractFrontmatter_None(t *testing.T) {
	content := "# Rust\n\nBody.\n"

	fm, body, offset := extractFrontmatter(content)

	assert.Equal(t, frontmatter{}, fm)
	assert.Equal(t, content, body)
	assert.Equal(t, 0, offset)
}

func TestExtractFrontmatter_Unclosed(t *testing.T) {
	content := "---\ntitle: Rust\nno closing fence\n"

	fm, body, offset := extractFrontmatter(content)

	assert.Equal(t, frontmatter{}, fm)
	assert.Equal(t, content, body)
	assert.Equal(t, 0, offset)
}

func TestExtractFrontmatter_MalformedYAML(t *testing.T) {
	content := "---\ntitle: [unterminated\n---\nBody.\n"

	fm, body, offset := extractFrontmatter(content)

	assert.Equal(t, frontmatter{}, fm)
	assert.Equal(t, content, body)
	assert.Equal(t, 0, offset)
}

func TestExtractFrontmatter_HorizontalRuleNotFrontmatter(t *testing.T) {
	// A document opening with a thematic break after text is not
	// frontmatter.
	content := "Intro text\n---\nMore text\n"

	_, body, offset := extractFrontmatter(content)

	assert.Equal(t, content, body)
	assert.Equal(t, 0, offset)
}
