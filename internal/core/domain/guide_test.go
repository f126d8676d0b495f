package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuide_Dir(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"root level", "rust.md", "."},
		{"nested", "frameworks/axum.md", "frameworks"},
		{"deeply nested", "frameworks/rust/axum.md", "frameworks/rust"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Guide{Path: tt.path}
			assert.Equal(t, tt.expected, g.Dir())
		})
	}
}

func TestGuide_SectionByAnchor(t *testing.T) {
	g := &Guide{
		Sections: []Section{
			{Heading: "Error Handling", Anchor: "error-handling", Position: 0},
			{Heading: "Testing", Anchor: "testing", Position: 1},
		},
	}

	t.Run("existing anchor", func(t *testing.T) {
		s := g.SectionByAnchor("testing")
		assert.NotNil(t, s)
		assert.Equal(t, "Testing", s.Heading)
	})

	t.Run("missing anchor", func(t *testing.T) {
		assert.Nil(t, g.SectionByAnchor("deployment"))
	})
}

func TestGuide_ReferenceDefinitions(t *testing.T) {
	g := &Guide{
		References: []Reference{
			{Label: "axum-docs", Kind: RefUsage, Line: 3},
			{Label: "axum-docs", Kind: RefDefinition, URL: "https://docs.rs/axum", Line: 40},
			{Label: "tokio-docs", Kind: RefDefinition, URL: "https://docs.rs/tokio", Line: 41},
		},
	}

	defs := g.ReferenceDefinitions()
	assert.Len(t, defs, 2)
	assert.Equal(t, "axum-docs", defs[0].Label)
	assert.Equal(t, "tokio-docs", defs[1].Label)
}

func TestLink_ResolveAgainst(t *testing.T) {
	tests := []struct {
		name      string
		guidePath string
		target    string
		expected  string
	}{
		{"sibling file", "frameworks/axum.md", "actix.md", "frameworks/actix.md"},
		{"parent directory", "frameworks/axum.md", "../rust.md", "rust.md"},
		{"same directory dot slash", "frameworks/axum.md", "./actix.md", "frameworks/actix.md"},
		{"from root", "index.md", "frameworks/axum.md", "frameworks/axum.md"},
		{"escapes corpus", "rust.md", "../../etc/passwd", "../../etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Link{Kind: LinkRelative, Target: tt.target}
			assert.Equal(t, tt.expected, l.ResolveAgainst(tt.guidePath))
		})
	}
}

func TestLink_ResolveAgainst_NonRelative(t *testing.T) {
	l := &Link{Kind: LinkExternal, Target: "https://docs.rs/axum"}
	assert.Equal(t, "", l.ResolveAgainst("rust.md"))
}

func TestLink_EscapesCorpus(t *testing.T) {
	tests := []struct {
		name      string
		guidePath string
		target    string
		expected  bool
	}{
		{"inside corpus", "frameworks/axum.md", "../rust.md", false},
		{"one level above root", "rust.md", "../outside.md", true},
		{"two levels above root", "frameworks/axum.md", "../../../secret.md", true},
		{"exactly parent of root", "rust.md", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Link{Kind: LinkRelative, Target: tt.target}
			assert.Equal(t, tt.expected, l.EscapesCorpus(tt.guidePath))
		})
	}
}
