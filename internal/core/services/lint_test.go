package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welshwandering/doctrine/internal/adapters/driven/storage/memory"
	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

type fakeProber struct {
	results    []driven.ProbeResult
	err        error
	gotTargets []driven.ProbeTarget
	called     bool
}

func (p *fakeProber) ProbeAll(_ context.Context, targets []driven.ProbeTarget) ([]driven.ProbeResult, error) {
	p.called = true
	p.gotTargets = targets
	return p.results, p.err
}

type fakeProbeStore struct {
	cached map[string]*driven.ProbeResult
	saved  []driven.ProbeResult
}

func (s *fakeProbeStore) Get(_ context.Context, url string, _ time.Duration) (*driven.ProbeResult, error) {
	return s.cached[url], nil
}

func (s *fakeProbeStore) Save(_ context.Context, result driven.ProbeResult) error {
	s.saved = append(s.saved, result)
	return nil
}

func (s *fakeProbeStore) PruneOlderThan(_ context.Context, _ time.Time) error {
	return nil
}

func lintFixture(t *testing.T) (*LintService, *memory.GuideStore) {
	t.Helper()
	store := memory.NewGuideStore()
	return NewLintService(store, nil, nil, "README.md", 0), store
}

func saveLintGuide(t *testing.T, store *memory.GuideStore, guide *domain.Guide) {
	t.Helper()
	if guide.Format == "" {
		guide.Format = domain.FormatMarkdown
	}
	if guide.SourceID == "" {
		guide.SourceID = "src-1"
	}
	require.NoError(t, store.SaveGuide(context.Background(), guide))
}

func issuesWithCode(list *domain.IssueList, code domain.IssueCode) []domain.Issue {
	var out []domain.Issue
	for _, issue := range list.Issues() {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

const cleanIndexContent = "# Frameworks\n\n" +
	"<!-- doctrine:frameworks -->\n" +
	"| Framework | Guide | Extends |\n" +
	"| --- | --- | --- |\n" +
	"| Gin 1.10 | [Gin Style Guide](go/gin.md) | [Go Style Guide](go/style.md) |\n" +
	"| Go | [Go Style Guide](go/style.md) |  |\n" +
	"<!-- /doctrine:frameworks -->\n"

func seedCleanCorpus(t *testing.T, store *memory.GuideStore) {
	t.Helper()
	saveLintGuide(t, store, &domain.Guide{
		Path: "README.md", Title: "Frameworks", Content: cleanIndexContent,
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/style.md", Title: "Go Style Guide", Framework: "Go",
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md", Title: "Gin Style Guide", Framework: "Gin",
		FrameworkVersion: "1.10", Extends: "go/style.md",
	})
}

func TestLint_CleanCorpus(t *testing.T) {
	svc, store := lintFixture(t)
	seedCleanCorpus(t, store)

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)
	assert.Zero(t, list.Len(), "issues: %v", list.Issues())
}

func TestLint_NilStore(t *testing.T) {
	svc := NewLintService(nil, nil, nil, "", 0)
	_, err := svc.Lint(context.Background(), driving.LintOptions{})
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestLint_LinkUnresolved(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md",
		Links: []domain.Link{
			{Kind: domain.LinkRelative, Line: 4, Target: "missing.md"},
			{Kind: domain.LinkRelative, Line: 9, Target: "diagram.png"},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueLinkUnresolved)
	require.Len(t, issues, 2)
	assert.Equal(t, domain.SeverityError, issues[0].Severity)
	assert.Equal(t, 4, issues[0].Line)
	assert.Contains(t, issues[0].Message, "go/missing.md")
	// Non-markdown targets may be unscanned assets.
	assert.Equal(t, domain.SeverityWarning, issues[1].Severity)
	assert.Contains(t, issues[1].Message, "go/diagram.png")
}

func TestLint_LinkEscapesCorpus(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "style.md",
		Links: []domain.Link{
			{Kind: domain.LinkRelative, Line: 2, Target: "../secrets.md"},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueLinkEscapesCorpus)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.SeverityError, issues[0].Severity)
	assert.Equal(t, "style.md", issues[0].GuidePath)
	assert.Contains(t, issues[0].Message, "../secrets.md")
}

func TestLint_AnchorMissing(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/style.md",
		Sections: []domain.Section{
			{Heading: "Errors", Anchor: "errors", Level: 2, Position: 1},
		},
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md",
		Sections: []domain.Section{
			{Heading: "Routing", Anchor: "routing", Level: 2, Position: 1},
		},
		Links: []domain.Link{
			// Same-document anchor that exists, then one that does not.
			{Kind: domain.LinkAnchor, Line: 3, Fragment: "routing"},
			{Kind: domain.LinkAnchor, Line: 5, Fragment: "middleware"},
			// Cross-document fragment that exists, then one that does not.
			{Kind: domain.LinkRelative, Line: 7, Target: "style.md", Fragment: "errors"},
			{Kind: domain.LinkRelative, Line: 9, Target: "style.md", Fragment: "naming"},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueAnchorMissing)
	require.Len(t, issues, 2)
	assert.Equal(t, 5, issues[0].Line)
	assert.Contains(t, issues[0].Message, "#middleware")
	assert.Equal(t, 9, issues[1].Line)
	assert.Contains(t, issues[1].Message, "go/style.md")
	assert.Contains(t, issues[1].Message, "#naming")
}

func TestLint_ReferenceHygiene(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "rust/axum.md",
		References: []domain.Reference{
			{Label: "^axum-docs", Kind: domain.RefDefinition, URL: "https://docs.rs/axum", Line: 20},
			{Label: "^axum-docs", Kind: domain.RefDefinition, URL: "https://docs.rs/axum", Line: 24},
			{Label: "^axum-docs", Kind: domain.RefUsage, Line: 5},
			{Label: "^tokio-docs", Kind: domain.RefUsage, Line: 8},
			{Label: "unused-spec", Kind: domain.RefDefinition, URL: "https://example.com", Line: 30},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	duplicates := issuesWithCode(list, domain.IssueRefDuplicate)
	require.Len(t, duplicates, 1)
	assert.Equal(t, domain.SeverityError, duplicates[0].Severity)
	assert.Equal(t, 24, duplicates[0].Line)
	assert.Contains(t, duplicates[0].Message, "first defined at line 20")

	undefined := issuesWithCode(list, domain.IssueRefUndefined)
	require.Len(t, undefined, 1)
	assert.Equal(t, 8, undefined[0].Line)
	assert.Contains(t, undefined[0].Message, "[^tokio-docs]")

	unused := issuesWithCode(list, domain.IssueRefUnused)
	require.Len(t, unused, 1)
	assert.Equal(t, domain.SeverityWarning, unused[0].Severity)
	assert.Equal(t, 30, unused[0].Line)
	assert.Contains(t, unused[0].Message, "[unused-spec]")
}

func TestLint_ExtendsMissing(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md", Extends: "go/style.md",
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "notes.txt", Format: domain.FormatPlain,
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "rust.md", Extends: "notes.txt",
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueExtendsMissing)
	require.Len(t, issues, 2)
	assert.Equal(t, "go/gin.md", issues[0].GuidePath)
	assert.Contains(t, issues[0].Message, "not in the corpus")
	assert.Equal(t, "rust.md", issues[1].GuidePath)
	assert.Contains(t, issues[1].Message, "not a markdown guide")
}

func TestLint_ExtendsCycle(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{Path: "a.md", Extends: "b.md"})
	saveLintGuide(t, store, &domain.Guide{Path: "b.md", Extends: "a.md"})
	saveLintGuide(t, store, &domain.Guide{Path: "c.md", Extends: "a.md"})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueExtendsCycle)
	require.Len(t, issues, 1, "a cycle is reported once, not per member")
	assert.Equal(t, domain.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "a.md -> b.md")
}

func TestLint_FrameworkDuplicate(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/a-gin.md", Framework: "Gin", FrameworkVersion: "1.10",
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/b-gin.md", Framework: "gin", FrameworkVersion: "1.10",
	})
	// A different version is a legitimate second guide.
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin-19.md", Framework: "Gin", FrameworkVersion: "1.9",
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueFrameworkDuplicate)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "go/b-gin.md", issues[0].GuidePath)
	assert.Contains(t, issues[0].Message, "go/a-gin.md")
}

func TestLint_IndexDocumentMissing(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{Path: "go/style.md", Framework: "Go"})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueIndexMissing)
	require.Len(t, issues, 1)
	assert.Empty(t, issues[0].GuidePath)
	assert.Contains(t, issues[0].Message, "src-1")
	assert.Contains(t, issues[0].Message, "README.md")
}

func TestLint_IndexTableMissing(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "README.md", Content: "# Frameworks\n\nNo table yet.\n",
	})
	saveLintGuide(t, store, &domain.Guide{Path: "go/style.md", Framework: "Go"})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueIndexMissing)
	require.Len(t, issues, 1)
	assert.Equal(t, "README.md", issues[0].GuidePath)
	assert.Contains(t, issues[0].Message, "no frameworks table")
}

func TestLint_GuideAbsentFromIndex(t *testing.T) {
	svc, store := lintFixture(t)
	seedCleanCorpus(t, store)
	saveLintGuide(t, store, &domain.Guide{
		Path: "rust/axum.md", Title: "Axum Style Guide", Framework: "Axum",
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueIndexMissing)
	require.Len(t, issues, 1)
	assert.Equal(t, "rust/axum.md", issues[0].GuidePath)
	assert.Contains(t, issues[0].Message, "README.md")
}

func TestLint_IndexStale(t *testing.T) {
	svc, store := lintFixture(t)
	staleIndex := "# Frameworks\n\n" +
		"<!-- doctrine:frameworks -->\n" +
		"| Framework | Guide | Extends |\n" +
		"| --- | --- | --- |\n" +
		"| Gin 1.9 | [Gin Style Guide](go/gin.md) |  |\n" +
		"| Echo | [Echo Style Guide](go/echo.md) |  |\n" +
		"<!-- /doctrine:frameworks -->\n"
	saveLintGuide(t, store, &domain.Guide{Path: "README.md", Content: staleIndex})
	saveLintGuide(t, store, &domain.Guide{Path: "go/style.md", Framework: "Go"})
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md", Framework: "Gin", FrameworkVersion: "1.10", Extends: "go/style.md",
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{
		Checks: []string{"index-stale"},
	})
	require.NoError(t, err)

	issues := issuesWithCode(list, domain.IssueIndexStale)
	require.Len(t, issues, 3)
	// The gin row disagrees on both framework and extends.
	assert.Equal(t, "README.md", issues[0].GuidePath)
	assert.Equal(t, 6, issues[0].Line)
	assert.Contains(t, issues[0].Message, `framework "Gin 1.9"`)
	assert.Equal(t, 6, issues[1].Line)
	assert.Contains(t, issues[1].Message, `extends ""`)
	// The echo row points at a guide no longer present.
	assert.Equal(t, 7, issues[2].Line)
	assert.Contains(t, issues[2].Message, "go/echo.md")
}

func TestLint_ChecksFilter(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md",
		Links: []domain.Link{
			{Kind: domain.LinkRelative, Line: 3, Target: "missing.md"},
		},
		References: []domain.Reference{
			{Label: "^gone", Kind: domain.RefUsage, Line: 6},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{
		Checks: []string{"ref"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, list.Len())
	assert.Equal(t, domain.IssueRefUndefined, list.Issues()[0].Code)
}

func TestLint_ProbeURLs(t *testing.T) {
	store := memory.NewGuideStore()
	prober := &fakeProber{
		results: []driven.ProbeResult{
			{URL: "https://docs.rs/axum", OK: true, StatusCode: 200, MissingFragments: []string{"extractors"}},
			{URL: "https://example.com/dead", OK: false, StatusCode: 404},
		},
	}
	probeStore := &fakeProbeStore{}
	svc := NewLintService(store, probeStore, prober, "README.md", time.Hour)

	saveLintGuide(t, store, &domain.Guide{
		Path: "rust/axum.md",
		Links: []domain.Link{
			{Kind: domain.LinkExternal, Line: 5, Target: "https://docs.rs/axum", Fragment: "extractors"},
		},
		References: []domain.Reference{
			{Label: "^dead", Kind: domain.RefDefinition, URL: "https://example.com/dead", Line: 9},
			{Label: "^dead", Kind: domain.RefUsage, Line: 3},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{
		ProbeURLs: true,
		Checks:    []string{"url"},
	})
	require.NoError(t, err)

	require.True(t, prober.called)
	require.Len(t, prober.gotTargets, 2)
	assert.Equal(t, "https://docs.rs/axum", prober.gotTargets[0].URL)
	assert.Equal(t, []string{"extractors"}, prober.gotTargets[0].Fragments)
	assert.Equal(t, "https://example.com/dead", prober.gotTargets[1].URL)

	unreachable := issuesWithCode(list, domain.IssueURLUnreachable)
	require.Len(t, unreachable, 1)
	assert.Equal(t, domain.SeverityWarning, unreachable[0].Severity)
	assert.Equal(t, 9, unreachable[0].Line)
	assert.Contains(t, unreachable[0].Message, "answered 404")

	anchors := issuesWithCode(list, domain.IssueURLAnchorMissing)
	require.Len(t, anchors, 1)
	assert.Equal(t, 5, anchors[0].Line)
	assert.Contains(t, anchors[0].Message, "#extractors")

	assert.Len(t, probeStore.saved, 2, "fresh verdicts are cached")
}

func TestLint_ProbeUsesCachedVerdict(t *testing.T) {
	store := memory.NewGuideStore()
	prober := &fakeProber{}
	probeStore := &fakeProbeStore{
		cached: map[string]*driven.ProbeResult{
			"https://example.com/dead": {URL: "https://example.com/dead", OK: false, StatusCode: 410},
		},
	}
	svc := NewLintService(store, probeStore, prober, "README.md", time.Hour)

	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md",
		Links: []domain.Link{
			{Kind: domain.LinkExternal, Line: 2, Target: "https://example.com/dead"},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{
		ProbeURLs: true,
		Checks:    []string{"url"},
	})
	require.NoError(t, err)

	assert.False(t, prober.called, "cache hit skips the network")
	issues := issuesWithCode(list, domain.IssueURLUnreachable)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "410")
}

func TestLint_NoProbingByDefault(t *testing.T) {
	store := memory.NewGuideStore()
	prober := &fakeProber{}
	svc := NewLintService(store, nil, prober, "README.md", 0)

	saveLintGuide(t, store, &domain.Guide{
		Path: "go/gin.md",
		Links: []domain.Link{
			{Kind: domain.LinkExternal, Line: 2, Target: "https://example.com"},
		},
	})

	_, err := svc.Lint(context.Background(), driving.LintOptions{})
	require.NoError(t, err)
	assert.False(t, prober.called)
}

func TestLint_SortedOutput(t *testing.T) {
	svc, store := lintFixture(t)
	saveLintGuide(t, store, &domain.Guide{
		Path: "z.md",
		Links: []domain.Link{
			{Kind: domain.LinkRelative, Line: 8, Target: "gone.md"},
			{Kind: domain.LinkRelative, Line: 2, Target: "gone.md"},
		},
	})
	saveLintGuide(t, store, &domain.Guide{
		Path: "a.md",
		Links: []domain.Link{
			{Kind: domain.LinkRelative, Line: 5, Target: "gone.md"},
		},
	})

	list, err := svc.Lint(context.Background(), driving.LintOptions{
		Checks: []string{"link"},
	})
	require.NoError(t, err)

	issues := list.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "a.md", issues[0].GuidePath)
	assert.Equal(t, "z.md", issues[1].GuidePath)
	assert.Equal(t, 2, issues[1].Line)
	assert.Equal(t, 8, issues[2].Line)
}
