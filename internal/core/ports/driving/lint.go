package driving

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// LintService runs corpus checks: link resolution, anchor targets,
// reference hygiene, extends relations, framework uniqueness, and
// index freshness.
type LintService interface {
	// Lint runs the configured checks and returns every issue found.
	Lint(ctx context.Context, opts LintOptions) (*domain.IssueList, error)
}

// LintOptions selects what to check.
type LintOptions struct {
	// SourceID limits checks to one source's guides. Empty checks the
	// whole corpus.
	SourceID string

	// ProbeURLs enables external URL reachability checks. Off by
	// default; probing needs the network and respects cached verdicts.
	ProbeURLs bool

	// Checks names the issue-code prefixes to run, e.g. "link", "ref",
	// "extends", "index", "url". Empty runs everything except URL
	// probing, which stays behind ProbeURLs.
	Checks []string
}
