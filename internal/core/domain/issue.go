package domain

import (
	"fmt"
	"sort"
)

// IssueCode identifies a class of corpus problem found by lint checks.
type IssueCode string

const (
	// IssueLinkUnresolved is a relative link whose target file does not
	// exist in the corpus.
	IssueLinkUnresolved IssueCode = "link-unresolved"

	// IssueLinkEscapesCorpus is a relative link that climbs above the
	// corpus root.
	IssueLinkEscapesCorpus IssueCode = "link-escapes-corpus"

	// IssueAnchorMissing is a link whose fragment names a heading that
	// does not exist in the target guide.
	IssueAnchorMissing IssueCode = "anchor-missing"

	// IssueRefUndefined is a reference usage with no matching definition.
	IssueRefUndefined IssueCode = "ref-undefined"

	// IssueRefDuplicate is a reference label defined more than once in
	// the same guide.
	IssueRefDuplicate IssueCode = "ref-duplicate"

	// IssueRefUnused is a reference definition no usage cites.
	IssueRefUnused IssueCode = "ref-unused"

	// IssueExtendsMissing is an extends declaration pointing at a guide
	// that is not in the corpus.
	IssueExtendsMissing IssueCode = "extends-missing"

	// IssueExtendsCycle is an extends chain that loops back on itself.
	IssueExtendsCycle IssueCode = "extends-cycle"

	// IssueFrameworkDuplicate is two guides claiming the same framework
	// at the same version.
	IssueFrameworkDuplicate IssueCode = "framework-duplicate"

	// IssueIndexMissing is a guide absent from the catalog table in the
	// index document.
	IssueIndexMissing IssueCode = "index-missing"

	// IssueIndexStale is a catalog table row that no longer matches the
	// guide it describes, or that lists a guide no longer present.
	IssueIndexStale IssueCode = "index-stale"

	// IssueURLUnreachable is an external link whose URL did not answer
	// with a success status.
	IssueURLUnreachable IssueCode = "url-unreachable"

	// IssueURLAnchorMissing is an external link whose #fragment does
	// not appear as an id in the fetched page.
	IssueURLAnchorMissing IssueCode = "url-anchor-missing"
)

// Severity ranks how serious an issue is.
type Severity string

const (
	// SeverityError fails a lint run.
	SeverityError Severity = "error"

	// SeverityWarning is reported but does not fail the run.
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in the corpus, pinned to a file and line.
type Issue struct {
	// Code identifies the class of problem.
	Code IssueCode

	// Severity ranks the issue.
	Severity Severity

	// GuidePath is the corpus-relative path of the offending guide.
	// Empty for corpus-level issues such as a missing index document.
	GuidePath string

	// Line is the 1-based source line, or 0 when not applicable.
	Line int

	// Message is the human-readable description.
	Message string
}

// Error implements the error interface.
func (i Issue) Error() string {
	switch {
	case i.GuidePath == "":
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	case i.Line == 0:
		return fmt.Sprintf("%s: %s: %s", i.GuidePath, i.Code, i.Message)
	default:
		return fmt.Sprintf("%s:%d: %s: %s", i.GuidePath, i.Line, i.Code, i.Message)
	}
}

// IssueList aggregates issues from a lint run.
type IssueList struct {
	issues []Issue
}

// NewIssueList returns an empty list.
func NewIssueList() *IssueList {
	return &IssueList{}
}

// Add appends one issue.
func (l *IssueList) Add(issue Issue) {
	l.issues = append(l.issues, issue)
}

// AddAll appends every issue from another list.
func (l *IssueList) AddAll(other *IssueList) {
	if other == nil {
		return
	}
	l.issues = append(l.issues, other.issues...)
}

// Issues returns the collected issues sorted by path, line, then code.
func (l *IssueList) Issues() []Issue {
	out := make([]Issue, len(l.issues))
	copy(out, l.issues)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].GuidePath != out[b].GuidePath {
			return out[a].GuidePath < out[b].GuidePath
		}
		if out[a].Line != out[b].Line {
			return out[a].Line < out[b].Line
		}
		return out[a].Code < out[b].Code
	})
	return out
}

// Len returns the number of collected issues.
func (l *IssueList) Len() int {
	return len(l.issues)
}

// Errors returns how many issues are errors.
func (l *IssueList) Errors() int {
	n := 0
	for _, i := range l.issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings returns how many issues are warnings.
func (l *IssueList) Warnings() int {
	return len(l.issues) - l.Errors()
}

// HasErrors reports whether any issue is an error.
func (l *IssueList) HasErrors() bool {
	return l.Errors() > 0
}
