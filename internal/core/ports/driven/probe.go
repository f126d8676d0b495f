package driven

import (
	"context"
	"time"
)

// ProbeTarget is one external URL to check, with the anchors the
// corpus expects to find in the page.
type ProbeTarget struct {
	// URL is the external destination without any fragment.
	URL string

	// Fragments are the distinct #anchors the corpus links to on this
	// URL. Empty when only reachability matters.
	Fragments []string
}

// ProbeResult is the verdict for one external URL.
type ProbeResult struct {
	// URL is the probed destination.
	URL string

	// OK indicates the URL answered with a success status.
	OK bool

	// StatusCode is the final HTTP status, 0 on transport failure.
	StatusCode int

	// MissingFragments lists requested anchors not present in the page.
	MissingFragments []string

	// Error describes a transport failure, empty otherwise.
	Error string

	// CheckedAt is when the probe ran.
	CheckedAt time.Time
}

// LinkProber checks external URLs for reachability and anchors.
// Implementations bound concurrency and per-host request rates.
type LinkProber interface {
	// ProbeAll checks the given targets and returns one result per
	// target. Individual failures are reported in the results, not as
	// an error; the error covers context cancellation only.
	ProbeAll(ctx context.Context, targets []ProbeTarget) ([]ProbeResult, error)
}

// ProbeStore caches external URL verdicts so repeated lint runs don't
// hammer remote sites.
type ProbeStore interface {
	// Get returns the cached verdict for a URL if it is newer than
	// maxAge. Returns nil and no error on a miss.
	Get(ctx context.Context, url string, maxAge time.Duration) (*ProbeResult, error)

	// Save stores or replaces the verdict for a URL.
	Save(ctx context.Context, result ProbeResult) error

	// PruneOlderThan removes verdicts checked before the cutoff.
	PruneOlderThan(ctx context.Context, cutoff time.Time) error
}
