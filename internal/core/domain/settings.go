package domain

import "time"

// Settings are the user-level configuration values persisted in the
// config file and addressed by flattened dot-keys, e.g.
// `doctrine settings set probe.timeout 5s`.
type Settings struct {
	// GitHubToken is a personal access token for GitHub sources.
	// The DOCTRINE_GITHUB_TOKEN environment variable takes precedence.
	GitHubToken string

	// IndexFile is the corpus-relative path of the frameworks index
	// document.
	IndexFile string

	// SearchLimit is the default number of search hits returned when a
	// caller does not ask for a specific limit.
	SearchLimit int

	// ScanInterval is how often the background scheduler re-scans
	// sources.
	ScanInterval time.Duration

	// ProbeEnabled turns on external URL checks during lint runs.
	ProbeEnabled bool

	// ProbeTimeout bounds each external URL request.
	ProbeTimeout time.Duration

	// ProbeTTL is how long an external URL verdict stays cached before
	// the link prober re-checks it.
	ProbeTTL time.Duration

	// ProbeConcurrency caps parallel external URL requests.
	ProbeConcurrency int

	// ProbeInterval is how often the background scheduler re-probes
	// expired URL verdicts.
	ProbeInterval time.Duration
}

// DefaultSettings returns the settings used before the user configures
// anything.
func DefaultSettings() Settings {
	return Settings{
		IndexFile:        "README.md",
		SearchLimit:      20,
		ScanInterval:     15 * time.Minute,
		ProbeTimeout:     10 * time.Second,
		ProbeTTL:         24 * time.Hour,
		ProbeConcurrency: 8,
		ProbeInterval:    6 * time.Hour,
	}
}
