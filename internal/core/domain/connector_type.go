package domain

// ConnectorType identifies a connector implementation.
type ConnectorType string

const (
	// ConnectorFilesystem scans a local directory tree.
	ConnectorFilesystem ConnectorType = "filesystem"

	// ConnectorGitHub scans a GitHub repository tree.
	ConnectorGitHub ConnectorType = "github"
)

// Valid reports whether the connector type is known.
func (c ConnectorType) Valid() bool {
	switch c {
	case ConnectorFilesystem, ConnectorGitHub:
		return true
	}
	return false
}

// String returns the type as a plain string.
func (c ConnectorType) String() string {
	return string(c)
}

// ConfigKey names one connector-specific setting on a Source.
type ConfigKey string

const (
	// ConfigKeyPath is the corpus root directory (filesystem).
	ConfigKeyPath ConfigKey = "path"

	// ConfigKeyPatterns is a comma-separated list of filename globs to
	// include (filesystem). Defaults to Markdown extensions.
	ConfigKeyPatterns ConfigKey = "patterns"

	// ConfigKeyOwner is the repository owner (github).
	ConfigKeyOwner ConfigKey = "owner"

	// ConfigKeyRepo is the repository name (github).
	ConfigKeyRepo ConfigKey = "repo"

	// ConfigKeyBranch is the branch to scan (github). Defaults to the
	// repository's default branch.
	ConfigKeyBranch ConfigKey = "branch"

	// ConfigKeyRootDir restricts the scan to a subdirectory of the
	// repository (github).
	ConfigKeyRootDir ConfigKey = "root_dir"
)
