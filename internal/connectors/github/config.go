package github

import (
	"fmt"
	"strings"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// DefaultPatterns are the filename globs scanned when a source does not
// configure its own.
var DefaultPatterns = []string{"*.md", "*.markdown"}

// Config holds the parsed configuration for a GitHub source.
type Config struct {
	// Owner is the repository owner (user or organisation).
	Owner string

	// Repo is the repository name.
	Repo string

	// Branch is the branch to scan. Empty means the repository's
	// default branch.
	Branch string

	// RootDir restricts the scan to a subdirectory of the repository.
	// Empty means the repository root. Paths are slash-separated and
	// relative; guide paths are reported relative to this directory.
	RootDir string

	// Patterns are filename globs for guide files.
	Patterns []string
}

// ParseConfig parses a source's config map into a Config struct.
// Owner and repo are required; everything else is optional.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		Owner:   strings.TrimSpace(source.Config[domain.ConfigKeyOwner]),
		Repo:    strings.TrimSpace(source.Config[domain.ConfigKeyRepo]),
		Branch:  strings.TrimSpace(source.Config[domain.ConfigKeyBranch]),
		RootDir: normaliseRootDir(source.Config[domain.ConfigKeyRootDir]),
	}

	if cfg.Owner == "" {
		return nil, fmt.Errorf("%w: github source requires %q", domain.ErrInvalidInput, domain.ConfigKeyOwner)
	}
	if cfg.Repo == "" {
		return nil, fmt.Errorf("%w: github source requires %q", domain.ErrInvalidInput, domain.ConfigKeyRepo)
	}

	cfg.Patterns = DefaultPatterns
	if patterns, ok := source.Config[domain.ConfigKeyPatterns]; ok && patterns != "" {
		cfg.Patterns = parsePatterns(patterns)
	}

	return cfg, nil
}

// parsePatterns parses a comma-separated glob patterns string.
func parsePatterns(s string) []string {
	parts := strings.Split(s, ",")
	patterns := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			patterns = append(patterns, part)
		}
	}
	return patterns
}

// normaliseRootDir trims slashes so the prefix comparison in the tree
// walk works regardless of how the user wrote the directory.
func normaliseRootDir(s string) string {
	return strings.Trim(strings.TrimSpace(s), "/")
}
