package github

import (
	"context"
	"encoding/base64"
	"path"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/logger"
)

// maxBlobSize is the largest file fetched from a repository. Guides
// are text; anything bigger than this is not one.
const maxBlobSize = 1024 * 1024

// FetchGuides retrieves the guide files reachable under the configured
// root directory at the given branch. It returns the raw documents and
// the tree SHA, which callers use as the sync cursor.
func FetchGuides(ctx context.Context, client *Client, cfg *Config, branch string) ([]domain.RawDocument, string, error) {
	tree, err := client.GetTree(ctx, cfg.Owner, cfg.Repo, branch)
	if err != nil {
		return nil, "", err
	}
	docs, err := guidesFromTree(ctx, client, cfg, tree)
	return docs, tree.GetSHA(), err
}

// guidesFromTree filters a recursive tree listing down to guide files
// and fetches their blobs.
func guidesFromTree(ctx context.Context, client *Client, cfg *Config, tree *gh.Tree) ([]domain.RawDocument, error) {
	docs := make([]domain.RawDocument, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if ctx.Err() != nil {
			return docs, ctx.Err()
		}
		if entry.GetType() != "blob" {
			continue
		}

		rel, ok := relToRoot(entry.GetPath(), cfg.RootDir)
		if !ok {
			continue
		}
		if isHiddenPath(rel) || !matchesPatterns(rel, cfg.Patterns) {
			continue
		}
		if entry.GetSize() > maxBlobSize {
			logger.Debug("github: skipping %s: larger than %d bytes", rel, maxBlobSize)
			continue
		}

		content, err := fetchBlobContent(ctx, client, cfg.Owner, cfg.Repo, entry.GetSHA())
		if err != nil {
			logger.Debug("github: skipping %s: %v", rel, err)
			continue
		}

		docs = append(docs, domain.RawDocument{
			ConnectorType: domain.ConnectorGitHub,
			Path:          rel,
			MIMEType:      mimeForPath(rel),
			Content:       content,
		})
	}

	return docs, nil
}

// fetchBlobContent fetches the content of a blob and decodes it.
func fetchBlobContent(ctx context.Context, client *Client, owner, repo, sha string) ([]byte, error) {
	blob, err := client.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}

	if blob.GetEncoding() == "base64" {
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		return base64.StdEncoding.DecodeString(content)
	}

	return []byte(blob.GetContent()), nil
}

// relToRoot reports the path relative to the configured root
// directory, and whether the path lies under it at all.
func relToRoot(p, rootDir string) (string, bool) {
	if rootDir == "" {
		return p, true
	}
	rel := strings.TrimPrefix(p, rootDir+"/")
	return rel, rel != p
}

// isHiddenPath reports whether any segment of the path is hidden.
func isHiddenPath(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// matchesPatterns checks if a path matches any of the glob patterns.
// Patterns match against the file name and against the full relative
// path.
func matchesPatterns(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, path.Base(p)); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

func mimeForPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
