// Package github provides the connector for style guide corpora kept
// in a GitHub repository. It reads the repository tree through the
// REST API, so a corpus can be scanned without a local clone. The tree
// SHA doubles as the sync cursor: when it has not moved since the last
// scan, nothing is fetched.
package github

import (
	"context"
	"fmt"
	"sync"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

var _ driven.Connector = (*Connector)(nil)

// Connector fetches guides from a single GitHub repository.
type Connector struct {
	sourceID string
	config   *Config
	client   *Client

	mu     sync.Mutex
	closed bool
}

// New creates a GitHub connector for one repository.
func New(sourceID string, cfg *Config, tokenProvider driven.TokenProvider) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		client:   NewClient(tokenProvider),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.ConnectorGitHub.String()
}

// SourceID returns the source this connector scans for.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities describes what the GitHub connector supports. There is
// no watch; the API has no push channel a CLI could subscribe to.
// Incremental scans redeliver the whole tree when the SHA moves, so
// they are flagged as snapshots.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:   true,
		SupportsWatch:         false,
		RequiresAuth:          true,
		SupportsCursorReturn:  true,
		IncrementalIsSnapshot: true,
		SupportsRateLimiting:  true,
	}
}

// Validate checks the token and that the configured repository is
// accessible.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	// Anonymous access is legitimate for public repositories, so the
	// credential check only runs when a token is configured.
	if c.client.Authenticated() {
		if err := c.client.ValidateCredentials(ctx); err != nil {
			if IsUnauthorized(err) {
				return fmt.Errorf("%w: token rejected", domain.ErrConnectorValidation)
			}
			return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
		}
	}

	if _, err := c.client.GetRepository(ctx, c.config.Owner, c.config.Repo); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: repository %s/%s not found",
				domain.ErrConnectorValidation, c.config.Owner, c.config.Repo)
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}

	return nil
}

// FullSync fetches every guide file in the repository tree.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errs <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		branch, err := c.resolveBranch(ctx)
		if err != nil {
			errs <- fmt.Errorf("resolve branch: %w", err)
			return
		}

		fetched, treeSHA, err := FetchGuides(ctx, c.client, c.config, branch)
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("fetch guides: %w", err)
			}
			return
		}

		for _, doc := range fetched {
			doc.SourceID = c.sourceID
			select {
			case docs <- doc:
			case <-ctx.Done():
				return
			}
		}

		errs <- &driven.SyncComplete{NewCursor: treeSHA}
	}()

	return docs, errs
}

// IncrementalSync compares the current tree SHA against the cursor.
// An unchanged tree costs a single API call; a changed tree refetches
// every guide, since the tree listing alone cannot say which guides
// moved.
func (c *Connector) IncrementalSync(ctx context.Context, cursor string) (<-chan domain.RawDocumentChange, <-chan error) {
	changes := make(chan domain.RawDocumentChange)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errs <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		branch, err := c.resolveBranch(ctx)
		if err != nil {
			errs <- fmt.Errorf("resolve branch: %w", err)
			return
		}

		tree, err := c.client.GetTree(ctx, c.config.Owner, c.config.Repo, branch)
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("get tree: %w", err)
			}
			return
		}

		if tree.GetSHA() == cursor {
			errs <- &driven.SyncComplete{NewCursor: cursor}
			return
		}

		fetched, err := guidesFromTree(ctx, c.client, c.config, tree)
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("fetch guides: %w", err)
			}
			return
		}

		for _, doc := range fetched {
			doc.SourceID = c.sourceID
			select {
			case changes <- domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc}:
			case <-ctx.Done():
				return
			}
		}

		errs <- &driven.SyncComplete{NewCursor: tree.GetSHA()}
	}()

	return changes, errs
}

// Watch is not supported; the REST API offers no push channel.
func (c *Connector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, domain.ErrNotImplemented
}

// Close releases resources. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// resolveBranch returns the configured branch, or the repository's
// default branch when none is configured.
func (c *Connector) resolveBranch(ctx context.Context) (string, error) {
	if c.config.Branch != "" {
		return c.config.Branch, nil
	}
	repo, err := c.client.GetRepository(ctx, c.config.Owner, c.config.Repo)
	if err != nil {
		return "", err
	}
	return repo.GetDefaultBranch(), nil
}
