// Package filesystem provides the connector for style guide corpora
// that live on local disk. It walks a root directory for files that
// match the configured glob patterns, tracks changes with a
// modification-time watermark cursor, and can watch the tree for live
// edits via fsnotify.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/logger"
)

// DefaultPatterns are the filename globs scanned when a source does not
// configure its own.
var DefaultPatterns = []string{"*.md", "*.markdown"}

// Connector scans a local directory tree for guide files.
type Connector struct {
	sourceID string
	rootPath string
	patterns []string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

var _ driven.Connector = (*Connector)(nil)

// New creates a filesystem connector rooted at rootPath. When patterns
// is empty the connector falls back to DefaultPatterns.
func New(sourceID, rootPath string, patterns []string) *Connector {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
		patterns: patterns,
	}
}

// ParsePatterns parses a comma-separated glob patterns string as it
// appears in source config. Returns nil for an empty string so New
// falls back to DefaultPatterns.
func ParsePatterns(s string) []string {
	var patterns []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			patterns = append(patterns, part)
		}
	}
	return patterns
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.ConnectorFilesystem.String()
}

// SourceID returns the source this connector scans for.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities describes what the filesystem connector supports. It
// has no cursor to return from a full scan, so the orchestrator
// records its own watermark when one completes.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        true,
		RequiresAuth:         false,
		SupportsCursorReturn: true,
		SupportsRateLimiting: false,
	}
}

// Validate checks that the root path exists, is a directory, and that
// every configured pattern is well formed.
func (c *Connector) Validate(ctx context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("%w: root path %s does not exist", domain.ErrConnectorValidation, c.rootPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path %s is not a directory", domain.ErrConnectorValidation, c.rootPath)
	}
	for _, pattern := range c.patterns {
		if _, err := path.Match(pattern, "probe.md"); err != nil {
			return fmt.Errorf("%w: invalid pattern %q", domain.ErrConnectorValidation, pattern)
		}
	}
	return nil
}

// FullSync walks the whole tree and emits every matching file. The
// connector does not emit a cursor here; modification times observed
// after the scan started would be missed by a watermark taken from the
// files themselves.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if _, err := os.Stat(c.rootPath); err != nil {
			errs <- fmt.Errorf("root path %s does not exist: %w", c.rootPath, err)
			return
		}

		err := c.walk(ctx, func(p string, info fs.FileInfo) error {
			doc, err := c.readDocument(p, info)
			if err != nil {
				logger.Debug("filesystem: skipping %s: %v", p, err)
				return nil
			}
			select {
			case docs <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return docs, errs
}

// IncrementalSync emits files modified since the watermark carried in
// cursor, then reports the new watermark via SyncComplete. An empty
// cursor behaves like a full listing.
func (c *Connector) IncrementalSync(ctx context.Context, cursor string) (<-chan domain.RawDocumentChange, <-chan error) {
	changes := make(chan domain.RawDocumentChange)
	errs := make(chan error, 1)

	var since int64
	if cursor != "" {
		parsed, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			go func() {
				defer close(changes)
				defer close(errs)
				errs <- fmt.Errorf("invalid cursor format: %q", cursor)
			}()
			return changes, errs
		}
		since = parsed
	}

	go func() {
		defer close(changes)
		defer close(errs)

		if _, err := os.Stat(c.rootPath); err != nil {
			errs <- fmt.Errorf("root path %s does not exist: %w", c.rootPath, err)
			return
		}

		watermark := since
		err := c.walk(ctx, func(p string, info fs.FileInfo) error {
			mod := info.ModTime().UnixNano()
			if mod > watermark {
				watermark = mod
			}
			if since > 0 && mod <= since {
				return nil
			}
			doc, err := c.readDocument(p, info)
			if err != nil {
				logger.Debug("filesystem: skipping %s: %v", p, err)
				return nil
			}
			change := domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc}
			if since == 0 {
				change.Type = domain.ChangeCreated
			}
			select {
			case changes <- change:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			errs <- err
			return
		}
		if ctx.Err() != nil {
			return
		}
		errs <- &driven.SyncComplete{NewCursor: strconv.FormatInt(watermark, 10)}
	}()

	return changes, errs
}

// Watch emits changes as files are created, modified, or removed under
// the root. The channel closes when ctx is cancelled or the connector
// is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("watch: %w", domain.ErrConnectorClosed)
	}
	c.mu.Unlock()

	if _, err := os.Stat(c.rootPath); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := c.addWatchDirs(watcher); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("root path error: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, fmt.Errorf("watch: %w", domain.ErrConnectorClosed)
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange)

	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change, ok := c.handleEvent(watcher, event)
				if !ok {
					continue
				}
				select {
				case changes <- change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem watch: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops any active watcher. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

// handleEvent converts a single fsnotify event into a document change.
// Directory creations extend the watch set instead of producing one.
func (c *Connector) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.RawDocumentChange, bool) {
	name := filepath.Base(event.Name)

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !isHidden(name) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("filesystem watch: adding %s: %v", event.Name, err)
				}
			}
			return domain.RawDocumentChange{}, false
		}
	}

	if isHidden(name) || !c.matches(name) {
		return domain.RawDocumentChange{}, false
	}

	rel, err := c.relPath(event.Name)
	if err != nil {
		return domain.RawDocumentChange{}, false
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		return domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID:      c.sourceID,
				ConnectorType: domain.ConnectorFilesystem,
				Path:          rel,
			},
		}, true
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return domain.RawDocumentChange{}, false
		}
		doc, err := c.readDocument(event.Name, info)
		if err != nil {
			logger.Debug("filesystem watch: reading %s: %v", event.Name, err)
			return domain.RawDocumentChange{}, false
		}
		changeType := domain.ChangeUpdated
		if event.Op.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return domain.RawDocumentChange{Type: changeType, Document: doc}, true
	default:
		return domain.RawDocumentChange{}, false
	}
}

// walk visits every matching file under the root, skipping hidden
// files and directories.
func (c *Connector) walk(ctx context.Context, visit func(p string, info fs.FileInfo) error) error {
	return filepath.WalkDir(c.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if p != c.rootPath && isHidden(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name) || !c.matches(name) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return visit(p, info)
	})
}

// addWatchDirs registers the root and every visible subdirectory with
// the watcher.
func (c *Connector) addWatchDirs(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(c.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// readDocument loads a file into a raw document with its path relative
// to the corpus root.
func (c *Connector) readDocument(p string, info fs.FileInfo) (domain.RawDocument, error) {
	rel, err := c.relPath(p)
	if err != nil {
		return domain.RawDocument{}, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return domain.RawDocument{}, err
	}
	return domain.RawDocument{
		SourceID:      c.sourceID,
		ConnectorType: domain.ConnectorFilesystem,
		Path:          rel,
		MIMEType:      mimeForPath(p),
		Content:       content,
		ModifiedAt:    info.ModTime(),
	}, nil
}

// relPath converts an absolute path to a slash-separated path relative
// to the corpus root.
func (c *Connector) relPath(p string) (string, error) {
	rel, err := filepath.Rel(c.rootPath, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// matches reports whether a file name matches one of the configured
// patterns.
func (c *Connector) matches(name string) bool {
	for _, pattern := range c.patterns {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func mimeForPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
