package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
	"github.com/welshwandering/doctrine/internal/logger"
)

// Ensure ScanOrchestrator implements the interface.
var _ driving.ScanOrchestrator = (*ScanOrchestrator)(nil)

// ScanOrchestrator coordinates guide ingestion. It pulls raw corpus
// files from connectors, parses them into guides, and keeps the guide
// store and the search index in step with the corpus.
type ScanOrchestrator struct {
	sourceStore  driven.SourceStore
	syncStore    driven.SyncStateStore
	guideStore   driven.GuideStore
	factory      driven.ConnectorFactory
	parsers      driven.ParserRegistry
	searchEngine driven.SearchEngine

	// Status tracking
	mu          sync.RWMutex
	activeScans map[string]*driving.ScanStatus
}

// NewScanOrchestrator creates a new scan orchestrator.
func NewScanOrchestrator(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	guideStore driven.GuideStore,
	factory driven.ConnectorFactory,
	parsers driven.ParserRegistry,
	searchEngine driven.SearchEngine,
) *ScanOrchestrator {
	return &ScanOrchestrator{
		sourceStore:  sourceStore,
		syncStore:    syncStore,
		guideStore:   guideStore,
		factory:      factory,
		parsers:      parsers,
		searchEngine: searchEngine,
		activeScans:  make(map[string]*driving.ScanStatus),
	}
}

// Scan triggers a scan for a source. Incremental when the connector
// supports it and a cursor from an earlier scan exists, full otherwise.
func (o *ScanOrchestrator) Scan(ctx context.Context, sourceID string) error {
	return o.scan(ctx, sourceID, false)
}

// FullScan forces a full re-scan for a source, ignoring any saved
// cursor.
func (o *ScanOrchestrator) FullScan(ctx context.Context, sourceID string) error {
	return o.scan(ctx, sourceID, true)
}

//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *ScanOrchestrator) scan(ctx context.Context, sourceID string, force bool) error {
	// 1. Get source configuration
	source, err := o.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}

	// 2. Create connector from source
	if o.factory == nil {
		return errors.New("create connector: connector factory not configured")
	}
	connector, err := o.factory.Create(ctx, *source)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	// 3. Validate connector (configuration, auth, connectivity)
	if err := connector.Validate(ctx); err != nil {
		return fmt.Errorf("validate connector: %w", err)
	}

	// 4. The saved cursor decides the strategy unless a full scan is
	// forced
	var syncState *domain.SyncState
	if !force {
		syncState, err = o.syncStore.Get(ctx, sourceID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get sync state: %w", err)
		}
	}

	// 5. Initialise status tracking
	status, err := o.beginScan(sourceID)
	if err != nil {
		return err
	}
	defer o.clearStatus(sourceID)

	logger.Info("Starting scan for source %s", sourceID)
	startedAt := time.Now()

	// 6. Choose scan strategy based on connector capabilities
	caps := connector.Capabilities()
	incremental := caps.SupportsIncremental && syncState != nil && syncState.Cursor != ""

	var newCursor string
	var seen map[string]bool

	if incremental {
		changesCh, errsCh := connector.IncrementalSync(ctx, syncState.Cursor)
		newCursor, seen, err = o.processChanges(ctx, source, changesCh, errsCh, status)
	} else {
		docsCh, errsCh := connector.FullSync(ctx)
		newCursor, seen, err = o.processDocuments(ctx, source, docsCh, errsCh, status)
		// The filesystem connector leaves the watermark to the
		// orchestrator: the walk start time, so edits made while the
		// scan ran land in the next incremental pass.
		if err == nil && newCursor == "" && caps.SupportsCursorReturn {
			newCursor = fmt.Sprintf("%d", startedAt.UnixNano())
		}
	}

	if err != nil {
		o.recordFailure(ctx, sourceID, err)
		return err
	}

	// 7. Prune guides that disappeared from the corpus. A full scan is
	// a complete snapshot; an incremental one only when the connector
	// flags it as such and actually delivered changes.
	if !incremental || (caps.IncrementalIsSnapshot && len(seen) > 0) {
		if err := o.reconcileDeletions(ctx, sourceID, seen, status); err != nil {
			o.recordFailure(ctx, sourceID, err)
			return err
		}
	}

	// 8. Update sync state with the new cursor
	newState := domain.SyncState{
		SourceID:   sourceID,
		Cursor:     newCursor,
		LastSyncAt: time.Now(),
	}
	if err := o.syncStore.Save(ctx, newState); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}

	o.mu.Lock()
	status.Running = false
	processed, errCount := status.GuidesProcessed, status.ErrorCount
	o.mu.Unlock()

	logger.Info("Scan complete: %d guides, %d errors", processed, errCount)
	return nil
}

// ScanAll triggers a scan for all configured sources.
func (o *ScanOrchestrator) ScanAll(ctx context.Context) error {
	sources, err := o.sourceStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var errs []error
	for _, source := range sources {
		if err := o.Scan(ctx, source.ID); err != nil {
			errs = append(errs, fmt.Errorf("scan %s: %w", source.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Watch follows a source for changes, re-parsing guides as they
// change, until the context is cancelled. The corpus is scanned once
// up front so the watch starts from a current catalog.
func (o *ScanOrchestrator) Watch(ctx context.Context, sourceID string) error {
	source, err := o.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}

	if o.factory == nil {
		return errors.New("create connector: connector factory not configured")
	}
	connector, err := o.factory.Create(ctx, *source)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if !connector.Capabilities().SupportsWatch {
		return fmt.Errorf("%w: %s sources cannot be watched", domain.ErrNotImplemented, connector.Type())
	}

	if err := o.scan(ctx, sourceID, false); err != nil {
		return err
	}

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	status, err := o.beginScan(sourceID)
	if err != nil {
		return err
	}
	defer o.clearStatus(sourceID)

	logger.Info("Watching source %s", sourceID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			o.applyChange(ctx, source, change, status)
		}
	}
}

// Status returns scan status for a source.
func (o *ScanOrchestrator) Status(_ context.Context, sourceID string) (*driving.ScanStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeScans[sourceID]; ok {
		// Return a copy to avoid race conditions
		return &driving.ScanStatus{
			SourceID:        status.SourceID,
			Running:         status.Running,
			GuidesProcessed: status.GuidesProcessed,
			ErrorCount:      status.ErrorCount,
		}, nil
	}

	// Not running - return idle status
	return &driving.ScanStatus{
		SourceID: sourceID,
		Running:  false,
	}, nil
}

// processDocuments handles a full scan. Returns the cursor from
// SyncComplete if the connector provides one, and the set of corpus
// paths seen, for deletion reconciliation.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (o *ScanOrchestrator) processDocuments(
	ctx context.Context,
	source *domain.Source,
	docsCh <-chan domain.RawDocument,
	errsCh <-chan error,
	status *driving.ScanStatus,
) (string, map[string]bool, error) {
	var newCursor string
	seen := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			// Check if this is a SyncComplete (successful completion with cursor)
			if sc, isSyncComplete := driven.IsSyncComplete(err); isSyncComplete {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", nil, fmt.Errorf("connector error: %w", err)
			}

		case rawDoc, ok := <-docsCh:
			if !ok {
				return newCursor, seen, nil // Done - channel closed
			}

			// A file that fails to parse stays marked as seen, so a
			// previously good version is not pruned over one bad edit.
			seen[rawDoc.Path] = true

			logger.Debug("Processing: %s", rawDoc.Path)
			if err := o.processOneGuide(ctx, source, &rawDoc); err != nil {
				o.markError(status)
				if errors.Is(err, domain.ErrUnsupportedType) {
					logger.Debug("Skipping %s: %v", rawDoc.Path, err)
				} else {
					logger.Debug("Failed to process %s: %v", rawDoc.Path, err)
				}
				continue
			}
			o.markProcessed(status)
		}
	}
}

// processChanges handles an incremental scan. Returns the cursor from
// SyncComplete if the connector provides one, and the set of corpus
// paths delivered as created or updated.
func (o *ScanOrchestrator) processChanges(
	ctx context.Context,
	source *domain.Source,
	changesCh <-chan domain.RawDocumentChange,
	errsCh <-chan error,
	status *driving.ScanStatus,
) (string, map[string]bool, error) {
	var newCursor string
	seen := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			// Check if this is a SyncComplete (successful completion with cursor)
			if sc, isSyncComplete := driven.IsSyncComplete(err); isSyncComplete {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", nil, fmt.Errorf("connector error: %w", err)
			}

		case change, ok := <-changesCh:
			if !ok {
				return newCursor, seen, nil // Done - channel closed
			}
			if change.Type != domain.ChangeDeleted {
				seen[change.Document.Path] = true
			}
			o.applyChange(ctx, source, change, status)
		}
	}
}

// applyChange routes one change event to the parse pipeline or the
// delete path. Failures are counted and logged; they do not stop the
// scan.
func (o *ScanOrchestrator) applyChange(
	ctx context.Context,
	source *domain.Source,
	change domain.RawDocumentChange,
	status *driving.ScanStatus,
) {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		logger.Debug("Processing: %s", change.Document.Path)
		if err := o.processOneGuide(ctx, source, &change.Document); err != nil {
			o.markError(status)
			if errors.Is(err, domain.ErrUnsupportedType) {
				logger.Debug("Skipping %s: %v", change.Document.Path, err)
			} else {
				logger.Debug("Failed to process %s: %v", change.Document.Path, err)
			}
			return
		}

	case domain.ChangeDeleted:
		logger.Debug("Deleting: %s", change.Document.Path)
		if err := o.deleteGuideByPath(ctx, source.ID, change.Document.Path); err != nil {
			o.markError(status)
			logger.Debug("Failed to delete %s: %v", change.Document.Path, err)
			return
		}
	}
	o.markProcessed(status)
}

// processOneGuide runs one corpus file through the parse pipeline.
func (o *ScanOrchestrator) processOneGuide(ctx context.Context, source *domain.Source, raw *domain.RawDocument) error {
	// 1. PARSE (produces a guide with sections, links, and references)
	result, err := o.parsers.Parse(ctx, raw)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	guide := &result.Guide
	guide.SourceID = source.ID

	// 2. SKIP UNCHANGED (a checksum match means the stored parse is current)
	if existing, err := o.guideStore.GetGuideByPath(ctx, source.ID, guide.Path); err == nil {
		if existing.Checksum == guide.Checksum {
			return nil
		}
	}

	// 3. SAVE TO GUIDE STORE
	if err := o.guideStore.SaveGuide(ctx, guide); err != nil {
		return fmt.Errorf("save guide: %w", err)
	}

	// 4. INDEX FOR FULL-TEXT SEARCH
	if err := o.searchEngine.Index(ctx, guide); err != nil {
		return fmt.Errorf("index guide: %w", err)
	}

	return nil
}

// deleteGuideByPath removes a guide and its index entries by path.
func (o *ScanOrchestrator) deleteGuideByPath(ctx context.Context, sourceID, path string) error {
	guide, err := o.guideStore.GetGuideByPath(ctx, sourceID, path)
	if errors.Is(err, domain.ErrNotFound) {
		// Might have been deleted already
		return nil
	}
	if err != nil {
		return fmt.Errorf("get guide: %w", err)
	}

	if err := o.searchEngine.Delete(ctx, guide.ID); err != nil {
		logger.Debug("Failed to delete index entries for %s: %v", path, err)
	}
	if err := o.guideStore.DeleteGuide(ctx, guide.ID); err != nil {
		return fmt.Errorf("delete guide: %w", err)
	}
	return nil
}

// reconcileDeletions prunes stored guides whose paths were absent from
// a snapshot scan.
func (o *ScanOrchestrator) reconcileDeletions(
	ctx context.Context,
	sourceID string,
	seen map[string]bool,
	status *driving.ScanStatus,
) error {
	stored, err := o.guideStore.ListGuides(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("list guides: %w", err)
	}

	for i := range stored {
		if seen[stored[i].Path] {
			continue
		}
		logger.Debug("Pruning: %s", stored[i].Path)
		if err := o.deleteGuideByPath(ctx, sourceID, stored[i].Path); err != nil {
			o.markError(status)
			logger.Debug("Failed to prune %s: %v", stored[i].Path, err)
		}
	}
	return nil
}

// recordFailure notes a failed scan in sync state without touching the
// saved cursor, so source listings can surface what went wrong.
func (o *ScanOrchestrator) recordFailure(ctx context.Context, sourceID string, scanErr error) {
	state, err := o.syncStore.Get(ctx, sourceID)
	if err != nil {
		state = &domain.SyncState{SourceID: sourceID}
	}
	state.LastError = scanErr.Error()
	//nolint:errcheck // Recording the failure must not mask the scan error
	_ = o.syncStore.Save(ctx, *state)
}

// beginScan registers live status for a source. Fails when a scan or
// watch is already active for it.
func (o *ScanOrchestrator) beginScan(sourceID string) (*driving.ScanStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.activeScans[sourceID]; ok && existing.Running {
		return nil, domain.ErrScanInProgress
	}
	status := &driving.ScanStatus{SourceID: sourceID, Running: true}
	o.activeScans[sourceID] = status
	return status, nil
}

// clearStatus removes the scan status for a source.
func (o *ScanOrchestrator) clearStatus(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeScans, sourceID)
}

// markProcessed bumps the processed counter under the status lock, so
// Status can be polled while a scan runs.
func (o *ScanOrchestrator) markProcessed(status *driving.ScanStatus) {
	o.mu.Lock()
	status.GuidesProcessed++
	o.mu.Unlock()
}

// markError bumps the error counter under the status lock.
func (o *ScanOrchestrator) markError(status *driving.ScanStatus) {
	o.mu.Lock()
	status.ErrorCount++
	o.mu.Unlock()
}
