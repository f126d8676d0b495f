package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welshwandering/doctrine/internal/adapters/driven/storage/memory"
	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/parsers"
	"github.com/welshwandering/doctrine/internal/parsers/markdown"
	"github.com/welshwandering/doctrine/internal/parsers/plaintext"
)

// fakeConnector scripts connector behaviour for orchestrator tests.
type fakeConnector struct {
	typ         string
	sourceID    string
	caps        driven.ConnectorCapabilities
	validateErr error

	fullDocs   []domain.RawDocument
	fullCursor string
	fullErr    error
	fullGate   chan struct{} // when set, FullSync waits on it before emitting

	incrChanges []domain.RawDocumentChange
	incrCursor  string
	incrErr     error
	gotCursor   string

	watchCh  chan domain.RawDocumentChange
	watchErr error

	closed bool
}

func (f *fakeConnector) Type() string {
	if f.typ == "" {
		return "fake"
	}
	return f.typ
}

func (f *fakeConnector) SourceID() string {
	return f.sourceID
}

func (f *fakeConnector) Capabilities() driven.ConnectorCapabilities {
	return f.caps
}

func (f *fakeConnector) Validate(_ context.Context) error {
	return f.validateErr
}

func (f *fakeConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)
	go func() {
		defer close(docs)
		defer close(errs)
		if f.fullGate != nil {
			select {
			case <-f.fullGate:
			case <-ctx.Done():
				return
			}
		}
		if f.fullErr != nil {
			errs <- f.fullErr
			return
		}
		for _, doc := range f.fullDocs {
			select {
			case docs <- doc:
			case <-ctx.Done():
				return
			}
		}
		if f.fullCursor != "" {
			errs <- &driven.SyncComplete{NewCursor: f.fullCursor}
		}
	}()
	return docs, errs
}

func (f *fakeConnector) IncrementalSync(ctx context.Context, cursor string) (<-chan domain.RawDocumentChange, <-chan error) {
	f.gotCursor = cursor
	changes := make(chan domain.RawDocumentChange)
	errs := make(chan error, 1)
	go func() {
		defer close(changes)
		defer close(errs)
		if f.incrErr != nil {
			errs <- f.incrErr
			return
		}
		for _, change := range f.incrChanges {
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
		if f.incrCursor != "" {
			errs <- &driven.SyncComplete{NewCursor: f.incrCursor}
		}
	}()
	return changes, errs
}

func (f *fakeConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return f.watchCh, nil
}

func (f *fakeConnector) Close() error {
	f.closed = true
	return nil
}

// fakeFactory hands out scripted connectors, optionally per source.
type fakeFactory struct {
	connector  driven.Connector
	connectors map[string]driven.Connector
	err        error
}

func (f *fakeFactory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.connectors[source.ID]; ok {
		return c, nil
	}
	return f.connector, nil
}

func (f *fakeFactory) Register(_ string, _ driven.ConnectorBuilder) {}

func (f *fakeFactory) SupportedTypes() []string { return nil }

type scanFixture struct {
	orchestrator *ScanOrchestrator
	sourceStore  *memory.SourceStore
	syncStore    *memory.SyncStateStore
	guideStore   *memory.GuideStore
	engine       *fakeSearchEngine
	factory      *fakeFactory
}

func newScanFixture(t *testing.T, connector driven.Connector) *scanFixture {
	t.Helper()

	registry := parsers.NewRegistry()
	registry.Register(markdown.New())
	registry.Register(plaintext.New())

	fx := &scanFixture{
		sourceStore: memory.NewSourceStore(),
		syncStore:   memory.NewSyncStateStore(),
		guideStore:  memory.NewGuideStore(),
		engine:      &fakeSearchEngine{},
		factory:     &fakeFactory{connector: connector},
	}
	fx.orchestrator = NewScanOrchestrator(
		fx.sourceStore,
		fx.syncStore,
		fx.guideStore,
		fx.factory,
		registry,
		fx.engine,
	)
	require.NoError(t, fx.sourceStore.Save(context.Background(), filesystemTestSource("src-1", "guides")))
	return fx
}

func rawMarkdown(path, content string) domain.RawDocument {
	return domain.RawDocument{
		SourceID:      "src-1",
		ConnectorType: domain.ConnectorFilesystem,
		Path:          path,
		MIMEType:      "text/markdown",
		Content:       []byte(content),
	}
}

func fullCaps() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsCursorReturn: true,
	}
}

func TestScanOrchestrator_Scan_Full(t *testing.T) {
	connector := &fakeConnector{
		caps: fullCaps(),
		fullDocs: []domain.RawDocument{
			rawMarkdown("go/style.md", "# Go Style Guide\n\nUse gofmt.\n"),
			rawMarkdown("go/gin.md", "# Gin Style Guide\n\nExtends [Go](style.md).\n"),
		},
		fullCursor: "tree-1",
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	guides, err := fx.guideStore.ListGuides(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, guides, 2)
	assert.Equal(t, "go/gin.md", guides[0].Path)
	assert.Equal(t, "Gin Style Guide", guides[0].Title)
	assert.Len(t, fx.engine.indexed, 2)
	assert.True(t, connector.closed)

	state, err := fx.syncStore.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "tree-1", state.Cursor)
	assert.Empty(t, state.LastError)
	assert.False(t, state.LastSyncAt.IsZero())
}

func TestScanOrchestrator_Scan_SourceNotFound(t *testing.T) {
	fx := newScanFixture(t, &fakeConnector{caps: fullCaps()})

	err := fx.orchestrator.Scan(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScanOrchestrator_Scan_FactoryError(t *testing.T) {
	fx := newScanFixture(t, &fakeConnector{caps: fullCaps()})
	fx.factory.err = errors.New("no builder")

	err := fx.orchestrator.Scan(context.Background(), "src-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create connector")
}

func TestScanOrchestrator_Scan_ValidationFails(t *testing.T) {
	connector := &fakeConnector{
		caps:        fullCaps(),
		validateErr: domain.ErrConnectorValidation,
	}
	fx := newScanFixture(t, connector)

	err := fx.orchestrator.Scan(context.Background(), "src-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectorValidation)
}

func TestScanOrchestrator_Scan_ConnectorErrorRecorded(t *testing.T) {
	connector := &fakeConnector{
		caps:    fullCaps(),
		fullErr: errors.New("tree walk exploded"),
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	err := fx.orchestrator.Scan(ctx, "src-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connector error")

	state, err := fx.syncStore.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Contains(t, state.LastError, "tree walk exploded")
	assert.Empty(t, state.Cursor)
}

func TestScanOrchestrator_Scan_FailurePreservesCursor(t *testing.T) {
	connector := &fakeConnector{
		caps:    fullCaps(),
		incrErr: errors.New("API exploded"),
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	require.NoError(t, fx.syncStore.Save(ctx, domain.SyncState{SourceID: "src-1", Cursor: "tree-1"}))

	err := fx.orchestrator.Scan(ctx, "src-1")
	require.Error(t, err)

	state, err := fx.syncStore.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "tree-1", state.Cursor)
	assert.Contains(t, state.LastError, "API exploded")
}

func TestScanOrchestrator_Scan_WatermarkFallback(t *testing.T) {
	// No SyncComplete from the connector; the orchestrator records the
	// scan start time as the cursor.
	connector := &fakeConnector{
		caps:     fullCaps(),
		fullDocs: []domain.RawDocument{rawMarkdown("go/style.md", "# Go Style Guide\n")},
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	before := time.Now().UnixNano()
	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))
	after := time.Now().UnixNano()

	state, err := fx.syncStore.Get(ctx, "src-1")
	require.NoError(t, err)
	watermark, err := strconv.ParseInt(state.Cursor, 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, watermark, before)
	assert.LessOrEqual(t, watermark, after)
}

func TestScanOrchestrator_Scan_IncrementalUsesSavedCursor(t *testing.T) {
	connector := &fakeConnector{
		caps: fullCaps(),
		incrChanges: []domain.RawDocumentChange{
			{Type: domain.ChangeUpdated, Document: rawMarkdown("go/style.md", "# Go Style Guide\n\nRevised.\n")},
		},
		incrCursor: "tree-2",
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	require.NoError(t, fx.syncStore.Save(ctx, domain.SyncState{SourceID: "src-1", Cursor: "tree-1"}))

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	assert.Equal(t, "tree-1", connector.gotCursor)

	guide, err := fx.guideStore.GetGuideByPath(ctx, "src-1", "go/style.md")
	require.NoError(t, err)
	assert.Contains(t, guide.Content, "Revised")

	state, err := fx.syncStore.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "tree-2", state.Cursor)
}

func TestScanOrchestrator_Scan_IncrementalDelete(t *testing.T) {
	fx := newScanFixture(t, nil)
	ctx := context.Background()

	stored := &domain.Guide{SourceID: "src-1", Path: "go/old.md", Title: "Old"}
	require.NoError(t, fx.guideStore.SaveGuide(ctx, stored))

	connector := &fakeConnector{
		caps: fullCaps(),
		incrChanges: []domain.RawDocumentChange{
			{Type: domain.ChangeDeleted, Document: domain.RawDocument{SourceID: "src-1", Path: "go/old.md"}},
		},
		incrCursor: "tree-2",
	}
	fx.factory.connector = connector
	require.NoError(t, fx.syncStore.Save(ctx, domain.SyncState{SourceID: "src-1", Cursor: "tree-1"}))

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	_, err := fx.guideStore.GetGuideByPath(ctx, "src-1", "go/old.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, fx.engine.deleted, stored.ID)
}

func TestScanOrchestrator_Scan_FullPrunesMissingGuides(t *testing.T) {
	fx := newScanFixture(t, nil)
	ctx := context.Background()

	stale := &domain.Guide{SourceID: "src-1", Path: "go/removed.md", Title: "Removed"}
	require.NoError(t, fx.guideStore.SaveGuide(ctx, stale))

	connector := &fakeConnector{
		caps:     fullCaps(),
		fullDocs: []domain.RawDocument{rawMarkdown("go/style.md", "# Go Style Guide\n")},
	}
	fx.factory.connector = connector

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	guides, err := fx.guideStore.ListGuides(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "go/style.md", guides[0].Path)
	assert.Contains(t, fx.engine.deleted, stale.ID)
}

func TestScanOrchestrator_Scan_SnapshotIncrementalPrunes(t *testing.T) {
	fx := newScanFixture(t, nil)
	ctx := context.Background()

	kept := &domain.Guide{SourceID: "src-1", Path: "go/style.md", Title: "Go Style", Checksum: "stale"}
	gone := &domain.Guide{SourceID: "src-1", Path: "go/removed.md", Title: "Removed"}
	require.NoError(t, fx.guideStore.SaveGuide(ctx, kept))
	require.NoError(t, fx.guideStore.SaveGuide(ctx, gone))

	connector := &fakeConnector{
		caps: driven.ConnectorCapabilities{
			SupportsIncremental:   true,
			SupportsCursorReturn:  true,
			IncrementalIsSnapshot: true,
		},
		incrChanges: []domain.RawDocumentChange{
			{Type: domain.ChangeUpdated, Document: rawMarkdown("go/style.md", "# Go Style Guide\n")},
		},
		incrCursor: "sha-2",
	}
	fx.factory.connector = connector
	require.NoError(t, fx.syncStore.Save(ctx, domain.SyncState{SourceID: "src-1", Cursor: "sha-1"}))

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	guides, err := fx.guideStore.ListGuides(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "go/style.md", guides[0].Path)
}

func TestScanOrchestrator_Scan_DeltaIncrementalKeepsUnseen(t *testing.T) {
	// A filesystem-style delta only carries changed files; silence about
	// a path must not prune it.
	fx := newScanFixture(t, nil)
	ctx := context.Background()

	unchanged := &domain.Guide{SourceID: "src-1", Path: "go/untouched.md", Title: "Untouched"}
	require.NoError(t, fx.guideStore.SaveGuide(ctx, unchanged))

	connector := &fakeConnector{
		caps: fullCaps(),
		incrChanges: []domain.RawDocumentChange{
			{Type: domain.ChangeUpdated, Document: rawMarkdown("go/style.md", "# Go Style Guide\n")},
		},
		incrCursor: "200",
	}
	fx.factory.connector = connector
	require.NoError(t, fx.syncStore.Save(ctx, domain.SyncState{SourceID: "src-1", Cursor: "100"}))

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	guides, err := fx.guideStore.ListGuides(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, guides, 2)
}

func TestScanOrchestrator_Scan_UnchangedGuideNotReindexed(t *testing.T) {
	connector := &fakeConnector{
		caps:     fullCaps(),
		fullDocs: []domain.RawDocument{rawMarkdown("go/style.md", "# Go Style Guide\n\nUse gofmt.\n")},
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))
	require.Len(t, fx.engine.indexed, 1)

	require.NoError(t, fx.orchestrator.FullScan(ctx, "src-1"))

	// Second scan sees an identical checksum and skips the rewrite.
	assert.Len(t, fx.engine.indexed, 1)
}

func TestScanOrchestrator_Scan_UnparseableFileSkipped(t *testing.T) {
	connector := &fakeConnector{
		caps: fullCaps(),
		fullDocs: []domain.RawDocument{
			{SourceID: "src-1", Path: "logo.pdf", MIMEType: "application/pdf", Content: []byte("%PDF")},
			rawMarkdown("go/style.md", "# Go Style Guide\n"),
		},
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	// A file nothing can parse is skipped, not fatal.
	require.NoError(t, fx.orchestrator.Scan(ctx, "src-1"))

	guides, err := fx.guideStore.ListGuides(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "go/style.md", guides[0].Path)
}

func TestScanOrchestrator_Scan_InProgress(t *testing.T) {
	gate := make(chan struct{})
	connector := &fakeConnector{
		caps:     fullCaps(),
		fullDocs: []domain.RawDocument{rawMarkdown("go/style.md", "# Go Style Guide\n")},
		fullGate: gate,
	}
	fx := newScanFixture(t, connector)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- fx.orchestrator.Scan(ctx, "src-1")
	}()

	require.Eventually(t, func() bool {
		status, err := fx.orchestrator.Status(ctx, "src-1")
		return err == nil && status.Running
	}, 2*time.Second, 5*time.Millisecond)

	err := fx.orchestrator.Scan(ctx, "src-1")
	assert.ErrorIs(t, err, domain.ErrScanInProgress)

	close(gate)
	require.NoError(t, <-done)

	status, err := fx.orchestrator.Status(ctx, "src-1")
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestScanOrchestrator_ScanAll(t *testing.T) {
	good := &fakeConnector{
		caps:     fullCaps(),
		fullDocs: []domain.RawDocument{rawMarkdown("go/style.md", "# Go Style Guide\n")},
	}
	bad := &fakeConnector{
		caps:    fullCaps(),
		fullErr: errors.New("unreachable"),
	}
	fx := newScanFixture(t, good)
	ctx := context.Background()

	second := filesystemTestSource("src-2", "more-guides")
	require.NoError(t, fx.sourceStore.Save(ctx, second))
	fx.factory.connectors = map[string]driven.Connector{
		"src-1": good,
		"src-2": bad,
	}

	err := fx.orchestrator.ScanAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan src-2")

	// The healthy source still got scanned.
	guides, listErr := fx.guideStore.ListGuides(ctx, "src-1")
	require.NoError(t, listErr)
	assert.Len(t, guides, 1)
}

func TestScanOrchestrator_Status_Idle(t *testing.T) {
	fx := newScanFixture(t, &fakeConnector{caps: fullCaps()})

	status, err := fx.orchestrator.Status(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, "src-1", status.SourceID)
	assert.False(t, status.Running)
	assert.Zero(t, status.GuidesProcessed)
}

func TestScanOrchestrator_Watch_NotSupported(t *testing.T) {
	connector := &fakeConnector{
		caps: driven.ConnectorCapabilities{SupportsIncremental: true},
	}
	fx := newScanFixture(t, connector)

	err := fx.orchestrator.Watch(context.Background(), "src-1")
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestScanOrchestrator_Watch_ProcessesChanges(t *testing.T) {
	watchCh := make(chan domain.RawDocumentChange)
	connector := &fakeConnector{
		caps: driven.ConnectorCapabilities{
			SupportsIncremental:  true,
			SupportsWatch:        true,
			SupportsCursorReturn: true,
		},
		fullDocs: []domain.RawDocument{rawMarkdown("go/style.md", "# Go Style Guide\n")},
		watchCh:  watchCh,
	}
	fx := newScanFixture(t, connector)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fx.orchestrator.Watch(ctx, "src-1")
	}()

	// The initial scan catalogues the existing corpus.
	require.Eventually(t, func() bool {
		_, err := fx.guideStore.GetGuideByPath(context.Background(), "src-1", "go/style.md")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	watchCh <- domain.RawDocumentChange{
		Type:     domain.ChangeCreated,
		Document: rawMarkdown("go/new.md", "# New Guide\n"),
	}
	require.Eventually(t, func() bool {
		_, err := fx.guideStore.GetGuideByPath(context.Background(), "src-1", "go/new.md")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	watchCh <- domain.RawDocumentChange{
		Type:     domain.ChangeDeleted,
		Document: domain.RawDocument{SourceID: "src-1", Path: "go/style.md"},
	}
	require.Eventually(t, func() bool {
		_, err := fx.guideStore.GetGuideByPath(context.Background(), "src-1", "go/style.md")
		return errors.Is(err, domain.ErrNotFound)
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestScanOrchestrator_Watch_ChannelClosed(t *testing.T) {
	watchCh := make(chan domain.RawDocumentChange)
	connector := &fakeConnector{
		caps: driven.ConnectorCapabilities{
			SupportsIncremental:  true,
			SupportsWatch:        true,
			SupportsCursorReturn: true,
		},
		watchCh: watchCh,
	}
	fx := newScanFixture(t, connector)

	done := make(chan error, 1)
	go func() {
		done <- fx.orchestrator.Watch(context.Background(), "src-1")
	}()

	require.Eventually(t, func() bool {
		status, err := fx.orchestrator.Status(context.Background(), "src-1")
		return err == nil && status.Running
	}, 2*time.Second, 5*time.Millisecond)

	close(watchCh)
	assert.NoError(t, <-done)
}
