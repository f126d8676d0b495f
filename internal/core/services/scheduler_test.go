package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu      sync.RWMutex
	tasks   map[string]*domain.ScheduledTask
	results map[string][]domain.TaskResult
	saveErr error
	listErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return nil
}

func (m *mockSchedulerStore) recordedResults(taskID string) []domain.TaskResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TaskResult{}, m.results[taskID]...)
}

// mockScanOrchestrator implements driving.ScanOrchestrator for testing.
type mockScanOrchestrator struct {
	mu            sync.Mutex
	scanned       []string
	scanAllCalled bool
	scanAllErr    error
}

func (m *mockScanOrchestrator) Scan(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanned = append(m.scanned, sourceID)
	return nil
}

func (m *mockScanOrchestrator) ScanAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanAllCalled = true
	return m.scanAllErr
}

func (m *mockScanOrchestrator) FullScan(_ context.Context, _ string) error {
	return nil
}

func (m *mockScanOrchestrator) Watch(_ context.Context, _ string) error {
	return nil
}

func (m *mockScanOrchestrator) Status(_ context.Context, _ string) (*driving.ScanStatus, error) {
	return &driving.ScanStatus{}, nil
}

func (m *mockScanOrchestrator) calledScanAll() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanAllCalled
}

func (m *mockScanOrchestrator) scannedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.scanned...)
}

// mockLinter implements driving.LintService for testing.
type mockLinter struct {
	mu      sync.Mutex
	called  bool
	gotOpts driving.LintOptions
	list    *domain.IssueList
	err     error
}

func (m *mockLinter) Lint(_ context.Context, opts driving.LintOptions) (*domain.IssueList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called = true
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.list == nil {
		return domain.NewIssueList(), nil
	}
	return m.list, nil
}

func (m *mockLinter) wasCalled() (bool, driving.LintOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called, m.gotOpts
}

var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.ScanOrchestrator = (*mockScanOrchestrator)(nil)
var _ driving.LintService = (*mockLinter)(nil)

func TestNewScheduler(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSettings(), newMockSchedulerStore(), &mockScanOrchestrator{}, &mockLinter{}, nil)
	require.NotNil(t, scheduler)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSettings(), newMockSchedulerStore(), &mockScanOrchestrator{}, &mockLinter{}, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StartCancelledContext(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSettings(), newMockSchedulerStore(), &mockScanOrchestrator{}, &mockLinter{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSettings(), newMockSchedulerStore(), &mockScanOrchestrator{}, &mockLinter{}, nil)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSettings(), newMockSchedulerStore(), &mockScanOrchestrator{}, &mockLinter{}, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)

	// Second start returns immediately without a second loop.
	require.NoError(t, scheduler.Start(context.Background()))

	require.NoError(t, scheduler.Stop())
	<-errCh
}

func TestScheduler_NilStore(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSettings(), nil, nil, nil, nil)
	assert.ErrorIs(t, scheduler.Start(context.Background()), domain.ErrNotImplemented)
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ProbeEnabled = true
	store := newMockSchedulerStore()
	scheduler := NewScheduler(settings, store, &mockScanOrchestrator{}, &mockLinter{}, nil)
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	scanTask, err := store.GetTask(ctx, string(domain.TaskCorpusScan))
	require.NoError(t, err)
	require.NotNil(t, scanTask)
	assert.Equal(t, domain.TaskCorpusScan, scanTask.Type)
	assert.Equal(t, settings.ScanInterval, scanTask.Interval)
	assert.True(t, scanTask.Enabled)
	assert.True(t, scanTask.NextRun.After(time.Now()), "first run waits one interval")

	probeTask, err := store.GetTask(ctx, string(domain.TaskLinkProbe))
	require.NoError(t, err)
	require.NotNil(t, probeTask)
	assert.Equal(t, domain.TaskLinkProbe, probeTask.Type)
	assert.Equal(t, settings.ProbeInterval, probeTask.Interval)
	assert.True(t, probeTask.Enabled)
}

func TestScheduler_InitialiseTasks_ProbeDisabled(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSettings(), store, &mockScanOrchestrator{}, &mockLinter{}, nil)
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	probeTask, err := store.GetTask(ctx, string(domain.TaskLinkProbe))
	require.NoError(t, err)
	require.NotNil(t, probeTask)
	assert.False(t, probeTask.Enabled)
}

func TestScheduler_InitialiseTasks_UpdatesInterval(t *testing.T) {
	store := newMockSchedulerStore()
	ctx := context.Background()

	first := domain.DefaultSettings()
	require.NoError(t, NewScheduler(first, store, nil, nil, nil).initialiseTasks(ctx))

	second := domain.DefaultSettings()
	second.ScanInterval = 2 * time.Hour
	require.NoError(t, NewScheduler(second, store, nil, nil, nil).initialiseTasks(ctx))

	task, err := store.GetTask(ctx, string(domain.TaskCorpusScan))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, task.Interval)
}

func TestScheduler_RunsDueCorpusScan(t *testing.T) {
	store := newMockSchedulerStore()
	scans := &mockScanOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSettings(), store, scans, &mockLinter{}, nil)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       string(domain.TaskCorpusScan),
		Type:     domain.TaskCorpusScan,
		Interval: time.Hour,
		NextRun:  now.Add(-time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.True(t, scans.calledScanAll())

	task, err := store.GetTask(ctx, string(domain.TaskCorpusScan))
	require.NoError(t, err)
	assert.True(t, task.NextRun.After(now), "task is rescheduled")
	assert.False(t, task.LastRun.IsZero())
	assert.False(t, task.LastSuccess.IsZero())
	assert.Empty(t, task.LastError)

	results := store.recordedResults(string(domain.TaskCorpusScan))
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestScheduler_SkipsTasksNotDue(t *testing.T) {
	store := newMockSchedulerStore()
	scans := &mockScanOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSettings(), store, scans, &mockLinter{}, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       string(domain.TaskCorpusScan),
		Type:     domain.TaskCorpusScan,
		Interval: time.Hour,
		NextRun:  time.Now().Add(time.Hour),
		Enabled:  true,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       "corpus-scan:src-9",
		Type:     domain.TaskCorpusScan,
		SourceID: "src-9",
		Interval: time.Hour,
		NextRun:  time.Now().Add(-time.Minute),
		Enabled:  false,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.False(t, scans.calledScanAll())
	assert.Empty(t, scans.scannedIDs())
}

func TestScheduler_PerSourceScanTask(t *testing.T) {
	store := newMockSchedulerStore()
	scans := &mockScanOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSettings(), store, scans, &mockLinter{}, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       "corpus-scan:src-1",
		Type:     domain.TaskCorpusScan,
		SourceID: "src-1",
		Interval: time.Hour,
		NextRun:  time.Now().Add(-time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, []string{"src-1"}, scans.scannedIDs())
	assert.False(t, scans.calledScanAll())
}

func TestScheduler_RecordsTaskFailure(t *testing.T) {
	store := newMockSchedulerStore()
	scans := &mockScanOrchestrator{scanAllErr: errors.New("connector offline")}
	scheduler := NewScheduler(domain.DefaultSettings(), store, scans, &mockLinter{}, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       string(domain.TaskCorpusScan),
		Type:     domain.TaskCorpusScan,
		Interval: time.Hour,
		NextRun:  time.Now().Add(-time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	task, err := store.GetTask(ctx, string(domain.TaskCorpusScan))
	require.NoError(t, err)
	assert.Contains(t, task.LastError, "connector offline")
	assert.True(t, task.LastSuccess.IsZero())

	results := store.recordedResults(string(domain.TaskCorpusScan))
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "connector offline")
}

func TestScheduler_LinkProbeTask(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ProbeEnabled = true
	settings.ProbeTTL = time.Hour

	store := newMockSchedulerStore()
	issues := domain.NewIssueList()
	issues.Add(domain.Issue{Code: domain.IssueURLUnreachable, Severity: domain.SeverityWarning})
	issues.Add(domain.Issue{Code: domain.IssueURLAnchorMissing, Severity: domain.SeverityWarning})
	linter := &mockLinter{list: issues}
	probeStore := &fakeProbeStore{}

	scheduler := NewScheduler(settings, store, &mockScanOrchestrator{}, linter, probeStore)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       string(domain.TaskLinkProbe),
		Type:     domain.TaskLinkProbe,
		Interval: settings.ProbeInterval,
		NextRun:  time.Now().Add(-time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	called, opts := linter.wasCalled()
	require.True(t, called)
	assert.True(t, opts.ProbeURLs)
	assert.Equal(t, []string{"url"}, opts.Checks)

	results := store.recordedResults(string(domain.TaskLinkProbe))
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].ItemsProcessed)
}

func TestScheduler_UnknownTaskType(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSettings(), store, nil, nil, nil)
	ctx := context.Background()

	scheduler.runTask(ctx, domain.ScheduledTask{
		ID:      "mystery",
		Type:    "mystery",
		Enabled: true,
	})
	scheduler.wg.Wait()

	assert.Empty(t, store.recordedResults("mystery"))
}
