package services

import (
	"context"
	"sync"
	"time"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
	"github.com/welshwandering/doctrine/internal/logger"
)

// schedulerTick is how often the scheduler looks for due tasks.
const schedulerTick = 1 * time.Minute

// historyKeep is how many results are retained per task.
const historyKeep = 100

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs recurring background tasks: incremental corpus scans
// and re-probing of expired external URL verdicts. Task state lives in
// the scheduler store so intervals survive restarts.
type Scheduler struct {
	settings   domain.Settings
	store      driven.SchedulerStore
	scans      driving.ScanOrchestrator
	linter     driving.LintService
	probeStore driven.ProbeStore

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. Task intervals and the link-probe
// switch come from settings.
func NewScheduler(
	settings domain.Settings,
	store driven.SchedulerStore,
	scans driving.ScanOrchestrator,
	linter driving.LintService,
	probeStore driven.ProbeStore,
) *Scheduler {
	return &Scheduler{
		settings:   settings,
		store:      store,
		scans:      scans,
		linter:     linter,
		probeStore: probeStore,
	}
}

// Start begins the scheduler loop. Blocks until the context is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("Failed to initialise scheduled tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures the standing tasks exist in the store with
// the configured intervals.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if err := s.ensureTask(ctx, domain.TaskCorpusScan, s.settings.ScanInterval, true); err != nil {
		return err
	}
	return s.ensureTask(ctx, domain.TaskLinkProbe, s.settings.ProbeInterval, s.settings.ProbeEnabled)
}

// ensureTask creates or updates a corpus-wide task. The task ID is the
// task type; per-source tasks carry a suffixed ID and are left alone.
func (s *Scheduler) ensureTask(ctx context.Context, taskType domain.TaskType, interval time.Duration, enabled bool) error {
	id := string(taskType)
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Type:     taskType,
			Interval: interval,
			Enabled:  enabled,
			NextRun:  time.Now().Add(interval),
		}
	} else {
		if task.Interval != interval {
			task.Interval = interval
			task.NextRun = time.Now().Add(interval)
		}
		task.Enabled = enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(schedulerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks launches every task that is due. A task is
// rescheduled before it runs, so a slow run cannot be double-fired by
// the next tick.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("Failed to list scheduled tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := tasks[i]
		if !task.Due(now) {
			continue
		}

		task.Reschedule(now)
		if err := s.store.SaveTask(ctx, &task); err != nil {
			logger.Warn("Failed to reschedule task %s: %v", task.ID, err)
			continue
		}
		s.runTask(ctx, task)
	}
}

// runTask executes a single task in the background.
func (s *Scheduler) runTask(ctx context.Context, task domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		logger.Debug("Running scheduled task %s", task.ID)
		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.Type {
		case domain.TaskCorpusScan:
			result.ItemsProcessed, err = s.runCorpusScan(ctx, task.SourceID)
		case domain.TaskLinkProbe:
			result.ItemsProcessed, err = s.runLinkProbe(ctx)
		default:
			logger.Warn("Unknown task type %s for task %s", task.Type, task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Warn("Scheduled task %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		if saveErr := s.store.SaveTask(ctx, &task); saveErr != nil {
			logger.Warn("Failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("Failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
			logger.Warn("Failed to prune task history: %v", pruneErr)
		}
	}()
}

// runCorpusScan re-scans one source, or every source for the standing
// corpus-wide task.
//
//nolint:unparam // itemsProcessed stays 0 until scans report counts
func (s *Scheduler) runCorpusScan(ctx context.Context, sourceID string) (int, error) {
	if s.scans == nil {
		return 0, nil
	}
	if sourceID != "" {
		return 0, s.scans.Scan(ctx, sourceID)
	}
	return 0, s.scans.ScanAll(ctx)
}

// runLinkProbe drops long-expired verdicts from the probe cache and
// re-checks external URLs through the lint URL pass. Fresh verdicts
// are served from cache, so only expired URLs hit the network.
func (s *Scheduler) runLinkProbe(ctx context.Context) (int, error) {
	if s.probeStore != nil {
		cutoff := time.Now().Add(-2 * s.settings.ProbeTTL)
		if err := s.probeStore.PruneOlderThan(ctx, cutoff); err != nil {
			logger.Warn("Failed to prune probe cache: %v", err)
		}
	}

	if s.linter == nil {
		return 0, nil
	}
	list, err := s.linter.Lint(ctx, driving.LintOptions{
		ProbeURLs: true,
		Checks:    []string{"url"},
	})
	if err != nil {
		return 0, err
	}
	return list.Len(), nil
}
