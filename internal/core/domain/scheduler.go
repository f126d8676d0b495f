package domain

import "time"

// TaskType identifies a background task kind.
type TaskType string

const (
	// TaskCorpusScan re-scans a source incrementally.
	TaskCorpusScan TaskType = "corpus-scan"

	// TaskLinkProbe re-checks external URLs whose cached verdicts
	// have expired.
	TaskLinkProbe TaskType = "link-probe"
)

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Type identifies what the task does.
	Type TaskType

	// SourceID scopes the task to one source, empty for corpus-wide
	// tasks such as link probing.
	SourceID string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// Due reports whether the task should run at the given time.
// Disabled tasks are never due.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Reschedule advances NextRun past now by whole intervals, so a task
// that missed several slots runs once rather than catching up.
func (t *ScheduledTask) Reschedule(now time.Time) {
	if t.Interval <= 0 {
		return
	}
	next := t.NextRun
	if next.IsZero() {
		next = now
	}
	for !next.After(now) {
		next = next.Add(t.Interval)
	}
	t.NextRun = next
	t.LastRun = now
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled, e.g. guides scanned
	// or URLs probed.
	ItemsProcessed int
}
