// Package event defines lifecycle events for decoupling loom components.
// The runner publishes run and task progress, the watch engine publishes
// trigger events, and consumers (console output, logging) subscribe without
// direct dependencies on either.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.started", "watch.triggered")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunStartedEvent is emitted when a top-level run begins, after its task
// sequence has been resolved.
type RunStartedEvent struct {
	baseEvent
	Target string   // Requested task name
	Order  []string // Resolved execution order, prerequisites first
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(target string, order []string) RunStartedEvent {
	return RunStartedEvent{
		baseEvent: newBaseEvent("run.started"),
		Target:    target,
		Order:     order,
	}
}

// RunFinishedEvent is emitted when a run completes, whether or not it
// succeeded.
type RunFinishedEvent struct {
	baseEvent
	Target   string
	Err      error // nil on success
	Duration time.Duration
}

// NewRunFinishedEvent creates a RunFinishedEvent.
func NewRunFinishedEvent(target string, err error, duration time.Duration) RunFinishedEvent {
	return RunFinishedEvent{
		baseEvent: newBaseEvent("run.finished"),
		Target:    target,
		Err:       err,
		Duration:  duration,
	}
}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskStartedEvent is emitted immediately before a task's action runs.
type TaskStartedEvent struct {
	baseEvent
	Task string
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(task string) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent: newBaseEvent("task.started"),
		Task:      task,
	}
}

// TaskSucceededEvent is emitted when a task's action returns without error.
type TaskSucceededEvent struct {
	baseEvent
	Task     string
	Duration time.Duration
}

// NewTaskSucceededEvent creates a TaskSucceededEvent.
func NewTaskSucceededEvent(task string, duration time.Duration) TaskSucceededEvent {
	return TaskSucceededEvent{
		baseEvent: newBaseEvent("task.succeeded"),
		Task:      task,
		Duration:  duration,
	}
}

// TaskFailedEvent is emitted when a fail-fast task's action returns an
// error. The run aborts after this event.
type TaskFailedEvent struct {
	baseEvent
	Task string
	Err  error
}

// NewTaskFailedEvent creates a TaskFailedEvent.
func NewTaskFailedEvent(task string, err error) TaskFailedEvent {
	return TaskFailedEvent{
		baseEvent: newBaseEvent("task.failed"),
		Task:      task,
		Err:       err,
	}
}

// TaskAbsorbedEvent is emitted when a best-effort task's action returns an
// error that is reported and swallowed. The run continues after this event.
type TaskAbsorbedEvent struct {
	baseEvent
	Task string
	Err  error
}

// NewTaskAbsorbedEvent creates a TaskAbsorbedEvent.
func NewTaskAbsorbedEvent(task string, err error) TaskAbsorbedEvent {
	return TaskAbsorbedEvent{
		baseEvent: newBaseEvent("task.absorbed"),
		Task:      task,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Watch Events
// -----------------------------------------------------------------------------

// WatchTriggeredEvent is emitted when a watch binding fires after its
// debounce window closes.
type WatchTriggeredEvent struct {
	baseEvent
	Path  string   // The path that caused the trigger (last event in the window)
	Tasks []string // Tasks the binding invokes
}

// NewWatchTriggeredEvent creates a WatchTriggeredEvent.
func NewWatchTriggeredEvent(path string, tasks []string) WatchTriggeredEvent {
	return WatchTriggeredEvent{
		baseEvent: newBaseEvent("watch.triggered"),
		Path:      path,
		Tasks:     tasks,
	}
}
