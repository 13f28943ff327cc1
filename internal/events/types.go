package events

import (
	"time"
)

// Event is the base interface for all engine events.
type Event interface {
	EventType() string
	TaskID() string
}

// TopicQueue carries aggregate queue progress; per-task events are published
// on the topic returned by TaskTopic.
const TopicQueue = "queue"

// TaskTopic returns the per-task topic name. Observing a task is a plain
// subscription to its topic.
func TaskTopic(taskID string) string {
	return "task:" + taskID
}

// Event type constants
const (
	EventTypeTaskQueued    = "task.queued"
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskOutput    = "task.output"
	EventTypeTaskError     = "task.error"
	EventTypeTaskCompleted = "task.completed"
	EventTypeQueueProgress = "queue.progress"
)

// Error stages carried by TaskErrorEvent.
const (
	ErrorStageStart      = "start"      // Process failed to start
	ErrorStageTimeout    = "timeout"    // Wall-clock budget exceeded
	ErrorStageDependency = "dependency" // Prerequisite failed or was cancelled
)

// TaskQueuedEvent is published when a task is accepted into the queue.
type TaskQueuedEvent struct {
	ID        string
	Name      string
	Language  string
	Priority  string
	Timestamp time.Time
}

func (e TaskQueuedEvent) EventType() string { return EventTypeTaskQueued }
func (e TaskQueuedEvent) TaskID() string    { return e.ID }

// TaskStartedEvent is published when the toolchain process launches.
type TaskStartedEvent struct {
	ID        string
	Name      string
	Command   string // Rendered invocation, for display
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskOutputEvent carries one raw line of toolchain output.
type TaskOutputEvent struct {
	ID        string
	Line      string
	Stream    string // "stdout" or "stderr"
	LineNum   int    // 1-based, monotonic per stream
	Timestamp time.Time
}

func (e TaskOutputEvent) EventType() string { return EventTypeTaskOutput }
func (e TaskOutputEvent) TaskID() string    { return e.ID }

// TaskErrorEvent is published when execution degrades: the process failed to
// start, timed out, or was short-circuited by a failed dependency.
type TaskErrorEvent struct {
	ID        string
	Stage     string // One of the ErrorStage constants
	Message   string
	Timestamp time.Time
}

func (e TaskErrorEvent) EventType() string { return EventTypeTaskError }
func (e TaskErrorEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is the single terminal event for a task.
type TaskCompletedEvent struct {
	ID        string
	Status    string // Final TaskStatus name
	ExitCode  int
	Success   bool
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// QueueProgressEvent is published on TopicQueue after every state change.
type QueueProgressEvent struct {
	Total     int
	Pending   int
	Running   int
	Succeeded int
	Failed    int
	Cancelled int
	Timestamp time.Time
}

func (e QueueProgressEvent) EventType() string { return EventTypeQueueProgress }
func (e QueueProgressEvent) TaskID() string    { return "" }
