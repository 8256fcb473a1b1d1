package events

import "time"

// Event type constants for workflow runtime events.
const (
	TypeWorkflowStarted    = "workflow_started"
	TypeWorkflowCompleted  = "workflow_completed"
	TypeWorkflowFailed     = "workflow_failed"
	TypeWorkflowHeartbeat  = "workflow_heartbeat"
	TypeWorkflowCheckpoint = "workflow_checkpoint"
)

// WorkflowStartedEvent is emitted when the runtime begins executing a
// task under its chosen strategy.
type WorkflowStartedEvent struct {
	BaseEvent
	Strategy string `json:"strategy"`
}

// NewWorkflowStartedEvent creates a new workflow started event.
func NewWorkflowStartedEvent(taskID, strategy string) WorkflowStartedEvent {
	return WorkflowStartedEvent{
		BaseEvent: NewBaseEvent(TypeWorkflowStarted, taskID),
		Strategy:  strategy,
	}
}

// WorkflowCompletedEvent is emitted exactly once, when a task reaches
// TaskStatusCompleted.
type WorkflowCompletedEvent struct {
	BaseEvent
	Duration time.Duration `json:"duration"`
}

// NewWorkflowCompletedEvent creates a new workflow completed event.
func NewWorkflowCompletedEvent(taskID string, duration time.Duration) WorkflowCompletedEvent {
	return WorkflowCompletedEvent{
		BaseEvent: NewBaseEvent(TypeWorkflowCompleted, taskID),
		Duration:  duration,
	}
}

// WorkflowFailedEvent is a priority event: it must reach subscribers even
// under backpressure, since it is how operators learn a task needs
// attention.
type WorkflowFailedEvent struct {
	BaseEvent
	Step  string `json:"step"`
	Error string `json:"error"`
}

// NewWorkflowFailedEvent creates a new workflow failed event.
func NewWorkflowFailedEvent(taskID, step string, err error) WorkflowFailedEvent {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return WorkflowFailedEvent{
		BaseEvent: NewBaseEvent(TypeWorkflowFailed, taskID),
		Step:      step,
		Error:     errStr,
	}
}

// WorkflowHeartbeatEvent is emitted when a long-running execution renews
// its optimistic-lock heartbeat, the enrichment described in SPEC_FULL §4.
type WorkflowHeartbeatEvent struct {
	BaseEvent
}

// NewWorkflowHeartbeatEvent creates a new workflow heartbeat event.
func NewWorkflowHeartbeatEvent(taskID string) WorkflowHeartbeatEvent {
	return WorkflowHeartbeatEvent{BaseEvent: NewBaseEvent(TypeWorkflowHeartbeat, taskID)}
}

// WorkflowCheckpointEvent is emitted when the runtime persists a resumable
// checkpoint for a multi-step executor (sequential or parallel).
type WorkflowCheckpointEvent struct {
	BaseEvent
	Step string `json:"step"`
}

// NewWorkflowCheckpointEvent creates a new workflow checkpoint event.
func NewWorkflowCheckpointEvent(taskID, step string) WorkflowCheckpointEvent {
	return WorkflowCheckpointEvent{
		BaseEvent: NewBaseEvent(TypeWorkflowCheckpoint, taskID),
		Step:      step,
	}
}
