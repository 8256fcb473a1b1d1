package events

// TypeStateTransition is the event type for a task's state-machine
// transitions.
const TypeStateTransition = "state_transition"

// StateTransitionEvent mirrors a committed statemachine.StateMachine
// transition. Per the ordering guarantee in §5, this is published only
// after the transition's history record and persisted status are
// committed.
type StateTransitionEvent struct {
	BaseEvent
	From     string            `json:"from"`
	To       string            `json:"to"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewStateTransitionEvent creates a new state transition event.
func NewStateTransitionEvent(taskID, from, to string, metadata map[string]string) StateTransitionEvent {
	return StateTransitionEvent{
		BaseEvent: NewBaseEvent(TypeStateTransition, taskID),
		From:      from,
		To:        to,
		Metadata:  metadata,
	}
}
