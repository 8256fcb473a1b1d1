package events

// TypeAgentStatusChanged is the event type for an agent registry status
// change, whether driven by a health check or an explicit update.
const TypeAgentStatusChanged = "agent_status_changed"

// AgentStatusChangedEvent carries no TaskID (agent status is not scoped to
// a single task), so TaskID is left empty; subscribers filtering by type
// alone still receive it.
type AgentStatusChangedEvent struct {
	BaseEvent
	AgentID   string `json:"agent_id"`
	FromState string `json:"from_status"`
	ToState   string `json:"to_status"`
}

// NewAgentStatusChangedEvent creates a new agent status changed event.
func NewAgentStatusChangedEvent(agentID, from, to string) AgentStatusChangedEvent {
	return AgentStatusChangedEvent{
		BaseEvent: NewBaseEvent(TypeAgentStatusChanged, ""),
		AgentID:   agentID,
		FromState: from,
		ToState:   to,
	}
}
