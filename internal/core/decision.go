package core

import "time"

// Decision is the consensus engine's resolution of a task's proposals.
// Considered and Selected reference agents rather than a standalone
// proposal identifier: a proposal's identity is the (TaskId, AgentId) pair
// it was submitted under.
type Decision struct {
	TaskId            TaskId
	Considered        []AgentId
	Selected          []AgentId
	WinnerId          *AgentId
	AgreementRate     float64
	Rationale         string
	DecidedAt         time.Time
	ConsensusAchieved bool
}

// NewDecision constructs a Decision stamped with the current time.
func NewDecision(taskId TaskId, considered, selected []AgentId, winner *AgentId, agreementRate float64, rationale string) *Decision {
	return &Decision{
		TaskId:            taskId,
		Considered:        considered,
		Selected:          selected,
		WinnerId:          winner,
		AgreementRate:     agreementRate,
		Rationale:         rationale,
		DecidedAt:         time.Now(),
		ConsensusAchieved: agreementRate >= 0.5,
	}
}

// StateTransition records one lifecycle transition of a Task.
type StateTransition struct {
	From      TaskStatus
	To        TaskStatus
	Timestamp time.Time
	Metadata  map[string]string
}
