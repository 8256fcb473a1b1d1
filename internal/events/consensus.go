package events

// TypeConsensusDecided is the event type for a resolved consensus Decision.
const TypeConsensusDecided = "consensus_decided"

// ConsensusDecidedEvent mirrors a consensus.Engine.Decide outcome.
type ConsensusDecidedEvent struct {
	BaseEvent
	AgreementRate     float64 `json:"agreement_rate"`
	ConsensusAchieved bool    `json:"consensus_achieved"`
	WinnerAgentID     string  `json:"winner_agent_id,omitempty"`
	ConsideredCount   int     `json:"considered_count"`
}

// NewConsensusDecidedEvent creates a new consensus decided event.
func NewConsensusDecidedEvent(taskID string, agreementRate float64, achieved bool, winnerAgentID string, consideredCount int) ConsensusDecidedEvent {
	return ConsensusDecidedEvent{
		BaseEvent:         NewBaseEvent(TypeConsensusDecided, taskID),
		AgreementRate:     agreementRate,
		ConsensusAchieved: achieved,
		WinnerAgentID:     winnerAgentID,
		ConsideredCount:   consideredCount,
	}
}
