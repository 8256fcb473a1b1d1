package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ProposalKind names the shape of a Proposal's content.
type ProposalKind string

const (
	ProposalKindText ProposalKind = "text"
	ProposalKindCode ProposalKind = "code"
	ProposalKindDiff ProposalKind = "diff"
	ProposalKindPlan ProposalKind = "plan"
)

// TokenUsage records input/output token counts for a single agent call.
type TokenUsage struct {
	Input  int
	Output int
}

// Proposal is a single agent's submitted output for a task. Proposal intake
// is idempotent on (TaskId, AgentId): a second proposal from the same agent
// for the same task replaces, rather than duplicates, the first.
type Proposal struct {
	TaskId     TaskId
	AgentId    AgentId
	Kind       ProposalKind
	Content    string
	Confidence float64
	Usage      TokenUsage
	CreatedAt  time.Time
}

// NewProposal constructs a Proposal, validating confidence is within [0,1].
func NewProposal(taskId TaskId, agentId AgentId, kind ProposalKind, content string, confidence float64, usage TokenUsage) (*Proposal, error) {
	if confidence < 0 || confidence > 1 {
		return nil, ErrValidation("PROPOSAL_CONFIDENCE_OUT_OF_RANGE", "confidence must be in [0,1]")
	}
	return &Proposal{
		TaskId:     taskId,
		AgentId:    agentId,
		Kind:       kind,
		Content:    content,
		Confidence: confidence,
		Usage:      usage,
		CreatedAt:  time.Now(),
	}, nil
}

// Fingerprint returns a hash of the proposal's canonicalized content, used
// by the consensus engine to bucket proposals that agree.
func (p *Proposal) Fingerprint() string {
	return CanonicalFingerprint(p.Content)
}

// CanonicalFingerprint canonicalizes content (trimmed, lowercased, internal
// whitespace collapsed) and returns its SHA-256 hex digest.
func CanonicalFingerprint(content string) string {
	fields := strings.Fields(strings.ToLower(content))
	canonical := strings.Join(fields, " ")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
