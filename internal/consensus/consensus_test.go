package consensus

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

func mustProposal(t *testing.T, taskId core.TaskId, agentName, content string, confidence float64) core.Proposal {
	t.Helper()
	agentId, err := core.NewAgentId(agentName)
	if err != nil {
		t.Fatalf("failed to build agent id: %v", err)
	}
	p, err := core.NewProposal(taskId, agentId, core.ProposalKindText, content, confidence, core.TokenUsage{})
	if err != nil {
		t.Fatalf("failed to build proposal: %v", err)
	}
	return *p
}

func TestEngine_Submit_IdempotentPerAgent(t *testing.T) {
	taskId := core.NewTaskId()
	e := NewEngine(nil, nil)

	first := mustProposal(t, taskId, "agent-a", "do the thing", 0.5)
	e.Submit(first)
	second := mustProposal(t, taskId, "agent-a", "do the thing, revised", 0.9)
	e.Submit(second)

	got := e.Proposals(taskId)
	if len(got) != 1 {
		t.Fatalf("expected exactly one proposal after resubmission by the same agent, got %d", len(got))
	}
	if got[0].Content != "do the thing, revised" {
		t.Fatalf("expected the second submission to replace the first, got %q", got[0].Content)
	}
}

func TestEngine_Decide_AgreementRateAndConsensusAchieved(t *testing.T) {
	taskId := core.NewTaskId()
	e := NewEngine(nil, nil)
	e.Submit(mustProposal(t, taskId, "agent-a", "use postgres for storage", 0.7))
	e.Submit(mustProposal(t, taskId, "agent-b", "Use Postgres for storage!", 0.6))
	e.Submit(mustProposal(t, taskId, "agent-c", "use sqlite instead", 0.9))

	decision, err := e.Decide(context.Background(), taskId)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantRate := 2.0 / 3.0
	if decision.AgreementRate != wantRate {
		t.Fatalf("expected agreement rate %v, got %v", wantRate, decision.AgreementRate)
	}
	if !decision.ConsensusAchieved {
		t.Fatalf("expected consensus achieved at rate %v", decision.AgreementRate)
	}
	if len(decision.Considered) != 3 {
		t.Fatalf("expected 3 considered proposals, got %d", len(decision.Considered))
	}
	if len(decision.Selected) != 2 {
		t.Fatalf("expected 2 selected proposals in the winning bucket, got %d", len(decision.Selected))
	}
}

func TestEngine_Decide_WinnerIsHighestConfidenceInLargestBucket(t *testing.T) {
	taskId := core.NewTaskId()
	e := NewEngine(nil, nil)
	e.Submit(mustProposal(t, taskId, "agent-a", "ship it", 0.4))
	e.Submit(mustProposal(t, taskId, "agent-b", "ship it", 0.95))
	e.Submit(mustProposal(t, taskId, "agent-c", "hold off", 0.99))

	decision, err := e.Decide(context.Background(), taskId)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantWinner, _ := core.NewAgentId("agent-b")
	if decision.WinnerId == nil || *decision.WinnerId != wantWinner {
		t.Fatalf("expected winner agent-b (highest confidence in the largest bucket), got %v", decision.WinnerId)
	}
}

func TestEngine_Decide_TieBreaksByEarliestCreatedAtThenAgentId(t *testing.T) {
	taskId := core.NewTaskId()
	e := NewEngine(nil, nil)

	earlier := mustProposal(t, taskId, "agent-z", "same confidence", 0.5)
	earlier.CreatedAt = time.Now().Add(-time.Hour)
	later := mustProposal(t, taskId, "agent-a", "same confidence", 0.5)
	later.CreatedAt = time.Now()
	e.Submit(earlier)
	e.Submit(later)

	decision, err := e.Decide(context.Background(), taskId)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantWinner, _ := core.NewAgentId("agent-z")
	if decision.WinnerId == nil || *decision.WinnerId != wantWinner {
		t.Fatalf("expected the earlier-created proposal to win the tie, got %v", decision.WinnerId)
	}
}

func TestEngine_Decide_NoConsensusBelowThreshold(t *testing.T) {
	taskId := core.NewTaskId()
	e := NewEngine(nil, nil)
	e.Submit(mustProposal(t, taskId, "agent-a", "option one", 0.5))
	e.Submit(mustProposal(t, taskId, "agent-b", "option two", 0.5))

	decision, err := e.Decide(context.Background(), taskId)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.ConsensusAchieved {
		t.Fatalf("expected no consensus when every proposal disagrees, got rate %v", decision.AgreementRate)
	}
}

func TestEngine_Decide_NoProposalsErrors(t *testing.T) {
	e := NewEngine(nil, nil)
	_, err := e.Decide(context.Background(), core.NewTaskId())
	if err == nil {
		t.Fatal("expected an error when deciding a task with zero proposals")
	}
}

type fakeDecisionStore struct {
	saved   *core.Decision
	saveErr error
}

func (f *fakeDecisionStore) SaveDecision(ctx context.Context, decision *core.Decision) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = decision
	return nil
}

func TestEngine_Decide_PersistsThroughStore(t *testing.T) {
	taskId := core.NewTaskId()
	store := &fakeDecisionStore{}
	e := NewEngine(store, nil)
	e.Submit(mustProposal(t, taskId, "agent-a", "ship it", 0.9))
	e.Submit(mustProposal(t, taskId, "agent-b", "ship it", 0.8))

	decision, err := e.Decide(context.Background(), taskId)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.saved == nil || store.saved.TaskId != decision.TaskId {
		t.Fatal("expected the decision to be persisted through the configured store")
	}
}

func TestEngine_Decide_LogsThroughConsensusCategoryLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Get(logging.Config{Level: "info", Format: "json", Output: &buf}, logging.CategoryConsensus)

	taskId := core.NewTaskId()
	e := NewEngine(nil, log)
	e.Submit(mustProposal(t, taskId, "agent-a", "ship it", 0.9))

	if _, err := e.Decide(context.Background(), taskId); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"category":"consensus"`) {
		t.Errorf("expected consensus category in log output, got: %s", output)
	}
	if !strings.Contains(output, "consensus decided") {
		t.Errorf("expected a decided log line, got: %s", output)
	}
}

func TestEngine_Reset(t *testing.T) {
	taskId := core.NewTaskId()
	e := NewEngine(nil, nil)
	e.Submit(mustProposal(t, taskId, "agent-a", "ship it", 0.9))
	e.Reset(taskId)

	if got := e.Proposals(taskId); len(got) != 0 {
		t.Fatalf("expected no proposals after reset, got %d", len(got))
	}
}
