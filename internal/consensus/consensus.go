// Package consensus reconciles multiple agents' proposals for a task into a
// single Decision: proposals are bucketed by canonicalized content
// fingerprint, the largest bucket's size over N is the agreement rate, and
// the winner is the highest-confidence proposal in that bucket.
package consensus

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// achievedThreshold is the agreement rate at or above which a Decision is
// considered consensus, per the data-model invariant ConsensusAchieved :=
// agreementRate >= 0.5. core.NewDecision applies the same constant; it is
// restated here only in comments, not duplicated as logic.
const achievedThreshold = 0.5

// DecisionStore persists a consensus Decision atomically with its
// considered list, which already lives on the Decision value itself.
type DecisionStore interface {
	SaveDecision(ctx context.Context, decision *core.Decision) error
}

// Engine accumulates proposals per task and resolves them into decisions.
// It is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	proposals map[core.TaskId]map[core.AgentId]core.Proposal
	store     DecisionStore
	log       *logging.Logger
}

// NewEngine builds an Engine. store may be nil, in which case Decide never
// persists and callers are responsible for doing so themselves. log may be
// nil, in which case the engine logs nowhere.
func NewEngine(store DecisionStore, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{
		proposals: make(map[core.TaskId]map[core.AgentId]core.Proposal),
		store:     store,
		log:       log,
	}
}

// Submit records a proposal. Intake is idempotent on (TaskId, AgentId): a
// second proposal from the same agent for the same task replaces the
// first rather than duplicating it.
func (e *Engine) Submit(proposal core.Proposal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	byAgent, ok := e.proposals[proposal.TaskId]
	if !ok {
		byAgent = make(map[core.AgentId]core.Proposal)
		e.proposals[proposal.TaskId] = byAgent
	}
	byAgent[proposal.AgentId] = proposal
}

// Proposals returns a stable, agentId-sorted snapshot of the proposals
// submitted for taskId.
func (e *Engine) Proposals(taskId core.TaskId) []core.Proposal {
	e.mu.Lock()
	byAgent := e.proposals[taskId]
	out := make([]core.Proposal, 0, len(byAgent))
	for _, p := range byAgent {
		out = append(out, p)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AgentId < out[j].AgentId })
	return out
}

// Decide resolves the proposals submitted so far for taskId into a
// Decision and, if a store is configured, persists it atomically. It
// returns a validation error if no proposals have been submitted.
func (e *Engine) Decide(ctx context.Context, taskId core.TaskId) (*core.Decision, error) {
	proposals := e.Proposals(taskId)
	if len(proposals) == 0 {
		return nil, core.ErrValidation("CONSENSUS_NO_PROPOSALS", "cannot decide a task with zero submitted proposals")
	}

	buckets := bucketByFingerprint(proposals)
	largest := largestBucket(buckets)
	winner := selectWinner(largest)

	considered := make([]core.AgentId, len(proposals))
	for i, p := range proposals {
		considered[i] = p.AgentId
	}
	selected := make([]core.AgentId, len(largest))
	for i, p := range largest {
		selected[i] = p.AgentId
	}

	agreementRate := float64(len(largest)) / float64(len(proposals))
	winnerId := winner.AgentId
	decision := core.NewDecision(taskId, considered, selected, &winnerId, agreementRate, rationale(agreementRate, len(largest), len(proposals)))

	e.log.Info("consensus decided",
		"task_id", string(taskId),
		"agreement_rate", agreementRate,
		"achieved", decision.ConsensusAchieved,
		"winner", string(winnerId),
		"considered", len(proposals),
	)

	if e.store != nil {
		if err := e.store.SaveDecision(ctx, decision); err != nil {
			return nil, core.ErrPersistenceFailure(string(taskId), err)
		}
	}
	return decision, nil
}

// Reset discards all proposals recorded for taskId, for use after a
// decision has been persisted or a task is abandoned.
func (e *Engine) Reset(taskId core.TaskId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.proposals, taskId)
}

func bucketByFingerprint(proposals []core.Proposal) map[string][]core.Proposal {
	buckets := make(map[string][]core.Proposal)
	for _, p := range proposals {
		fp := p.Fingerprint()
		buckets[fp] = append(buckets[fp], p)
	}
	return buckets
}

// largestBucket picks the largest content-fingerprint bucket, breaking
// ties deterministically by the smallest agentId among each bucket's
// members (the same tiebreak winner selection uses, applied one level up).
func largestBucket(buckets map[string][]core.Proposal) []core.Proposal {
	var best []core.Proposal
	for _, bucket := range buckets {
		switch {
		case best == nil:
			best = bucket
		case len(bucket) > len(best):
			best = bucket
		case len(bucket) == len(best) && smallestAgentId(bucket) < smallestAgentId(best):
			best = bucket
		}
	}
	return best
}

func smallestAgentId(proposals []core.Proposal) core.AgentId {
	smallest := proposals[0].AgentId
	for _, p := range proposals[1:] {
		if p.AgentId < smallest {
			smallest = p.AgentId
		}
	}
	return smallest
}

// selectWinner chooses the highest-confidence proposal among bucket,
// breaking ties by earliest CreatedAt and then by smaller AgentId.
func selectWinner(bucket []core.Proposal) core.Proposal {
	winner := bucket[0]
	for _, p := range bucket[1:] {
		if isBetter(p, winner) {
			winner = p
		}
	}
	return winner
}

func isBetter(candidate, current core.Proposal) bool {
	if candidate.Confidence != current.Confidence {
		return candidate.Confidence > current.Confidence
	}
	if !candidate.CreatedAt.Equal(current.CreatedAt) {
		return candidate.CreatedAt.Before(current.CreatedAt)
	}
	return candidate.AgentId < current.AgentId
}

func rationale(agreementRate float64, bucketSize, total int) string {
	verdict := "no consensus"
	if agreementRate >= achievedThreshold {
		verdict = "consensus achieved"
	}
	return fmt.Sprintf("%s: %d of %d proposals agreed (rate %.2f)", verdict, bucketSize, total, agreementRate)
}
