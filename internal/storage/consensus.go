package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// ConsensusRepository persists proposals and decisions for the consensus
// engine. Proposal intake is idempotent on (TaskId, AgentId): UpsertProposal
// replaces a prior proposal from the same agent rather than duplicating it.
type ConsensusRepository struct {
	store *Store
}

// Consensus returns the Store's ConsensusRepository.
func (s *Store) Consensus() *ConsensusRepository { return &ConsensusRepository{store: s} }

// UpsertProposal inserts or, on a (task_id, agent_id) collision, replaces a
// proposal.
func (r *ConsensusRepository) UpsertProposal(ctx context.Context, p *core.Proposal) error {
	err := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO proposals (task_id, agent_id, kind, content, confidence, tokens_in, tokens_out, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(task_id, agent_id) DO UPDATE SET
				kind=excluded.kind, content=excluded.content, confidence=excluded.confidence,
				tokens_in=excluded.tokens_in, tokens_out=excluded.tokens_out, created_at=excluded.created_at`,
			string(p.TaskId), string(p.AgentId), string(p.Kind), p.Content, p.Confidence,
			p.Usage.Input, p.Usage.Output, p.CreatedAt)
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(p.TaskId), err)
	}
	return nil
}

// ProposalsForTask returns every proposal submitted for taskID, oldest
// first (the order the consensus engine's tie-break rule relies on).
func (r *ConsensusRepository) ProposalsForTask(ctx context.Context, taskID core.TaskId) ([]*core.Proposal, error) {
	var out []*core.Proposal
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT task_id, agent_id, kind, content, confidence, tokens_in, tokens_out, created_at
			FROM proposals WHERE task_id = ? ORDER BY created_at`, string(taskID))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var taskID, agentID, kind, content string
			var confidence float64
			var tokensIn, tokensOut int
			var createdAt time.Time
			if err := rows.Scan(&taskID, &agentID, &kind, &content, &confidence, &tokensIn, &tokensOut, &createdAt); err != nil {
				return err
			}
			out = append(out, &core.Proposal{
				TaskId:     core.TaskId(taskID),
				AgentId:    core.AgentId(agentID),
				Kind:       core.ProposalKind(kind),
				Content:    content,
				Confidence: confidence,
				Usage:      core.TokenUsage{Input: tokensIn, Output: tokensOut},
				CreatedAt:  createdAt,
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(string(taskID), err)
	}
	return out, nil
}

// SaveDecision persists a Decision atomically with its considered list.
func (r *ConsensusRepository) SaveDecision(ctx context.Context, d *core.Decision) error {
	considered := encodeAgentIds(d.Considered)
	selected := encodeAgentIds(d.Selected)
	var winner *string
	if d.WinnerId != nil {
		w := string(*d.WinnerId)
		winner = &w
	}
	consideredJSON, err := json.Marshal(considered)
	if err != nil {
		return core.ErrPersistenceFailure(string(d.TaskId), err)
	}
	selectedJSON, err := json.Marshal(selected)
	if err != nil {
		return core.ErrPersistenceFailure(string(d.TaskId), err)
	}
	err = r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO decisions (task_id, considered, selected, winner_agent_id, agreement_rate,
				rationale, consensus_achieved, decided_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(task_id) DO UPDATE SET
				considered=excluded.considered, selected=excluded.selected,
				winner_agent_id=excluded.winner_agent_id, agreement_rate=excluded.agreement_rate,
				rationale=excluded.rationale, consensus_achieved=excluded.consensus_achieved,
				decided_at=excluded.decided_at`,
			string(d.TaskId), string(consideredJSON), string(selectedJSON), winner,
			d.AgreementRate, d.Rationale, d.ConsensusAchieved, d.DecidedAt)
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(d.TaskId), err)
	}
	return nil
}

// DecisionForTask returns the decision for taskID, or nil if none exists.
func (r *ConsensusRepository) DecisionForTask(ctx context.Context, taskID core.TaskId) (*core.Decision, error) {
	var dec *core.Decision
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, `
			SELECT task_id, considered, selected, winner_agent_id, agreement_rate, rationale,
				consensus_achieved, decided_at
			FROM decisions WHERE task_id = ?`, string(taskID))
		var taskIDStr, consideredJSON, selectedJSON, rationale string
		var winner sql.NullString
		var agreementRate float64
		var achieved bool
		var decidedAt time.Time
		if err := row.Scan(&taskIDStr, &consideredJSON, &selectedJSON, &winner, &agreementRate,
			&rationale, &achieved, &decidedAt); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return err
		}
		considered, err := decodeAgentIds(consideredJSON)
		if err != nil {
			return err
		}
		selected, err := decodeAgentIds(selectedJSON)
		if err != nil {
			return err
		}
		var winnerID *core.AgentId
		if winner.Valid {
			w := core.AgentId(winner.String)
			winnerID = &w
		}
		dec = &core.Decision{
			TaskId:            core.TaskId(taskIDStr),
			Considered:        considered,
			Selected:          selected,
			WinnerId:          winnerID,
			AgreementRate:     agreementRate,
			Rationale:         rationale,
			DecidedAt:         decidedAt,
			ConsensusAchieved: achieved,
		}
		return nil
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(string(taskID), err)
	}
	return dec, nil
}

func encodeAgentIds(ids []core.AgentId) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func decodeAgentIds(encoded string) ([]core.AgentId, error) {
	var strs []string
	if err := json.Unmarshal([]byte(encoded), &strs); err != nil {
		return nil, err
	}
	out := make([]core.AgentId, len(strs))
	for i, s := range strs {
		out[i] = core.AgentId(s)
	}
	return out, nil
}
