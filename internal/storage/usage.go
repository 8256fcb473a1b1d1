package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// UsageMetricsRepository records and rolls up per-task, per-agent token
// spend, the durable counterpart to internal/analytics' in-memory tallies.
type UsageMetricsRepository struct {
	store *Store
}

// Usage returns the Store's UsageMetricsRepository.
func (s *Store) Usage() *UsageMetricsRepository { return &UsageMetricsRepository{store: s} }

// Record appends one usage sample for a (task, agent) invocation.
func (r *UsageMetricsRepository) Record(ctx context.Context, taskId core.TaskId, agentId core.AgentId, usage core.TokenUsage) error {
	err := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO usage_metrics (task_id, agent_id, tokens_in, tokens_out, recorded_at)
			VALUES (?, ?, ?, ?, ?)`,
			string(taskId), string(agentId), usage.Input, usage.Output, time.Now())
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(taskId), err)
	}
	return nil
}

// TotalsByAgent sums recorded token usage for every agent.
func (r *UsageMetricsRepository) TotalsByAgent(ctx context.Context) (map[core.AgentId]core.TokenUsage, error) {
	out := make(map[core.AgentId]core.TokenUsage)
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT agent_id, SUM(tokens_in), SUM(tokens_out) FROM usage_metrics GROUP BY agent_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var agentID string
			var in, outTok int
			if err := rows.Scan(&agentID, &in, &outTok); err != nil {
				return err
			}
			out[core.AgentId(agentID)] = core.TokenUsage{Input: in, Output: outTok}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return out, nil
}

// Total sums recorded token usage across every task and agent.
func (r *UsageMetricsRepository) Total(ctx context.Context) (core.TokenUsage, error) {
	var total core.TokenUsage
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, `SELECT COALESCE(SUM(tokens_in),0), COALESCE(SUM(tokens_out),0) FROM usage_metrics`)
		return row.Scan(&total.Input, &total.Output)
	})
	if err != nil {
		return core.TokenUsage{}, core.ErrPersistenceFailure("", err)
	}
	return total, nil
}
