package storage

import (
	"context"
	"database/sql"

	"github.com/conclave-ai/conclave/internal/core"
)

// StrategyMetricsRepository implements strategy.MetricsStore so calibration
// survives process restarts, per SPEC_FULL.md's calibration-persistence
// enrichment.
type StrategyMetricsRepository struct {
	store *Store
}

// StrategyMetrics returns the Store's StrategyMetricsRepository.
func (s *Store) StrategyMetrics() *StrategyMetricsRepository { return &StrategyMetricsRepository{store: s} }

// LoadStrategyMetrics implements strategy.MetricsStore.
func (r *StrategyMetricsRepository) LoadStrategyMetrics(ctx context.Context) (map[core.RoutingStrategy][2]int, error) {
	out := make(map[core.RoutingStrategy][2]int)
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `SELECT strategy, successes, failures FROM strategy_metrics`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var strategy string
			var successes, failures int
			if err := rows.Scan(&strategy, &successes, &failures); err != nil {
				return err
			}
			out[core.RoutingStrategy(strategy)] = [2]int{successes, failures}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return out, nil
}

// SaveStrategyMetrics implements strategy.MetricsStore, overwriting the
// whole snapshot inside one transaction.
func (r *StrategyMetricsRepository) SaveStrategyMetrics(ctx context.Context, snapshot map[core.RoutingStrategy][2]int) error {
	err := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM strategy_metrics`); err != nil {
			return err
		}
		for strategy, counts := range snapshot {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO strategy_metrics (strategy, successes, failures) VALUES (?, ?, ?)`,
				string(strategy), counts[0], counts[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.ErrPersistenceFailure("", err)
	}
	return nil
}
