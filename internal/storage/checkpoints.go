package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// CheckpointRepository persists named checkpoints a workflow executor can
// resume from, keyed by task and ordered by creation time.
type CheckpointRepository struct {
	store *Store
}

// Checkpoints returns the Store's CheckpointRepository.
func (s *Store) Checkpoints() *CheckpointRepository { return &CheckpointRepository{store: s} }

// StoredCheckpoint is a persisted workflow checkpoint.
type StoredCheckpoint struct {
	ID        string
	TaskID    core.TaskId
	Step      string
	Data      map[string]any
	CreatedAt time.Time
}

// Save inserts a new checkpoint row. Checkpoints are append-only; nothing
// ever updates or deletes one except the task's own cascade delete.
func (r *CheckpointRepository) Save(ctx context.Context, cp StoredCheckpoint) error {
	data := cp.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return core.ErrPersistenceFailure(string(cp.TaskID), err)
	}
	err = r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO checkpoints (id, task_id, step, data, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			cp.ID, string(cp.TaskID), cp.Step, string(payload), cp.CreatedAt)
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(cp.TaskID), err)
	}
	return nil
}

// Latest returns the most recently created checkpoint for taskId, or nil if
// none exists.
func (r *CheckpointRepository) Latest(ctx context.Context, taskId core.TaskId) (*StoredCheckpoint, error) {
	var out *StoredCheckpoint
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, `
			SELECT id, task_id, step, data, created_at FROM checkpoints
			WHERE task_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(taskId))
		cp, scanErr := scanCheckpoint(row)
		if scanErr != nil {
			if scanErr == sql.ErrNoRows {
				return nil
			}
			return scanErr
		}
		out = cp
		return nil
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(string(taskId), err)
	}
	return out, nil
}

// ForTask returns every checkpoint recorded for taskId, oldest first.
func (r *CheckpointRepository) ForTask(ctx context.Context, taskId core.TaskId) ([]*StoredCheckpoint, error) {
	var out []*StoredCheckpoint
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, task_id, step, data, created_at FROM checkpoints
			WHERE task_id = ? ORDER BY created_at ASC, rowid ASC`, string(taskId))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			cp, err := scanCheckpoint(rows)
			if err != nil {
				return err
			}
			out = append(out, cp)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(string(taskId), err)
	}
	return out, nil
}

func scanCheckpoint(row interface{ Scan(dest ...any) error }) (*StoredCheckpoint, error) {
	var (
		id, taskID, step, data string
		createdAt              time.Time
	)
	if err := row.Scan(&id, &taskID, &step, &data, &createdAt); err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		return nil, err
	}
	return &StoredCheckpoint{ID: id, TaskID: core.TaskId(taskID), Step: step, Data: decoded, CreatedAt: createdAt}, nil
}
