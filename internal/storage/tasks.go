package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// TaskRepository is the storage surface the workflow runtime and the
// (excluded) HTTP query layer consume: insert, update, the optimistic-
// concurrency updateStatus, point lookups, and filtered/paginated queries.
type TaskRepository struct {
	store *Store
}

// Tasks returns the Store's TaskRepository.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{store: s} }

type taskRow struct {
	ID           string
	Title        string
	Description  string
	Type         string
	Status       string
	Strategy     string
	Assignees    string
	Dependencies string
	Complexity   int
	Risk         int
	Metadata     string
	HeartbeatAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func scanTask(row interface{ Scan(dest ...any) error }) (*core.Task, error) {
	var r taskRow
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Type, &r.Status, &r.Strategy,
		&r.Assignees, &r.Dependencies, &r.Complexity, &r.Risk, &r.Metadata, &r.HeartbeatAt,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return rowToTask(r)
}

func rowToTask(r taskRow) (*core.Task, error) {
	var assigneeStrs []string
	if err := json.Unmarshal([]byte(r.Assignees), &assigneeStrs); err != nil {
		return nil, err
	}
	assignees := make([]core.AgentId, len(assigneeStrs))
	for i, a := range assigneeStrs {
		assignees[i] = core.AgentId(a)
	}

	var depStrs []string
	if err := json.Unmarshal([]byte(r.Dependencies), &depStrs); err != nil {
		return nil, err
	}
	deps := make([]core.TaskId, len(depStrs))
	for i, d := range depStrs {
		deps[i] = core.TaskId(d)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
		return nil, err
	}

	return &core.Task{
		Id:           core.TaskId(r.ID),
		Title:        r.Title,
		Description:  r.Description,
		Type:         core.TaskType(r.Type),
		Status:       core.TaskStatus(r.Status),
		Strategy:     core.RoutingStrategy(r.Strategy),
		Assignees:    assignees,
		Dependencies: deps,
		Complexity:   r.Complexity,
		Risk:         r.Risk,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Metadata:     meta,
	}, nil
}

func encodeTask(t *core.Task) (assignees, deps, metadata string, err error) {
	assigneeStrs := make([]string, len(t.Assignees))
	for i, a := range t.Assignees {
		assigneeStrs[i] = string(a)
	}
	assigneesJSON, err := json.Marshal(assigneeStrs)
	if err != nil {
		return "", "", "", err
	}

	depStrs := make([]string, len(t.Dependencies))
	for i, d := range t.Dependencies {
		depStrs[i] = string(d)
	}
	depsJSON, err := json.Marshal(depStrs)
	if err != nil {
		return "", "", "", err
	}

	meta := t.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", "", "", err
	}

	return string(assigneesJSON), string(depsJSON), string(metaJSON), nil
}

// Insert persists a new task. Per §7, a failure here means the task was
// never created and the caller surfaces PersistenceFailure to the submit
// boundary rather than leaving a half-written row.
func (r *TaskRepository) Insert(ctx context.Context, t *core.Task) error {
	assignees, deps, metadata, err := encodeTask(t)
	if err != nil {
		return core.ErrPersistenceFailure(string(t.Id), err)
	}
	err = r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, description, type, status, strategy, assignees,
				dependencies, complexity, risk, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(t.Id), t.Title, t.Description, string(t.Type), string(t.Status),
			string(t.Strategy), assignees, deps, t.Complexity, t.Risk, metadata,
			t.CreatedAt, t.UpdatedAt)
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(t.Id), err)
	}
	return nil
}

// Update overwrites every mutable field of an existing task (full-row
// replace, not a sparse patch).
func (r *TaskRepository) Update(ctx context.Context, t *core.Task) error {
	assignees, deps, metadata, err := encodeTask(t)
	if err != nil {
		return core.ErrPersistenceFailure(string(t.Id), err)
	}
	t.Touch()
	err = r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE tasks SET title=?, description=?, type=?, status=?, strategy=?,
				assignees=?, dependencies=?, complexity=?, risk=?, metadata=?, updated_at=?
			WHERE id=?`,
			t.Title, t.Description, string(t.Type), string(t.Status), string(t.Strategy),
			assignees, deps, t.Complexity, t.Risk, metadata, t.UpdatedAt, string(t.Id))
		if execErr != nil {
			return execErr
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			return execErr
		}
		if n == 0 {
			return core.ErrNotFound("task", string(t.Id))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// UpdateStatus is the optimistic-concurrency status transition primitive:
// it only applies if the row's current status is a member of expectedFrom.
// Returns false (no error) when the race was lost, so the workflow runtime
// can surface OrchestrationConflict without distinguishing "not found"
// from "already moved on".
func (r *TaskRepository) UpdateStatus(ctx context.Context, id core.TaskId, to core.TaskStatus, expectedFrom []core.TaskStatus) (bool, error) {
	if len(expectedFrom) == 0 {
		return false, core.ErrValidation("UPDATE_STATUS_EMPTY_EXPECTED", "expectedFrom must not be empty")
	}
	placeholders := make([]any, 0, len(expectedFrom)+2)
	placeholders = append(placeholders, string(to), time.Now())
	query := `UPDATE tasks SET status=?, updated_at=? WHERE id=? AND status IN (`
	placeholders = append(placeholders, string(id))
	for i, st := range expectedFrom {
		if i > 0 {
			query += ","
		}
		query += "?"
		placeholders = append(placeholders, string(st))
	}
	query += ")"

	var applied bool
	err := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, query, placeholders...)
		if execErr != nil {
			return execErr
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			return execErr
		}
		applied = n > 0
		return nil
	})
	if err != nil {
		return false, core.ErrPersistenceFailure(string(id), err)
	}
	return applied, nil
}

// FindByID returns the task with the given id, or nil if none exists.
func (r *TaskRepository) FindByID(ctx context.Context, id core.TaskId) (*core.Task, error) {
	var task *core.Task
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, `
			SELECT id, title, description, type, status, strategy, assignees,
				dependencies, complexity, risk, metadata, heartbeat_at, created_at, updated_at
			FROM tasks WHERE id = ?`, string(id))
		t, scanErr := scanTask(row)
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return nil
			}
			return scanErr
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure(string(id), err)
	}
	return task, nil
}

// FindByStatus returns every task currently in the given status.
func (r *TaskRepository) FindByStatus(ctx context.Context, status core.TaskStatus) ([]*core.Task, error) {
	return r.queryTasks(ctx, `
		SELECT id, title, description, type, status, strategy, assignees,
			dependencies, complexity, risk, metadata, heartbeat_at, created_at, updated_at
		FROM tasks WHERE status = ? ORDER BY created_at`, string(status))
}

// FindByAgent returns every task with agentID among its assignees.
func (r *TaskRepository) FindByAgent(ctx context.Context, agentID core.AgentId) ([]*core.Task, error) {
	// assignees is stored as a JSON array; the kernel's task volumes do not
	// warrant a join table, so this scans and filters in Go the way the
	// teacher's JSON-backed state adapter does for comparable lookups.
	all, err := r.queryTasks(ctx, `
		SELECT id, title, description, type, status, strategy, assignees,
			dependencies, complexity, risk, metadata, heartbeat_at, created_at, updated_at
		FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Task, 0, len(all))
	for _, t := range all {
		for _, a := range t.Assignees {
			if a == agentID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// Filter bundles the optional predicates for QueryFiltered.
type Filter struct {
	Status   *core.TaskStatus
	AgentID  *core.AgentId
	From, To *time.Time
	Limit    int
	Offset   int
}

// QueryFiltered implements the task query surface the excluded HTTP layer
// consumes: filter by status/assignee/createdAt range, paginated with
// (page, pageSize) turned into a 64-bit offset by the caller.
func (r *TaskRepository) QueryFiltered(ctx context.Context, f Filter) ([]*core.Task, error) {
	query := `SELECT id, title, description, type, status, strategy, assignees,
		dependencies, complexity, risk, metadata, heartbeat_at, created_at, updated_at
		FROM tasks WHERE 1=1`
	var args []any
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*f.Status))
	}
	if f.From != nil {
		query += " AND created_at >= ?"
		args = append(args, *f.From)
	}
	if f.To != nil {
		query += " AND created_at <= ?"
		args = append(args, *f.To)
	}
	query += " ORDER BY created_at"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	tasks, err := r.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if f.AgentID == nil {
		return tasks, nil
	}
	out := make([]*core.Task, 0, len(tasks))
	for _, t := range tasks {
		for _, a := range t.Assignees {
			if a == *f.AgentID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// Offset computes a 64-bit page offset: (page-1)*pageSize. page must be >=1
// and pageSize in [1,200] per the query surface's contract; callers are
// expected to validate before calling (ValidatePagination does so).
func Offset(page, pageSize int64) int64 {
	return (page - 1) * pageSize
}

// ValidatePagination enforces page >= 1 and pageSize in [1,200].
func ValidatePagination(page, pageSize int64) error {
	if page < 1 {
		return core.ErrValidation("PAGE_OUT_OF_RANGE", "page must be >= 1")
	}
	if pageSize < 1 || pageSize > 200 {
		return core.ErrValidation("PAGE_SIZE_OUT_OF_RANGE", "pageSize must be in [1,200]")
	}
	return nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*core.Task, error) {
	var tasks []*core.Task
	err := r.store.WithConnection(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r taskRow
			if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Type, &r.Status, &r.Strategy,
				&r.Assignees, &r.Dependencies, &r.Complexity, &r.Risk, &r.Metadata, &r.HeartbeatAt,
				&r.CreatedAt, &r.UpdatedAt); err != nil {
				return err
			}
			t, err := rowToTask(r)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, core.ErrPersistenceFailure("", err)
	}
	return tasks, nil
}

// RecordTransition appends a StateTransition row. History storage is keyed
// by TaskId and is append-only, matching internal/statemachine's in-memory
// contract; this is the durable mirror of it.
func (r *TaskRepository) RecordTransition(ctx context.Context, id core.TaskId, tr core.StateTransition) error {
	metaJSON, err := json.Marshal(tr.Metadata)
	if err != nil {
		return core.ErrPersistenceFailure(string(id), err)
	}
	err = r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO task_transitions (task_id, from_state, to_state, metadata, occurred_at)
			VALUES (?, ?, ?, ?, ?)`,
			string(id), string(tr.From), string(tr.To), string(metaJSON), tr.Timestamp)
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(id), err)
	}
	return nil
}

// RefreshHeartbeat stamps the task's heartbeat column to now, letting a
// heartbeat-watcher detect a worker that died mid-execution: its task's
// heartbeat goes stale while status remains in-progress.
func (r *TaskRepository) RefreshHeartbeat(ctx context.Context, id core.TaskId) error {
	err := r.store.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `UPDATE tasks SET heartbeat_at=? WHERE id=?`, time.Now(), string(id))
		return execErr
	})
	if err != nil {
		return core.ErrPersistenceFailure(string(id), err)
	}
	return nil
}

// StaleInProgress returns in-progress tasks whose heartbeat has not been
// refreshed within maxAge (or was never set), i.e. candidates for requeue.
func (r *TaskRepository) StaleInProgress(ctx context.Context, maxAge time.Duration) ([]*core.Task, error) {
	cutoff := time.Now().Add(-maxAge)
	return r.queryTasks(ctx, `
		SELECT id, title, description, type, status, strategy, assignees,
			dependencies, complexity, risk, metadata, heartbeat_at, created_at, updated_at
		FROM tasks WHERE status = ? AND (heartbeat_at IS NULL OR heartbeat_at < ?)
		ORDER BY created_at`, string(core.TaskStatusInProgress), cutoff)
}
