// Package statemachine enforces the task lifecycle's allowed transitions
// and keeps a per-task append-only history.
package statemachine

import (
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// allowed is the transition table from the lifecycle specification: unlisted
// transitions are rejected.
var allowed = map[core.TaskStatus]map[core.TaskStatus]bool{
	core.TaskStatusPending: {
		core.TaskStatusInProgress: true,
		core.TaskStatusFailed:     true,
	},
	core.TaskStatusInProgress: {
		core.TaskStatusWaitingInput: true,
		core.TaskStatusCompleted:    true,
		core.TaskStatusFailed:       true,
	},
	core.TaskStatusWaitingInput: {
		core.TaskStatusInProgress: true,
		core.TaskStatusFailed:     true,
	},
	core.TaskStatusCompleted: {},
	core.TaskStatusFailed:    {},
}

// IsAllowed reports whether a from -> to transition is permitted.
func IsAllowed(from, to core.TaskStatus) bool {
	return allowed[from][to]
}

// StateMachine tracks per-task transition history, guarded by a concurrent
// map of per-key mutexes so unrelated tasks never contend.
type StateMachine struct {
	mu      sync.RWMutex
	history map[core.TaskId][]core.StateTransition
}

// New constructs an empty StateMachine.
func New() *StateMachine {
	return &StateMachine{history: make(map[core.TaskId][]core.StateTransition)}
}

// Transition validates and records a from -> to transition for taskId. Per
// the design notes, this is called strictly after the repository has
// already committed the new status; an in-memory rejection here after a
// successful commit is a bug, not a rollback trigger, so callers must treat
// a non-nil error as something to log at error level, not to retry.
func (m *StateMachine) Transition(taskId core.TaskId, from, to core.TaskStatus, metadata map[string]string) error {
	if !IsAllowed(from, to) {
		return core.ErrOrchestrationConflict(string(taskId), from, to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[taskId] = append(m.history[taskId], core.StateTransition{
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	return nil
}

// History returns a copy of the recorded transitions for taskId, oldest
// first.
func (m *StateMachine) History(taskId core.TaskId) []core.StateTransition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.history[taskId]
	out := make([]core.StateTransition, len(src))
	copy(out, src)
	return out
}

// Reset clears all recorded history. Intended for test isolation: the
// module's design notes require every engine-scoped service to support a
// reset contract rather than relying on process restarts between tests.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = make(map[core.TaskId][]core.StateTransition)
}
