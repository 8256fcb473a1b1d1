package core

import "time"

// TaskType classifies the kind of work a Task represents.
type TaskType string

const (
	TaskTypeImplementation TaskType = "implementation"
	TaskTypeBugfix         TaskType = "bugfix"
	TaskTypeReview         TaskType = "review"
	TaskTypeTesting        TaskType = "testing"
	TaskTypeDocumentation  TaskType = "documentation"
	TaskTypeArchitecture   TaskType = "architecture"
	TaskTypeResearch       TaskType = "research"
	TaskTypeOther          TaskType = "other"
)

// TaskStatus is the lifecycle state of a Task. Allowed transitions are
// enforced by the statemachine package, not here.
type TaskStatus string

const (
	TaskStatusPending       TaskStatus = "pending"
	TaskStatusInProgress    TaskStatus = "in-progress"
	TaskStatusWaitingInput  TaskStatus = "waiting-input"
	TaskStatusCompleted     TaskStatus = "completed"
	TaskStatusFailed        TaskStatus = "failed"
)

// IsTerminal reports whether status has no further allowed transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// RoutingStrategy selects which workflow executor dispatches a Task.
type RoutingStrategy string

const (
	RoutingSolo       RoutingStrategy = "solo"
	RoutingConsensus  RoutingStrategy = "consensus"
	RoutingSequential RoutingStrategy = "sequential"
	RoutingParallel   RoutingStrategy = "parallel"
)

// Task is a unit of work routed to one or more agents.
type Task struct {
	Id           TaskId
	Title        string
	Description  string
	Type         TaskType
	Status       TaskStatus
	Strategy     RoutingStrategy
	Assignees    []AgentId
	Dependencies []TaskId
	Complexity   int
	Risk         int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Metadata     map[string]string
}

// NewTask constructs a Task in TaskStatusPending with complexity/risk
// defaulted to the lowest value, ready for classification and routing.
func NewTask(title string, taskType TaskType) *Task {
	now := time.Now()
	return &Task{
		Id:         NewTaskId(),
		Title:      title,
		Type:       taskType,
		Status:     TaskStatusPending,
		Complexity: 1,
		Risk:       1,
		CreatedAt:  now,
		UpdatedAt:  now,
		Metadata:   make(map[string]string),
	}
}

// WithDescription sets the task description.
func (t *Task) WithDescription(description string) *Task {
	t.Description = description
	return t
}

// WithComplexity sets the task complexity (caller-validated range).
func (t *Task) WithComplexity(complexity int) *Task {
	t.Complexity = complexity
	return t
}

// WithRisk sets the task risk (caller-validated range).
func (t *Task) WithRisk(risk int) *Task {
	t.Risk = risk
	return t
}

// WithDependencies replaces the task's dependency set.
func (t *Task) WithDependencies(deps ...TaskId) *Task {
	t.Dependencies = deps
	return t
}

// WithMetadata merges key/value pairs into the task's metadata map.
func (t *Task) WithMetadata(kv map[string]string) *Task {
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	for k, v := range kv {
		t.Metadata[k] = v
	}
	return t
}

// Route assigns a strategy and an ordered, deduplicated assignee list. Per
// the data-model invariant, assignees must be non-empty once routed.
func (t *Task) Route(strategy RoutingStrategy, assignees ...AgentId) error {
	if len(assignees) == 0 {
		return ErrValidation("TASK_ROUTE_EMPTY_ASSIGNEES", "cannot route a task with zero assignees")
	}
	seen := make(map[AgentId]bool, len(assignees))
	ordered := make([]AgentId, 0, len(assignees))
	for _, a := range assignees {
		if seen[a] {
			continue
		}
		seen[a] = true
		ordered = append(ordered, a)
	}
	t.Strategy = strategy
	t.Assignees = ordered
	t.touch()
	return nil
}

// Touch refreshes UpdatedAt; exported for callers that mutate Task fields
// directly (e.g. the storage layer hydrating from a row).
func (t *Task) Touch() { t.touch() }

func (t *Task) touch() { t.UpdatedAt = time.Now() }

// IsTerminal reports whether the task has reached a terminal status.
func (t *Task) IsTerminal() bool { return t.Status.IsTerminal() }

// HasDependency reports whether id is among the task's dependencies.
func (t *Task) HasDependency(id TaskId) bool {
	for _, d := range t.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}

// Validate checks the Task data-model invariants from the domain model:
// identifier well-formedness, a non-empty title, and complexity/risk within
// [1, 10]. It does not check the assignees-non-empty-once-routed invariant,
// since that is a property of Route, not of every Task snapshot (a task
// still pending routing legitimately has no assignees).
func (t *Task) Validate() error {
	if err := ValidateTaskId(t.Id); err != nil {
		return ErrValidation("TASK_ID_INVALID", err.Error())
	}
	if t.Title == "" {
		return ErrValidation("TASK_TITLE_REQUIRED", "task title cannot be empty")
	}
	if t.Complexity < 1 || t.Complexity > 10 {
		return ErrValidation("TASK_COMPLEXITY_OUT_OF_RANGE", "complexity must be in [1,10]")
	}
	if t.Risk < 1 || t.Risk > 10 {
		return ErrValidation("TASK_RISK_OUT_OF_RANGE", "risk must be in [1,10]")
	}
	return nil
}
