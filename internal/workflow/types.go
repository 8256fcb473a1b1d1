// Package workflow owns task execution: routing, the optimistic-concurrency
// status transitions, and the solo/consensus/sequential/parallel executors
// that actually run agents.
package workflow

import (
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// StepKind names which of the three shapes a WorkflowStep carries.
type StepKind string

const (
	StepSuccess      StepKind = "success"
	StepFailure      StepKind = "failure"
	StepWaitingInput StepKind = "waiting-input"
)

// WorkflowStep is an executor's outcome for one execution attempt. Exactly
// one of the three shapes is meaningful, selected by Kind.
type WorkflowStep struct {
	Kind      StepKind
	Output    string
	Artifacts map[string]string
	Err       error
}

// Success builds a StepSuccess step.
func Success(output string, artifacts map[string]string) WorkflowStep {
	return WorkflowStep{Kind: StepSuccess, Output: output, Artifacts: artifacts}
}

// Failure builds a StepFailure step.
func Failure(err error) WorkflowStep {
	return WorkflowStep{Kind: StepFailure, Err: err}
}

// WaitingInput builds a StepWaitingInput step.
func WaitingInput() WorkflowStep {
	return WorkflowStep{Kind: StepWaitingInput}
}

// WorkflowResult is the runtime's summary of one RunTask call.
type WorkflowResult struct {
	TaskId     core.TaskId
	Status     core.TaskStatus
	Output     string
	Artifacts  map[string]string
	Err        error
	TokensIn   int
	TokensOut  int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}
