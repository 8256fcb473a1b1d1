package statemachine

import (
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestIsAllowed_ValidTransitions(t *testing.T) {
	cases := []struct {
		from, to core.TaskStatus
	}{
		{core.TaskStatusPending, core.TaskStatusInProgress},
		{core.TaskStatusPending, core.TaskStatusFailed},
		{core.TaskStatusInProgress, core.TaskStatusWaitingInput},
		{core.TaskStatusInProgress, core.TaskStatusCompleted},
		{core.TaskStatusInProgress, core.TaskStatusFailed},
		{core.TaskStatusWaitingInput, core.TaskStatusInProgress},
		{core.TaskStatusWaitingInput, core.TaskStatusFailed},
	}
	for _, c := range cases {
		if !IsAllowed(c.from, c.to) {
			t.Errorf("expected %s -> %s to be allowed", c.from, c.to)
		}
	}
}

func TestIsAllowed_InvalidTransitions(t *testing.T) {
	cases := []struct {
		from, to core.TaskStatus
	}{
		{core.TaskStatusCompleted, core.TaskStatusInProgress},
		{core.TaskStatusFailed, core.TaskStatusInProgress},
		{core.TaskStatusPending, core.TaskStatusCompleted},
		{core.TaskStatusPending, core.TaskStatusWaitingInput},
	}
	for _, c := range cases {
		if IsAllowed(c.from, c.to) {
			t.Errorf("expected %s -> %s to be rejected", c.from, c.to)
		}
	}
}

func TestStateMachine_Transition_AppendsHistory(t *testing.T) {
	sm := New()
	taskId := core.TaskId("task-1")

	if err := sm.Transition(taskId, core.TaskStatusPending, core.TaskStatusInProgress, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Transition(taskId, core.TaskStatusInProgress, core.TaskStatusCompleted, map[string]string{"reason": "done"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hist := sm.History(taskId)
	if len(hist) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(hist))
	}
	if hist[0].From != core.TaskStatusPending || hist[0].To != core.TaskStatusInProgress {
		t.Fatalf("unexpected first transition: %+v", hist[0])
	}
	if hist[1].Metadata["reason"] != "done" {
		t.Fatalf("expected metadata to be recorded, got %+v", hist[1].Metadata)
	}
}

func TestStateMachine_Transition_RejectsInvalid(t *testing.T) {
	sm := New()
	taskId := core.TaskId("task-1")

	err := sm.Transition(taskId, core.TaskStatusCompleted, core.TaskStatusInProgress, nil)
	if err == nil {
		t.Fatal("expected error for invalid transition")
	}
	if core.GetCategory(err) != core.ErrCatOrchestrationConflict {
		t.Fatalf("expected orchestration_conflict category, got %s", core.GetCategory(err))
	}
	if len(sm.History(taskId)) != 0 {
		t.Fatal("expected no history appended for a rejected transition")
	}
}

func TestStateMachine_Reset(t *testing.T) {
	sm := New()
	taskId := core.TaskId("task-1")
	_ = sm.Transition(taskId, core.TaskStatusPending, core.TaskStatusInProgress, nil)
	sm.Reset()
	if len(sm.History(taskId)) != 0 {
		t.Fatal("expected history to be cleared after Reset")
	}
}
