package core

import (
	"errors"
	"testing"
)

func TestNewAgent_SanitizesDisplayName(t *testing.T) {
	agent, err := NewAgent("Claude Reviewer", "claude", CapabilityReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.Id != "claude-reviewer" {
		t.Fatalf("expected id %q, got %q", "claude-reviewer", agent.Id)
	}
	if agent.Status != AgentStatusOffline {
		t.Fatalf("new agent should start offline, got %s", agent.Status)
	}
	if !agent.HasCapability(CapabilityReview) {
		t.Fatal("expected review capability to be set")
	}
	if agent.HasCapability(CapabilityTesting) {
		t.Fatal("did not expect testing capability")
	}
}

func TestNewAgent_EmptyNameFails(t *testing.T) {
	_, err := NewAgent("!!!", "claude")
	if !errors.As(err, new(*DomainError)) {
		t.Fatalf("expected a *DomainError, got %v", err)
	}
}

func TestAgent_IsAvailable(t *testing.T) {
	agent, _ := NewAgent("worker", "claude")
	agent.Status = AgentStatusOffline
	if agent.IsAvailable() {
		t.Fatal("offline agent should not be available")
	}
	agent.Status = AgentStatusBusy
	if !agent.IsAvailable() {
		t.Fatal("busy agent should still be available")
	}
}
