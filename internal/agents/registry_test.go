package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

func mustAgent(t *testing.T, name string, status core.AgentStatus, caps ...core.Capability) core.Agent {
	t.Helper()
	a, err := core.NewAgent(name, "claude", caps...)
	if err != nil {
		t.Fatalf("failed to build agent: %v", err)
	}
	a.Status = status
	return *a
}

func TestRegistry_GetAndByCapability(t *testing.T) {
	a1 := mustAgent(t, "Reviewer One", core.AgentStatusOnline, core.CapabilityReview)
	a2 := mustAgent(t, "Coder One", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{a1, a2})

	got, ok := reg.Get(a1.Id)
	if !ok || got.Id != a1.Id {
		t.Fatalf("expected to find agent %s", a1.Id)
	}

	reviewers := reg.ByCapability(core.CapabilityReview)
	if len(reviewers) != 1 || reviewers[0].Id != a1.Id {
		t.Fatalf("expected exactly one reviewer, got %v", reviewers)
	}
}

func TestRegistry_SetStatus(t *testing.T) {
	a1 := mustAgent(t, "Worker", core.AgentStatusOffline, core.CapabilityTesting)
	reg := New([]core.Agent{a1})

	if !reg.SetStatus(a1.Id, core.AgentStatusOnline) {
		t.Fatal("expected SetStatus to succeed for a known agent")
	}
	got, _ := reg.Get(a1.Id)
	if got.Status != core.AgentStatusOnline {
		t.Fatalf("expected status online, got %s", got.Status)
	}
	if reg.SetStatus("unknown-agent", core.AgentStatusOnline) {
		t.Fatal("expected SetStatus to fail for an unknown agent")
	}
}

type fakeChecker struct {
	errs  map[core.AgentId]error
	panic map[core.AgentId]bool
}

func (f fakeChecker) Ping(ctx context.Context, id core.AgentId) error {
	if f.panic[id] {
		panic("boom")
	}
	return f.errs[id]
}

func TestRegistry_RunHealthChecks_TripsBreakerAfterThreshold(t *testing.T) {
	a1 := mustAgent(t, "Flaky", core.AgentStatusOnline, core.CapabilityTesting)
	reg := New([]core.Agent{a1})
	checker := fakeChecker{errs: map[core.AgentId]error{a1.Id: errors.New("down")}}

	reg.RunHealthChecks(context.Background(), checker)
	got, _ := reg.Get(a1.Id)
	if got.Status != core.AgentStatusOnline {
		t.Fatalf("expected status to remain online before threshold, got %s", got.Status)
	}

	reg.RunHealthChecks(context.Background(), checker)
	got, _ = reg.Get(a1.Id)
	if got.Status != core.AgentStatusOffline {
		t.Fatalf("expected status offline after threshold failures, got %s", got.Status)
	}
}

func TestRegistry_RunHealthChecks_PanicCollapsesToOffline(t *testing.T) {
	a1 := mustAgent(t, "Panicky", core.AgentStatusOnline, core.CapabilityTesting)
	reg := New([]core.Agent{a1})
	checker := fakeChecker{panic: map[core.AgentId]bool{a1.Id: true}}

	reg.RunHealthChecks(context.Background(), checker)
	reg.RunHealthChecks(context.Background(), checker)
	got, _ := reg.Get(a1.Id)
	if got.Status != core.AgentStatusOffline {
		t.Fatalf("expected panicking checker to collapse to offline, got %s", got.Status)
	}
}

func TestRegistry_RunHealthChecks_RecoversOnSuccess(t *testing.T) {
	a1 := mustAgent(t, "Recovering", core.AgentStatusOnline, core.CapabilityTesting)
	reg := New([]core.Agent{a1})
	failing := fakeChecker{errs: map[core.AgentId]error{a1.Id: errors.New("down")}}

	reg.RunHealthChecks(context.Background(), failing)
	reg.RunHealthChecks(context.Background(), failing)
	got, _ := reg.Get(a1.Id)
	if got.Status != core.AgentStatusOffline {
		t.Fatalf("expected offline after two failures, got %s", got.Status)
	}

	ok := fakeChecker{}
	reg.RunHealthChecks(context.Background(), ok)
	got, _ = reg.Get(a1.Id)
	if got.Status != core.AgentStatusOnline {
		t.Fatalf("expected a subsequent success to bring the agent back online, got %s", got.Status)
	}
}
