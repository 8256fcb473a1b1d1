package agents

import (
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

type fakeRates map[core.AgentId]float64

func (f fakeRates) SuccessRate(id core.AgentId) float64 { return f[id] }

func TestTaskTypeCapability(t *testing.T) {
	cases := map[core.TaskType]core.Capability{
		core.TaskTypeImplementation: core.CapabilityCodeGeneration,
		core.TaskTypeBugfix:         core.CapabilityCodeGeneration,
		core.TaskTypeReview:         core.CapabilityReview,
		core.TaskTypeTesting:        core.CapabilityTesting,
		core.TaskTypeArchitecture:   core.CapabilityArchitecture,
		core.TaskTypeDocumentation:  core.CapabilityDocumentation,
		core.TaskTypeResearch:       core.CapabilityPlanning,
		core.TaskTypeOther:          core.CapabilityCodeGeneration,
	}
	for taskType, want := range cases {
		if got := TaskTypeCapability(taskType); got != want {
			t.Errorf("TaskTypeCapability(%s) = %s, want %s", taskType, got, want)
		}
	}
}

func TestSelectSolo_HonorsOnlineDirectiveNamedAgent(t *testing.T) {
	named := mustAgent(t, "Named Coder", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	better := mustAgent(t, "Better Coder", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{named, better})
	rates := fakeRates{better.Id: 0.99, named.Id: 0.1}
	sel := NewSelector(reg, rates)

	task := core.NewTask("fix bug", core.TaskTypeImplementation)
	directive := core.NewUserDirective("please have named coder do this")
	directive.AssignToAgent = &named.Id

	got, err := sel.SelectSolo(task, directive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != named.Id {
		t.Fatalf("expected directive-named agent %s, got %s", named.Id, got)
	}
}

func TestSelectSolo_IgnoresOfflineDirectiveNamedAgent(t *testing.T) {
	named := mustAgent(t, "Named Coder", core.AgentStatusOffline, core.CapabilityCodeGeneration)
	fallback := mustAgent(t, "Fallback Coder", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{named, fallback})
	sel := NewSelector(reg, nil)

	task := core.NewTask("fix bug", core.TaskTypeImplementation)
	directive := core.NewUserDirective("have named coder do this")
	directive.AssignToAgent = &named.Id

	got, err := sel.SelectSolo(task, directive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != fallback.Id {
		t.Fatalf("expected fallback to the online agent %s, got %s", fallback.Id, got)
	}
}

func TestSelectSolo_FallsBackToStatusThenSuccessRate(t *testing.T) {
	busy := mustAgent(t, "Busy Coder", core.AgentStatusBusy, core.CapabilityCodeGeneration)
	onlineLow := mustAgent(t, "Online Low Coder", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	onlineHigh := mustAgent(t, "Online High Coder", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{busy, onlineLow, onlineHigh})
	rates := fakeRates{onlineLow.Id: 0.2, onlineHigh.Id: 0.9}
	sel := NewSelector(reg, rates)

	task := core.NewTask("fix bug", core.TaskTypeImplementation)
	got, err := sel.SelectSolo(task, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != onlineHigh.Id {
		t.Fatalf("expected the online agent with the highest success rate %s, got %s", onlineHigh.Id, got)
	}
}

func TestSelectSolo_NoEligibleAgent(t *testing.T) {
	reg := New(nil)
	sel := NewSelector(reg, nil)
	task := core.NewTask("fix bug", core.TaskTypeImplementation)

	_, err := sel.SelectSolo(task, nil)
	if err == nil {
		t.Fatal("expected an error when no agents are registered")
	}
}

func TestSelectConsensus_DefaultK(t *testing.T) {
	agents := []core.Agent{
		mustAgent(t, "Coder A", core.AgentStatusOnline, core.CapabilityCodeGeneration),
		mustAgent(t, "Coder B", core.AgentStatusOnline, core.CapabilityCodeGeneration),
		mustAgent(t, "Coder C", core.AgentStatusOnline, core.CapabilityCodeGeneration),
		mustAgent(t, "Coder D", core.AgentStatusOnline, core.CapabilityCodeGeneration),
	}
	reg := New(agents)
	sel := NewSelector(reg, nil)
	task := core.NewTask("implement feature", core.TaskTypeImplementation)

	got, err := sel.SelectConsensus(task, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != defaultConsensusK {
		t.Fatalf("expected default k=%d participants, got %d", defaultConsensusK, len(got))
	}
}

func TestSelectConsensus_IncludesDirectiveNamedAgents(t *testing.T) {
	named := mustAgent(t, "Specialist", core.AgentStatusOffline, core.CapabilityCodeGeneration)
	a := mustAgent(t, "Coder A", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	b := mustAgent(t, "Coder B", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{named, a, b})
	sel := NewSelector(reg, nil)
	task := core.NewTask("implement feature", core.TaskTypeImplementation)

	directive := core.NewUserDirective("bring in the specialist")
	directive.AssignedAgents = []core.AgentId{named.Id}

	got, err := sel.SelectConsensus(task, directive, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, id := range got {
		if id == named.Id {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected directive-named agent %s to be included, got %v", named.Id, got)
	}
}

func TestSelectConsensus_DeduplicatesDirectiveNamedAgents(t *testing.T) {
	named := mustAgent(t, "Specialist", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	other := mustAgent(t, "Coder A", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{named, other})
	sel := NewSelector(reg, nil)
	task := core.NewTask("implement feature", core.TaskTypeImplementation)

	directive := core.NewUserDirective("bring in the specialist twice")
	directive.AssignedAgents = []core.AgentId{named.Id, named.Id}

	got, err := sel.SelectConsensus(task, directive, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for _, id := range got {
		if id == named.Id {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected the named agent to appear exactly once, got %d times in %v", count, got)
	}
}

func TestSelectConsensus_NoEligibleAgentWhenFewerThanTwo(t *testing.T) {
	solo := mustAgent(t, "Lone Coder", core.AgentStatusOnline, core.CapabilityCodeGeneration)
	reg := New([]core.Agent{solo})
	sel := NewSelector(reg, nil)
	task := core.NewTask("implement feature", core.TaskTypeImplementation)

	_, err := sel.SelectConsensus(task, nil, 3)
	if err == nil {
		t.Fatal("expected an error when fewer than two agents are eligible")
	}
}

func TestSelectConsensus_NoEligibleAgentWhenNoCandidates(t *testing.T) {
	reg := New(nil)
	sel := NewSelector(reg, nil)
	task := core.NewTask("implement feature", core.TaskTypeImplementation)

	_, err := sel.SelectConsensus(task, nil, 3)
	if err == nil {
		t.Fatal("expected an error when no candidates exist")
	}
}
