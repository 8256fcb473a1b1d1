package strategy

import (
	"testing"

	"github.com/conclave-ai/conclave/internal/classifier"
	"github.com/conclave-ai/conclave/internal/core"
)

func TestPick_ForceConsensus(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("add a quick fix", core.TaskTypeDocumentation).WithComplexity(2).WithRisk(2)
	directive := core.NewUserDirective("we need consensus on this change")
	directive.ForceConsensus = true
	directive.ForceConsensusConfidence = 0.8

	got := p.Pick(task, directive, nil)
	if got.Strategy != core.RoutingConsensus || got.Rule != RuleForceConsensus {
		t.Fatalf("got %+v, want consensus via force-consensus", got)
	}
}

func TestPick_PreventConsensus(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("fix bug", core.TaskTypeBugfix).WithRisk(8)
	directive := core.NewUserDirective("just solo this, no review needed")
	directive.PreventConsensus = true
	directive.PreventConsensusConfidence = 0.9

	got := p.Pick(task, directive, nil)
	if got.Strategy != core.RoutingSolo || got.Rule != RulePreventConsensus {
		t.Fatalf("got %+v, want solo via prevent-consensus", got)
	}
}

func TestPick_EmergencyBypass(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("fix prod", core.TaskTypeBugfix).WithComplexity(8).WithRisk(10)
	directive := core.NewUserDirective("Emergency: production down. Skip review and ship")
	directive.IsEmergency = true

	got := p.Pick(task, directive, nil)
	if got.Strategy != core.RoutingSolo || got.Rule != RuleEmergencyBypass {
		t.Fatalf("got %+v, want solo via emergency-bypass", got)
	}
}

func TestPick_EmergencyDoesNotOverrideActiveForce(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("fix prod", core.TaskTypeBugfix).WithRisk(9)
	directive := core.NewUserDirective("Emergency, but get consensus anyway")
	directive.IsEmergency = true
	directive.ForceConsensus = true
	directive.ForceConsensusConfidence = 0.9

	got := p.Pick(task, directive, nil)
	if got.Strategy != core.RoutingConsensus || got.Rule != RuleForceConsensus {
		t.Fatalf("got %+v, want force-consensus to win over emergency", got)
	}
}

func TestPick_ArchitecturalSequencing(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("redesign the platform", core.TaskTypeArchitecture).WithComplexity(8).WithRisk(3)

	got := p.Pick(task, nil, nil)
	if got.Strategy != core.RoutingSequential || got.Rule != RuleArchitectural {
		t.Fatalf("got %+v, want sequential via architectural-sequencing", got)
	}
}

func TestPick_ArchitecturalYieldsToRiskWhenCritical(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("redesign auth platform", core.TaskTypeArchitecture).WithComplexity(8).WithRisk(3)
	classification := &classifier.Classification{CriticalKeywords: []string{"auth"}}

	got := p.Pick(task, nil, classification)
	if got.Strategy != core.RoutingConsensus || got.Rule != RuleRisk {
		t.Fatalf("got %+v, want consensus via critical-or-high-risk when keywords are present", got)
	}
}

func TestPick_CriticalKeywordsTriggerConsensus(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("rotate jwt secrets", core.TaskTypeImplementation).WithRisk(3)
	classification := &classifier.Classification{CriticalKeywords: []string{"jwt"}}

	got := p.Pick(task, nil, classification)
	if got.Strategy != core.RoutingConsensus || got.Rule != RuleRisk {
		t.Fatalf("got %+v, want consensus via critical-or-high-risk", got)
	}
}

func TestPick_HighRiskTriggersConsensus(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("touch the payment path", core.TaskTypeImplementation).WithRisk(8)

	got := p.Pick(task, nil, nil)
	if got.Strategy != core.RoutingConsensus || got.Rule != RuleRisk {
		t.Fatalf("got %+v, want consensus via critical-or-high-risk", got)
	}
}

func TestPick_ParallelizableMetadata(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("migrate 10 independent services", core.TaskTypeImplementation).WithRisk(2)
	task.WithMetadata(map[string]string{"parallelizable": "true"})

	got := p.Pick(task, nil, nil)
	if got.Strategy != core.RoutingParallel || got.Rule != RuleParallel {
		t.Fatalf("got %+v, want parallel via parallel-cue", got)
	}
}

func TestPick_ParallelCueInDirective(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("update all configs", core.TaskTypeImplementation).WithRisk(2)
	directive := core.NewUserDirective("please do these simultaneously")

	got := p.Pick(task, directive, nil)
	if got.Strategy != core.RoutingParallel || got.Rule != RuleParallel {
		t.Fatalf("got %+v, want parallel via parallel-cue", got)
	}
}

func TestPick_DefaultsToSolo(t *testing.T) {
	p := NewPicker(nil)
	task := core.NewTask("write a small doc tweak", core.TaskTypeDocumentation).WithRisk(1)

	got := p.Pick(task, nil, nil)
	if got.Strategy != core.RoutingSolo || got.Rule != RuleDefault {
		t.Fatalf("got %+v, want default solo", got)
	}
}

func TestHasParallelCue(t *testing.T) {
	if !hasParallelCue("Let's fan out across the services") {
		t.Fatal("expected 'fan out' to be recognized as a parallel cue")
	}
	if hasParallelCue("just do this one at a time") {
		t.Fatal("did not expect a parallel cue in sequential-sounding text")
	}
}
