package directive

import (
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

type fakeDirectory struct {
	agents []core.Agent
}

func (f fakeDirectory) Agents() []core.Agent { return f.agents }

func newAgent(t *testing.T, name string) core.Agent {
	t.Helper()
	a, err := core.NewAgent(name, "claude", core.CapabilityReview)
	if err != nil {
		t.Fatalf("failed to build test agent: %v", err)
	}
	return *a
}

func TestParse_ForceConsensusPhrase(t *testing.T) {
	d := Parse("We need consensus on this change", nil)
	if !d.ForceConsensus {
		t.Fatalf("expected forceConsensus, got %+v", d)
	}
}

func TestParse_PreventConsensusPhrase(t *testing.T) {
	d := Parse("just implement this solo, skip consensus", nil)
	if !d.PreventConsensus {
		t.Fatalf("expected preventConsensus, got %+v", d)
	}
}

func TestParse_EmergencyBypassesConsensus(t *testing.T) {
	d := Parse("Emergency: production down. Skip review and ship", nil)
	if !d.IsEmergency {
		t.Fatal("expected isEmergency")
	}
	if d.ForceConsensus {
		t.Fatal("did not expect forceConsensus during an emergency with no forcing cue")
	}
}

func TestParse_NegationFlipsPolarity(t *testing.T) {
	negated := Parse("don't skip consensus on this one", nil)
	plain := Parse("skip consensus on this one", nil)
	if negated.ForceConsensusConfidence <= plain.ForceConsensusConfidence {
		t.Fatalf("expected negated prevent phrase to raise forceConsensus confidence: negated=%v plain=%v",
			negated.ForceConsensusConfidence, plain.ForceConsensusConfidence)
	}
}

func TestParse_ResolvesExactAgentMention(t *testing.T) {
	agent := newAgent(t, "Claude Reviewer")
	dir := fakeDirectory{agents: []core.Agent{agent}}
	d := Parse("please route this to claude-reviewer", dir)
	if d.AssignToAgent == nil || *d.AssignToAgent != agent.Id {
		t.Fatalf("expected agent %q to be resolved, got %+v", agent.Id, d.AssignToAgent)
	}
}

func TestParse_MultipleAgentMentionsForceConsensus(t *testing.T) {
	a1 := newAgent(t, "Claude Reviewer")
	a2 := newAgent(t, "Gpt Planner")
	dir := fakeDirectory{agents: []core.Agent{a1, a2}}
	d := Parse("loop in @claude-reviewer and @gpt-planner on this", dir)
	if len(d.AssignedAgents) != 2 {
		t.Fatalf("expected 2 resolved agents, got %v", d.AssignedAgents)
	}
	if !d.ForceConsensus {
		t.Fatal("expected multiple distinct agent mentions to force consensus")
	}
}

func TestParse_FalsePositiveExclusion(t *testing.T) {
	userAgent := newAgent(t, "user")
	dir := fakeDirectory{agents: []core.Agent{userAgent}}
	d := Parse("please validate the user input before submission", dir)
	if len(d.AssignedAgents) != 0 || d.AssignToAgent != nil {
		t.Fatalf("expected 'user' false positive to be excluded, got %+v / %v", d.AssignToAgent, d.AssignedAgents)
	}
}

func TestParse_FalsePositiveExclusion_ExplicitMentionStillResolves(t *testing.T) {
	userAgent := newAgent(t, "user")
	dir := fakeDirectory{agents: []core.Agent{userAgent}}
	d := Parse("please route this to @user directly", dir)
	if d.AssignToAgent == nil {
		t.Fatal("expected explicit @user mention to resolve despite the exclusion list")
	}
}

func TestParse_ParsingNotesBounded(t *testing.T) {
	d := Parse("we need consensus and require consensus and want consensus, don't skip review, don't skip consensus, emergency urgent asap sev0", nil)
	if len(d.ParsingNotes) > 25 {
		t.Fatalf("expected parsing notes bounded at 25, got %d", len(d.ParsingNotes))
	}
}

func TestParse_ConfidencesClamped(t *testing.T) {
	d := Parse("need consensus require consensus want consensus need consensus require consensus want consensus", nil)
	if d.ForceConsensusConfidence > 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", d.ForceConsensusConfidence)
	}
}

func TestParse_TieResolvedToNeutral(t *testing.T) {
	d := core.NewUserDirective("x")
	d.ForceConsensus = true
	d.ForceConsensusConfidence = 0.55
	d.PreventConsensus = true
	d.PreventConsensusConfidence = 0.5
	resolveTie(d, false)
	if d.ForceConsensus || d.PreventConsensus {
		t.Fatalf("expected tied signals to be cleared, got force=%v prevent=%v", d.ForceConsensus, d.PreventConsensus)
	}
}
