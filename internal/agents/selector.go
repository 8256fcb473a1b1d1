package agents

import (
	"sort"

	"github.com/conclave-ai/conclave/internal/core"
)

// defaultConsensusK is the default participant count for consensus
// selection when the caller doesn't specify one.
const defaultConsensusK = 3

// SuccessRateProvider supplies an agent's recent success rate, used only to
// break status ties during solo selection. A nil provider treats every
// agent as having a zero rate, falling through to id-order determinism.
type SuccessRateProvider interface {
	SuccessRate(agentId core.AgentId) float64
}

// TaskTypeCapability is the static task-type -> capability affinity map
// referenced by the design notes in place of a dynamic capability lookup.
func TaskTypeCapability(t core.TaskType) core.Capability {
	switch t {
	case core.TaskTypeImplementation, core.TaskTypeBugfix:
		return core.CapabilityCodeGeneration
	case core.TaskTypeReview:
		return core.CapabilityReview
	case core.TaskTypeTesting:
		return core.CapabilityTesting
	case core.TaskTypeArchitecture:
		return core.CapabilityArchitecture
	case core.TaskTypeDocumentation:
		return core.CapabilityDocumentation
	case core.TaskTypeResearch:
		return core.CapabilityPlanning
	default:
		return core.CapabilityCodeGeneration
	}
}

// Selector picks agents for solo and consensus routing.
type Selector struct {
	registry     *Registry
	successRates SuccessRateProvider
}

// NewSelector builds a Selector over registry. successRates may be nil.
func NewSelector(registry *Registry, successRates SuccessRateProvider) *Selector {
	return &Selector{registry: registry, successRates: successRates}
}

// SelectSolo honors directive.AssignToAgent iff that agent is online and
// capability-matched; otherwise it picks the capability-matching agent with
// the best status, breaking ties by recent success rate and then agent id
// for determinism.
func (s *Selector) SelectSolo(task *core.Task, directive *core.UserDirective) (core.AgentId, error) {
	capability := TaskTypeCapability(task.Type)
	candidates := s.registry.ByCapability(capability)
	if len(candidates) == 0 {
		return "", core.ErrNoEligibleAgent(string(task.Id), string(capability))
	}

	if directive != nil && directive.AssignToAgent != nil {
		for _, c := range candidates {
			if c.Id == *directive.AssignToAgent && c.Status == core.AgentStatusOnline {
				return c.Id, nil
			}
		}
	}

	sortByStatusThenSuccess(candidates, s.successRates)
	return candidates[0].Id, nil
}

// SelectConsensus returns the top-k (k >= 2, default 3) capability-matching
// agents across statuses, always including any directive-named agents that
// exist in the registry ahead of the ranked fill.
func (s *Selector) SelectConsensus(task *core.Task, directive *core.UserDirective, k int) ([]core.AgentId, error) {
	if k < 2 {
		k = defaultConsensusK
	}
	capability := TaskTypeCapability(task.Type)
	candidates := s.registry.ByCapability(capability)
	if len(candidates) == 0 {
		return nil, core.ErrNoEligibleAgent(string(task.Id), string(capability))
	}
	sortByStatusThenSuccess(candidates, s.successRates)

	seen := make(map[core.AgentId]bool)
	var selected []core.AgentId

	if directive != nil {
		for _, named := range directive.AssignedAgents {
			if seen[named] {
				continue
			}
			if _, ok := s.registry.Get(named); ok {
				seen[named] = true
				selected = append(selected, named)
			}
		}
	}

	for _, c := range candidates {
		if len(selected) >= k {
			break
		}
		if seen[c.Id] {
			continue
		}
		seen[c.Id] = true
		selected = append(selected, c.Id)
	}

	if len(selected) < 2 {
		return nil, core.ErrNoEligibleAgent(string(task.Id), string(capability))
	}
	return selected, nil
}

func sortByStatusThenSuccess(candidates []core.Agent, rates SuccessRateProvider) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := statusRank(candidates[i].Status), statusRank(candidates[j].Status)
		if ri != rj {
			return ri < rj
		}
		si, sj := successRateOf(rates, candidates[i].Id), successRateOf(rates, candidates[j].Id)
		if si != sj {
			return si > sj
		}
		return candidates[i].Id < candidates[j].Id
	})
}

func statusRank(status core.AgentStatus) int {
	switch status {
	case core.AgentStatusOnline:
		return 0
	case core.AgentStatusBusy:
		return 1
	default:
		return 2
	}
}

func successRateOf(rates SuccessRateProvider, id core.AgentId) float64 {
	if rates == nil {
		return 0
	}
	return rates.SuccessRate(id)
}
