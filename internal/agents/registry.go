// Package agents implements the agent registry (a concurrent map of agents
// by id and by capability with an atomically-replaceable status cell and a
// circuit-breaker-driven health check loop) and the selector (capability-
// and status-aware agent selection for solo/consensus routing).
package agents

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/conclave-ai/conclave/internal/core"
)

type statusCell struct {
	v atomic.Value
}

func newStatusCell(initial core.AgentStatus) *statusCell {
	c := &statusCell{}
	c.v.Store(initial)
	return c
}

func (c *statusCell) Load() core.AgentStatus { return c.v.Load().(core.AgentStatus) }
func (c *statusCell) Store(s core.AgentStatus) { c.v.Store(s) }

type record struct {
	agent   core.Agent
	status  *statusCell
	breaker *CircuitBreaker
}

func (r *record) snapshot() core.Agent {
	a := r.agent
	a.Status = r.status.Load()
	return a
}

// Registry is a thread-safe collection of agents, immutable in shape after
// construction: no agent is ever added or removed from the core; a
// reconfiguration is a full rebuild via New.
type Registry struct {
	mu           sync.RWMutex
	byId         map[core.AgentId]*record
	byCapability map[core.Capability][]*record
}

// New builds a Registry from a fixed set of configured agents.
func New(configured []core.Agent) *Registry {
	r := &Registry{
		byId:         make(map[core.AgentId]*record, len(configured)),
		byCapability: make(map[core.Capability][]*record),
	}
	for _, a := range configured {
		rec := &record{
			agent:   a,
			status:  newStatusCell(a.Status),
			breaker: NewCircuitBreaker(DefaultCircuitBreakerThreshold),
		}
		r.byId[a.Id] = rec
		for capability := range a.Capabilities {
			r.byCapability[capability] = append(r.byCapability[capability], rec)
		}
	}
	return r
}

// Get returns a snapshot of the agent with the given id.
func (r *Registry) Get(id core.AgentId) (core.Agent, bool) {
	r.mu.RLock()
	rec, ok := r.byId[id]
	r.mu.RUnlock()
	if !ok {
		return core.Agent{}, false
	}
	return rec.snapshot(), true
}

// Agents returns a snapshot of every registered agent. It implements
// directive.AgentDirectory.
func (r *Registry) Agents() []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Agent, 0, len(r.byId))
	for _, rec := range r.byId {
		out = append(out, rec.snapshot())
	}
	return out
}

// ByCapability returns a snapshot of every agent registered for capability.
func (r *Registry) ByCapability(capability core.Capability) []core.Agent {
	r.mu.RLock()
	recs := r.byCapability[capability]
	out := make([]core.Agent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.snapshot())
	}
	r.mu.RUnlock()
	return out
}

// SetStatus atomically replaces an agent's status. Returns false if id is
// not registered.
func (r *Registry) SetStatus(id core.AgentId, status core.AgentStatus) bool {
	r.mu.RLock()
	rec, ok := r.byId[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	rec.status.Store(status)
	return true
}

// HealthChecker pings a single agent and reports whether it responded.
type HealthChecker interface {
	Ping(ctx context.Context, agentId core.AgentId) error
}

// RunHealthChecks iterates a stable snapshot of registered agents, pinging
// each through checker. Any panic from checker collapses that agent to
// offline, the same as a returned error. Consecutive failures trip a
// per-agent circuit breaker before the agent is marked offline, so a single
// transient failure does not flap its status.
func (r *Registry) RunHealthChecks(ctx context.Context, checker HealthChecker) {
	r.mu.RLock()
	snapshot := make([]*record, 0, len(r.byId))
	for _, rec := range r.byId {
		snapshot = append(snapshot, rec)
	}
	r.mu.RUnlock()

	for _, rec := range snapshot {
		if err := safePing(ctx, checker, rec.agent.Id); err != nil {
			rec.breaker.RecordFailure()
			if rec.breaker.IsOpen() {
				rec.status.Store(core.AgentStatusOffline)
			}
			continue
		}
		rec.breaker.RecordSuccess()
		rec.breaker.Close()
		if rec.status.Load() == core.AgentStatusOffline {
			rec.status.Store(core.AgentStatusOnline)
		}
	}
}

func safePing(ctx context.Context, checker HealthChecker, id core.AgentId) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("health check panicked for agent %s: %v", id, p)
		}
	}()
	return checker.Ping(ctx, id)
}
