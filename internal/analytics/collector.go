// Package analytics aggregates token usage, task outcomes, and consensus
// results into in-process rollups, a durable usage ledger, and Prometheus
// gauges/counters, and raises threshold alerts over the event bus the way
// the teacher's metrics collector fed its CLI's summary report.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/storage"
)

// WorkflowMetrics is the process-wide rollup across every task observed
// since the Collector was created or last Reset.
type WorkflowMetrics struct {
	TasksTotal     int
	TasksCompleted int
	TasksFailed    int
	TasksWaiting   int
	TotalTokensIn  int
	TotalTokensOut int
	TotalDuration  time.Duration
	DecisionsMade  int
	AverageRisk    float64
	riskSum        int
}

// TaskMetrics is the per-task record kept until the task resolves.
type TaskMetrics struct {
	TaskId    core.TaskId
	Agent     core.AgentId
	StartedAt time.Time
	Duration  time.Duration
	TokensIn  int
	TokensOut int
	Success   bool
	ErrorMsg  string
}

// AgentMetrics is the cumulative per-agent record.
type AgentMetrics struct {
	AgentId        core.AgentId
	Invocations    int
	TotalTokensIn  int
	TotalTokensOut int
	TotalDuration  time.Duration
	Errors         int
}

// AvgDuration returns the per-invocation average duration.
func (a AgentMetrics) AvgDuration() time.Duration {
	if a.Invocations == 0 {
		return 0
	}
	return a.TotalDuration / time.Duration(a.Invocations)
}

// DecisionMetrics records one consensus resolution.
type DecisionMetrics struct {
	TaskId            core.TaskId
	AgreementRate     float64
	ConsensusAchieved bool
	ConsideredCount   int
	DecidedAt         time.Time
}

// Thresholds are the operator-configured limits that raise alerts.
type Thresholds struct {
	MaxTokensPerTask int
	MaxTokensTotal   int
	MinAgreementRate float64
}

// DefaultThresholds returns conservative starting limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxTokensPerTask: 50_000,
		MaxTokensTotal:   2_000_000,
		MinAgreementRate: 0.5,
	}
}

// Collector aggregates analytics in memory, mirrors them to the Prometheus
// registry, persists per-invocation usage samples, and raises threshold
// alerts on the event bus. Safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	workflow   WorkflowMetrics
	tasks      map[core.TaskId]*TaskMetrics
	agents     map[core.AgentId]*AgentMetrics
	decisions  []DecisionMetrics
	thresholds Thresholds

	usage *storage.UsageMetricsRepository
	bus   *events.EventBus
	log   *logging.Logger
	prom  *promMetrics
}

// NewCollector builds a Collector. usage and bus may both be nil, in which
// case persistence and alerting are disabled respectively.
func NewCollector(usage *storage.UsageMetricsRepository, bus *events.EventBus, thresholds Thresholds, log *logging.Logger) *Collector {
	if log == nil {
		log = logging.NewNop()
	}
	return &Collector{
		tasks:      make(map[core.TaskId]*TaskMetrics),
		agents:     make(map[core.AgentId]*AgentMetrics),
		thresholds: thresholds,
		usage:      usage,
		bus:        bus,
		log:        log,
		prom:       newPromMetrics(),
	}
}

// Registry exposes the Collector's Prometheus registry for an HTTP /metrics
// handler to serve.
func (c *Collector) Registry() *promMetrics { return c.prom }

// RecordTaskStart begins tracking a task's execution.
func (c *Collector) RecordTaskStart(taskId core.TaskId, agentId core.AgentId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[taskId] = &TaskMetrics{TaskId: taskId, Agent: agentId, StartedAt: time.Now()}
	c.workflow.TasksTotal++
}

// RecordTaskResult finalizes a task's metrics, persists the usage sample,
// updates Prometheus, and raises a threshold alert if the task's token
// spend or the running total crossed a configured limit.
func (c *Collector) RecordTaskResult(ctx context.Context, taskId core.TaskId, agentId core.AgentId, tokensIn, tokensOut int, duration time.Duration, success bool, errMsg string) {
	c.mu.Lock()
	tm, ok := c.tasks[taskId]
	if !ok {
		tm = &TaskMetrics{TaskId: taskId, Agent: agentId}
		c.tasks[taskId] = tm
		c.workflow.TasksTotal++
	}
	tm.Duration = duration
	tm.TokensIn = tokensIn
	tm.TokensOut = tokensOut
	tm.Success = success
	tm.ErrorMsg = errMsg

	c.workflow.TotalTokensIn += tokensIn
	c.workflow.TotalTokensOut += tokensOut
	c.workflow.TotalDuration += duration
	if success {
		c.workflow.TasksCompleted++
	} else {
		c.workflow.TasksFailed++
	}

	am, ok := c.agents[agentId]
	if !ok {
		am = &AgentMetrics{AgentId: agentId}
		c.agents[agentId] = am
	}
	am.Invocations++
	am.TotalTokensIn += tokensIn
	am.TotalTokensOut += tokensOut
	am.TotalDuration += duration
	if !success {
		am.Errors++
	}
	totalTokens := c.workflow.TotalTokensIn + c.workflow.TotalTokensOut
	c.mu.Unlock()

	c.prom.observeTask(string(agentId), success, duration, tokensIn, tokensOut)

	if c.usage != nil {
		if err := c.usage.Record(ctx, taskId, agentId, core.TokenUsage{Input: tokensIn, Output: tokensOut}); err != nil {
			c.log.Warn("persisting usage metrics failed", "task_id", string(taskId), "error", err)
		}
	}

	taskTokens := tokensIn + tokensOut
	if c.thresholds.MaxTokensPerTask > 0 && taskTokens > c.thresholds.MaxTokensPerTask {
		c.alert(taskId, "tokens_per_task", float64(taskTokens), float64(c.thresholds.MaxTokensPerTask), events.AlertWarning)
	}
	if c.thresholds.MaxTokensTotal > 0 && totalTokens > c.thresholds.MaxTokensTotal {
		c.alert(taskId, "tokens_total", float64(totalTokens), float64(c.thresholds.MaxTokensTotal), events.AlertExceeded)
	}
}

// RecordRisk folds a task's risk score into the running average risk.
func (c *Collector) RecordRisk(risk int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workflow.riskSum += risk
	if c.workflow.TasksTotal > 0 {
		c.workflow.AverageRisk = float64(c.workflow.riskSum) / float64(c.workflow.TasksTotal)
	}
}

// RecordConsensus records a resolved consensus Decision.
func (c *Collector) RecordConsensus(decision *core.Decision) {
	c.mu.Lock()
	c.workflow.DecisionsMade++
	c.decisions = append(c.decisions, DecisionMetrics{
		TaskId:            decision.TaskId,
		AgreementRate:     decision.AgreementRate,
		ConsensusAchieved: decision.ConsensusAchieved,
		ConsideredCount:   len(decision.Considered),
		DecidedAt:         decision.DecidedAt,
	})
	c.mu.Unlock()

	c.prom.observeConsensus(decision.AgreementRate, decision.ConsensusAchieved)

	if decision.AgreementRate < c.thresholds.MinAgreementRate {
		c.alert(decision.TaskId, "agreement_rate", decision.AgreementRate, c.thresholds.MinAgreementRate, events.AlertCritical)
	}
}

func (c *Collector) alert(taskId core.TaskId, metric string, value, limit float64, level events.AlertLevel) {
	c.log.Warn("threshold alert", "task_id", string(taskId), "metric", metric, "value", value, "limit", limit, "level", level.String())
	if c.bus != nil {
		c.bus.PublishPriority(events.NewThresholdAlertEvent(string(taskId), metric, value, limit, level))
	}
}

// Snapshot returns a copy of the workflow-wide rollup and publishes it as a
// MetricsSnapshotEvent if a bus is configured.
func (c *Collector) Snapshot() WorkflowMetrics {
	c.mu.Lock()
	snapshot := c.workflow
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(events.NewMetricsSnapshotEvent(snapshot.TotalTokensIn, snapshot.TotalTokensOut, snapshot.DecisionsMade, snapshot.AverageRisk))
	}
	return snapshot
}

// AgentSnapshot returns a copy of every tracked agent's cumulative metrics.
func (c *Collector) AgentSnapshot() map[core.AgentId]AgentMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[core.AgentId]AgentMetrics, len(c.agents))
	for id, am := range c.agents {
		out[id] = *am
	}
	return out
}

// TaskSnapshot returns a copy of one task's recorded metrics, if tracked.
func (c *Collector) TaskSnapshot(taskId core.TaskId) (TaskMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tm, ok := c.tasks[taskId]
	if !ok {
		return TaskMetrics{}, false
	}
	return *tm, true
}

// Reset clears every in-memory rollup. Persisted usage rows are untouched.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workflow = WorkflowMetrics{}
	c.tasks = make(map[core.TaskId]*TaskMetrics)
	c.agents = make(map[core.AgentId]*AgentMetrics)
	c.decisions = nil
}
