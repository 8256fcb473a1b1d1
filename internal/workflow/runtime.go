package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/agents"
	"github.com/conclave-ai/conclave/internal/classifier"
	"github.com/conclave-ai/conclave/internal/consensus"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/statemachine"
	"github.com/conclave-ai/conclave/internal/storage"
	"github.com/conclave-ai/conclave/internal/strategy"
)

// heartbeatInterval is how often RunTask renews a task's optimistic-lock
// heartbeat while an executor is still running, letting a watcher detect a
// worker that died mid-execution (§ supplemental features).
const heartbeatInterval = 15 * time.Second

// checkpointSink adapts the storage package's CheckpointRepository to the
// executor package's narrower CheckpointSink port.
type checkpointSink struct {
	repo *storage.CheckpointRepository
}

func (s checkpointSink) Save(ctx context.Context, taskId core.TaskId, step string, data map[string]any) error {
	return s.repo.Save(ctx, storage.StoredCheckpoint{
		ID:        idForCheckpoint(),
		TaskID:    taskId,
		Step:      step,
		Data:      data,
		CreatedAt: time.Now(),
	})
}

// Runtime owns task execution end to end: insert, route, dispatch to the
// strategy's executor, transition status with optimistic concurrency, and
// build a WorkflowResult. Every lifecycle change for a given task is
// serialized through a per-task mutex (§4.8 step 1).
type Runtime struct {
	tasks       *storage.TaskRepository
	checkpoints *storage.CheckpointRepository
	machine     *statemachine.StateMachine
	picker      *strategy.Picker
	selector    *agents.Selector
	registry    *agents.Registry
	invoker     core.AgentInvoker
	consensus   *consensus.Engine
	bus         *events.EventBus
	metrics     *strategy.StrategyMetrics
	log         *logging.Logger

	executors map[core.RoutingStrategy]Executor

	locksMu sync.Mutex
	locks   map[core.TaskId]*sync.Mutex
}

// New builds a Runtime. bus and metrics may be nil.
func New(
	tasks *storage.TaskRepository,
	checkpoints *storage.CheckpointRepository,
	machine *statemachine.StateMachine,
	picker *strategy.Picker,
	selector *agents.Selector,
	registry *agents.Registry,
	invoker core.AgentInvoker,
	consensusEngine *consensus.Engine,
	bus *events.EventBus,
	metrics *strategy.StrategyMetrics,
	log *logging.Logger,
) *Runtime {
	if log == nil {
		log = logging.NewNop()
	}
	return &Runtime{
		tasks:       tasks,
		checkpoints: checkpoints,
		machine:     machine,
		picker:      picker,
		selector:    selector,
		registry:    registry,
		invoker:     invoker,
		consensus:   consensusEngine,
		bus:         bus,
		metrics:     metrics,
		log:         log,
		executors:   Executors(),
		locks:       make(map[core.TaskId]*sync.Mutex),
	}
}

func (rt *Runtime) lockFor(id core.TaskId) *sync.Mutex {
	rt.locksMu.Lock()
	defer rt.locksMu.Unlock()
	m, ok := rt.locks[id]
	if !ok {
		m = &sync.Mutex{}
		rt.locks[id] = m
	}
	return m
}

// RunTask executes the full §4.8 pipeline for a newly submitted task.
func (rt *Runtime) RunTask(ctx context.Context, task *core.Task, userDirective *core.UserDirective, classification *classifier.Classification) WorkflowResult {
	mu := rt.lockFor(task.Id)
	mu.Lock()
	defer mu.Unlock()

	started := time.Now()

	if err := rt.tasks.Insert(ctx, task); err != nil {
		return rt.failResult(task, err, started)
	}

	decision := rt.picker.Pick(task, userDirective, classification)
	assignees, err := rt.route(task, userDirective, decision.Strategy)
	if err != nil {
		rt.markFailed(ctx, task)
		return rt.failResult(task, err, started)
	}
	if routeErr := task.Route(decision.Strategy, assignees...); routeErr != nil {
		rt.markFailed(ctx, task)
		return rt.failResult(task, routeErr, started)
	}
	task.WithMetadata(map[string]string{
		"routing_rule": string(decision.Rule),
	})
	if err := rt.tasks.Update(ctx, task); err != nil {
		return rt.failResult(task, err, started)
	}

	executor, ok := rt.executors[task.Strategy]
	if !ok {
		rt.markFailed(ctx, task)
		err := core.ErrExecution("NO_EXECUTOR_FOR_STRATEGY", "no workflow executor registered for strategy "+string(task.Strategy))
		return rt.failResult(task, err, started)
	}

	applied, err := rt.tasks.UpdateStatus(ctx, task.Id, core.TaskStatusInProgress, []core.TaskStatus{core.TaskStatusPending})
	if err != nil {
		return rt.failResult(task, err, started)
	}
	if !applied {
		conflict := core.ErrOrchestrationConflict(string(task.Id), core.TaskStatusPending, core.TaskStatusInProgress)
		return rt.failResult(task, conflict, started)
	}
	task.Status = core.TaskStatusInProgress
	_ = rt.machine.Transition(task.Id, core.TaskStatusPending, core.TaskStatusInProgress, nil)

	if rt.bus != nil {
		rt.bus.Publish(events.NewWorkflowStartedEvent(string(task.Id), string(task.Strategy)))
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	go rt.runHeartbeat(heartbeatCtx, task.Id)

	deps := ExecutorDeps{
		Invoker:   rt.invoker,
		Consensus: rt.consensus,
		Bus:       rt.bus,
		Log:       rt.log,
	}
	if rt.checkpoints != nil {
		deps.Checkpoint = checkpointSink{repo: rt.checkpoints}
	}
	step, usage := executor.Execute(ctx, deps, task, userDirective)
	stopHeartbeat()

	if step.Kind == StepFailure && ctx.Err() != nil {
		// Cancellation must not cause a spurious failed transition: the
		// enclosing context died, not the agent work. Re-raise unchanged
		// without touching task status.
		return rt.cancelResult(task, ctx.Err(), started, usage)
	}

	return rt.finalize(ctx, task, step, usage, started)
}

func (rt *Runtime) route(task *core.Task, userDirective *core.UserDirective, strategyKind core.RoutingStrategy) ([]core.AgentId, error) {
	switch strategyKind {
	case core.RoutingSolo:
		id, err := rt.selector.SelectSolo(task, userDirective)
		if err != nil {
			return nil, err
		}
		return []core.AgentId{id}, nil
	case core.RoutingConsensus:
		return rt.selector.SelectConsensus(task, userDirective, 0)
	case core.RoutingSequential, core.RoutingParallel:
		// Sequential/parallel strategies reuse the consensus candidate pool
		// as their participant set: both need more than one capable agent
		// and neither privileges a single "primary" the way solo does.
		return rt.selector.SelectConsensus(task, userDirective, 0)
	default:
		return nil, core.ErrNoEligibleAgent(string(task.Id), string(task.Type))
	}
}

func (rt *Runtime) finalize(ctx context.Context, task *core.Task, step WorkflowStep, usage core.TokenUsage, started time.Time) WorkflowResult {
	finished := time.Now()
	result := WorkflowResult{
		TaskId:     task.Id,
		TokensIn:   usage.Input,
		TokensOut:  usage.Output,
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   finished.Sub(started),
	}

	var (
		to      core.TaskStatus
		success bool
	)
	switch step.Kind {
	case StepSuccess:
		to = core.TaskStatusCompleted
		success = true
		result.Output = step.Output
		result.Artifacts = step.Artifacts
	case StepWaitingInput:
		to = core.TaskStatusWaitingInput
	default:
		to = core.TaskStatusFailed
		result.Err = step.Err
	}

	applied, err := rt.tasks.UpdateStatus(ctx, task.Id, to, []core.TaskStatus{core.TaskStatusInProgress})
	if err != nil || !applied {
		conflict := core.ErrOrchestrationConflict(string(task.Id), core.TaskStatusInProgress, to)
		if err != nil {
			conflict = conflict.WithCause(err)
		}
		result.Err = conflict
		result.Status = task.Status
		return result
	}
	_ = rt.machine.Transition(task.Id, core.TaskStatusInProgress, to, nil)
	task.Status = to
	result.Status = to

	if rt.metrics != nil && to != core.TaskStatusWaitingInput {
		rt.metrics.Record(task.Strategy, success)
	}
	if rt.bus != nil {
		switch to {
		case core.TaskStatusCompleted:
			rt.bus.Publish(events.NewWorkflowCompletedEvent(string(task.Id), result.Duration))
		case core.TaskStatusFailed:
			rt.bus.PublishPriority(events.NewWorkflowFailedEvent(string(task.Id), string(task.Strategy), step.Err))
		}
	}
	return result
}

func (rt *Runtime) markFailed(ctx context.Context, task *core.Task) {
	applied, err := rt.tasks.UpdateStatus(ctx, task.Id, core.TaskStatusFailed, []core.TaskStatus{core.TaskStatusPending})
	if err == nil && applied {
		task.Status = core.TaskStatusFailed
		_ = rt.machine.Transition(task.Id, core.TaskStatusPending, core.TaskStatusFailed, nil)
	}
}

func (rt *Runtime) failResult(task *core.Task, err error, started time.Time) WorkflowResult {
	finished := time.Now()
	return WorkflowResult{
		TaskId:     task.Id,
		Status:     task.Status,
		Err:        err,
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   finished.Sub(started),
	}
}

func (rt *Runtime) cancelResult(task *core.Task, err error, started time.Time, usage core.TokenUsage) WorkflowResult {
	finished := time.Now()
	return WorkflowResult{
		TaskId:     task.Id,
		Status:     task.Status,
		Err:        err,
		TokensIn:   usage.Input,
		TokensOut:  usage.Output,
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   finished.Sub(started),
	}
}

func (rt *Runtime) runHeartbeat(ctx context.Context, taskId core.TaskId) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rt.tasks.RefreshHeartbeat(context.Background(), taskId); err != nil {
				rt.log.Warn("heartbeat refresh failed", "task_id", string(taskId), "error", err)
				continue
			}
			if rt.bus != nil {
				rt.bus.Publish(events.NewWorkflowHeartbeatEvent(string(taskId)))
			}
		}
	}
}
