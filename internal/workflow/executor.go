package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/consensus"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
)

// ExecutorDeps bundles the collaborators an executor needs without forcing
// every executor to depend on the full Runtime.
type ExecutorDeps struct {
	Invoker          core.AgentInvoker
	Consensus        *consensus.Engine
	Bus              *events.EventBus
	Checkpoint       CheckpointSink
	Log              *logging.Logger
	ConsensusTimeout time.Duration
}

// CheckpointSink lets an executor persist a named checkpoint between
// stages without depending on the storage package directly.
type CheckpointSink interface {
	Save(ctx context.Context, taskId core.TaskId, step string, data map[string]any) error
}

// Executor runs one task to completion (or to WaitingInput) under a chosen
// RoutingStrategy.
type Executor interface {
	Execute(ctx context.Context, deps ExecutorDeps, task *core.Task, directive *core.UserDirective) (WorkflowStep, core.TokenUsage)
}

// Executors maps a RoutingStrategy to its Executor, the table the runtime
// looks up by Task.Strategy before dispatching.
func Executors() map[core.RoutingStrategy]Executor {
	return map[core.RoutingStrategy]Executor{
		core.RoutingSolo:       soloExecutor{},
		core.RoutingConsensus:  consensusExecutor{},
		core.RoutingSequential: sequentialExecutor{},
		core.RoutingParallel:   parallelExecutor{},
	}
}

func inputSeed(task *core.Task, stage string) string {
	return fmt.Sprintf("%s:%s", task.Id, stage)
}

// soloExecutor invokes the primary (first) assignee once.
type soloExecutor struct{}

func (soloExecutor) Execute(ctx context.Context, deps ExecutorDeps, task *core.Task, directive *core.UserDirective) (WorkflowStep, core.TokenUsage) {
	if len(task.Assignees) == 0 {
		return Failure(core.ErrNoEligibleAgent(string(task.Id), string(task.Type))), core.TokenUsage{}
	}
	agentId := task.Assignees[0]
	result, err := deps.Invoker.Invoke(ctx, agentId, task, nil, inputSeed(task, "solo"))
	if err != nil {
		if ctx.Err() != nil {
			return Failure(err), result.Usage
		}
		return Failure(core.ErrWorkflowFailure(string(task.Id), err)), result.Usage
	}
	return Success(result.Output, map[string]string{"agent": string(agentId)}), result.Usage
}

// consensusExecutor invokes every assignee concurrently, feeds each
// proposal to the consensus engine as it arrives, and waits for all
// proposals or a timeout before asking the engine to decide.
type consensusExecutor struct{}

func (consensusExecutor) Execute(ctx context.Context, deps ExecutorDeps, task *core.Task, directive *core.UserDirective) (WorkflowStep, core.TokenUsage) {
	if len(task.Assignees) < 2 {
		return Failure(core.ErrNoEligibleAgent(string(task.Id), string(task.Type))), core.TokenUsage{}
	}
	if deps.Consensus == nil {
		return Failure(core.ErrExecution("CONSENSUS_ENGINE_UNAVAILABLE", "no consensus engine configured")), core.TokenUsage{}
	}

	timeout := deps.ConsensusTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		total  core.TokenUsage
		wg     sync.WaitGroup
		notify = false
	)
	for _, agentId := range task.Assignees {
		agentId := agentId
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := deps.Invoker.Invoke(waitCtx, agentId, task, nil, inputSeed(task, "consensus"))
			mu.Lock()
			total.Input += result.Usage.Input
			total.Output += result.Usage.Output
			mu.Unlock()
			if err != nil {
				deps.Log.Warn("consensus participant failed", "task_id", string(task.Id), "agent_id", string(agentId), "error", err)
				return
			}
			proposal, perr := core.NewProposal(task.Id, agentId, core.ProposalKindText, result.Output, result.Confidence, result.Usage)
			if perr != nil {
				deps.Log.Warn("consensus participant produced an invalid proposal", "task_id", string(task.Id), "agent_id", string(agentId), "error", perr)
				return
			}
			deps.Consensus.Submit(*proposal)
			mu.Lock()
			first := !notify
			notify = true
			mu.Unlock()
			if first && deps.Bus != nil {
				deps.Bus.Publish(events.NewBaseEvent("consensus.proposal.first", string(task.Id)))
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return Failure(ctx.Err()), total
		}
		// timeout: decide on whatever proposals arrived in time.
	}

	decision, err := deps.Consensus.Decide(ctx, task.Id)
	if err != nil {
		return Failure(core.ErrWorkflowFailure(string(task.Id), err)), total
	}
	if deps.Bus != nil {
		winner := ""
		if decision.WinnerId != nil {
			winner = string(*decision.WinnerId)
		}
		deps.Bus.Publish(events.NewConsensusDecidedEvent(string(task.Id), decision.AgreementRate, decision.ConsensusAchieved, winner, len(decision.Considered)))
	}
	if !decision.ConsensusAchieved || decision.WinnerId == nil {
		return Failure(core.ErrConsensus(decision.Rationale)), total
	}

	var winnerOutput string
	for _, p := range deps.Consensus.Proposals(task.Id) {
		if p.AgentId == *decision.WinnerId {
			winnerOutput = p.Content
			break
		}
	}
	return Success(winnerOutput, map[string]string{
		"agent":          string(*decision.WinnerId),
		"agreement_rate": fmt.Sprintf("%.2f", decision.AgreementRate),
	}), total
}

// sequentialExecutor chains assignees in order, feeding each stage's output
// to the next as an input. The first failure aborts the chain.
type sequentialExecutor struct{}

func (sequentialExecutor) Execute(ctx context.Context, deps ExecutorDeps, task *core.Task, directive *core.UserDirective) (WorkflowStep, core.TokenUsage) {
	if len(task.Assignees) == 0 {
		return Failure(core.ErrNoEligibleAgent(string(task.Id), string(task.Type))), core.TokenUsage{}
	}
	var total core.TokenUsage
	inputs := map[string]string{}
	var lastOutput string
	for i, agentId := range task.Assignees {
		if ctx.Err() != nil {
			return Failure(ctx.Err()), total
		}
		if i > 0 {
			inputs["previous_output"] = lastOutput
		}
		result, err := deps.Invoker.Invoke(ctx, agentId, task, inputs, inputSeed(task, fmt.Sprintf("sequential-%d", i)))
		total.Input += result.Usage.Input
		total.Output += result.Usage.Output
		if err != nil {
			return Failure(core.ErrWorkflowFailure(string(task.Id), err)), total
		}
		lastOutput = result.Output
		if deps.Checkpoint != nil {
			_ = deps.Checkpoint.Save(ctx, task.Id, fmt.Sprintf("sequential-stage-%d", i), map[string]any{
				"agent_id": string(agentId),
				"output":   lastOutput,
			})
		}
	}
	return Success(lastOutput, map[string]string{"stages": fmt.Sprintf("%d", len(task.Assignees))}), total
}

// parallelExecutor fans out to every assignee and aggregates outputs keyed
// by agent id. Success requires every participant to succeed; otherwise the
// failure lists the failing agents.
type parallelExecutor struct{}

func (parallelExecutor) Execute(ctx context.Context, deps ExecutorDeps, task *core.Task, directive *core.UserDirective) (WorkflowStep, core.TokenUsage) {
	if len(task.Assignees) == 0 {
		return Failure(core.ErrNoEligibleAgent(string(task.Id), string(task.Type))), core.TokenUsage{}
	}

	type outcome struct {
		agentId core.AgentId
		output  string
		err     error
		usage   core.TokenUsage
	}
	results := make([]outcome, len(task.Assignees))
	var wg sync.WaitGroup
	for i, agentId := range task.Assignees {
		i, agentId := i, agentId
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := deps.Invoker.Invoke(ctx, agentId, task, nil, inputSeed(task, "parallel"))
			results[i] = outcome{agentId: agentId, output: result.Output, err: err, usage: result.Usage}
		}()
	}
	wg.Wait()

	var total core.TokenUsage
	outputs := make(map[string]string, len(results))
	var failed []string
	for _, r := range results {
		total.Input += r.usage.Input
		total.Output += r.usage.Output
		if r.err != nil {
			failed = append(failed, string(r.agentId))
			continue
		}
		outputs[string(r.agentId)] = r.output
	}
	if ctx.Err() != nil {
		return Failure(ctx.Err()), total
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return Failure(core.ErrWorkflowFailure(string(task.Id), fmt.Errorf("agents failed: %s", strings.Join(failed, ", ")))), total
	}

	agentIds := make([]string, 0, len(outputs))
	for id := range outputs {
		agentIds = append(agentIds, id)
	}
	sort.Strings(agentIds)
	var combined strings.Builder
	for _, id := range agentIds {
		fmt.Fprintf(&combined, "[%s]\n%s\n\n", id, outputs[id])
	}
	return Success(strings.TrimSpace(combined.String()), outputs), total
}
