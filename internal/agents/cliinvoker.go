package agents

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// CLICommand describes how to invoke one agent as an external process, the
// generalization of the teacher's per-vendor adapters (claude, gemini,
// codex, copilot) into a single configurable shape: every agent here is
// "a binary on PATH that reads a prompt on stdin and writes a response on
// stdout".
type CLICommand struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// CLIInvoker implements core.AgentInvoker by shelling out to a configured
// command per agent, the same process-per-call integration strategy the
// teacher's cli adapters use, generalized to a single agent-agnostic
// executor instead of one Go type per vendor.
type CLIInvoker struct {
	commands map[core.AgentId]CLICommand
	log      *logging.Logger
}

// NewCLIInvoker builds a CLIInvoker from a per-agent command table.
func NewCLIInvoker(commands map[core.AgentId]CLICommand, log *logging.Logger) *CLIInvoker {
	if log == nil {
		log = logging.NewNop()
	}
	return &CLIInvoker{commands: commands, log: log}
}

// Invoke runs the agent's configured command, feeding it the task prompt
// and any upstream inputs on stdin, and returns its stdout as the output.
// Token usage is estimated from input/output byte length since the
// process's own accounting is not observable across the exec boundary.
func (c *CLIInvoker) Invoke(ctx context.Context, agentId core.AgentId, task *core.Task, inputs map[string]string, inputSeed string) (core.AgentInvocationResult, error) {
	cmdSpec, ok := c.commands[agentId]
	if !ok {
		return core.AgentInvocationResult{}, core.ErrExecution("UNKNOWN_AGENT_COMMAND", fmt.Sprintf("no command configured for agent %s", agentId))
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cmdSpec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmdSpec.Timeout)
		defer cancel()
	}

	prompt := buildPrompt(task, inputs)
	cmd := exec.CommandContext(runCtx, cmdSpec.Path, cmdSpec.Args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.log.Warn("agent command failed", "agent_id", string(agentId), "input_seed", inputSeed, "stderr", stderr.String(), "error", err)
		return core.AgentInvocationResult{}, core.ErrExecution("AGENT_COMMAND_FAILED", fmt.Sprintf("%s: %s", err, strings.TrimSpace(stderr.String())))
	}

	output := strings.TrimSpace(stdout.String())
	return core.AgentInvocationResult{
		Output:     output,
		Confidence: 1.0,
		Usage:      estimateUsage(prompt, output),
	}, nil
}

// Ping satisfies Registry's HealthChecker by checking that agentId's
// configured command still resolves to an executable on PATH, without
// actually running it.
func (c *CLIInvoker) Ping(_ context.Context, agentId core.AgentId) error {
	cmdSpec, ok := c.commands[agentId]
	if !ok {
		return core.ErrExecution("UNKNOWN_AGENT_COMMAND", fmt.Sprintf("no command configured for agent %s", agentId))
	}
	if _, err := exec.LookPath(cmdSpec.Path); err != nil {
		return core.ErrExecution("AGENT_COMMAND_UNAVAILABLE", err.Error())
	}
	return nil
}

func buildPrompt(task *core.Task, inputs map[string]string) string {
	var b strings.Builder
	b.WriteString(task.Title)
	b.WriteString("\n\n")
	b.WriteString(task.Description)
	for key, val := range inputs {
		b.WriteString("\n\n---\n")
		b.WriteString(key)
		b.WriteString(":\n")
		b.WriteString(val)
	}
	return b.String()
}

// estimateUsage provides a rough token estimate, the same heuristic the
// teacher's copilot adapter falls back to when a CLI doesn't self-report
// usage: four characters per token.
func estimateUsage(prompt, output string) core.TokenUsage {
	return core.TokenUsage{Input: len(prompt) / 4, Output: len(output) / 4}
}
