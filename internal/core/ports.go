package core

import "context"

// AgentInvocationResult is the outcome of a single agent invocation.
type AgentInvocationResult struct {
	Output     string
	Confidence float64
	Usage      TokenUsage
}

// AgentInvoker is the external-collaborator contract for dispatching work to
// an agent. Implementations must be idempotent when given the same
// (taskId, agentId, inputSeed): a retried invocation for an already-handled
// seed must return the same result rather than re-executing side effects.
type AgentInvoker interface {
	Invoke(ctx context.Context, agentId AgentId, task *Task, inputs map[string]string, inputSeed string) (AgentInvocationResult, error)
}

// Embedder is the external-collaborator contract for turning text into
// vectors. Implementations are free to normalize internally as long as
// Embed/EmbedBatch document whether the result is already unit-length;
// internal/indexing re-normalizes regardless before persisting.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
	ModelName() string
}
