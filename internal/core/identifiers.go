package core

import "github.com/conclave-ai/conclave/internal/idgen"

// TaskId identifies a Task. It is a typed, prefixed, time-sortable ULID.
type TaskId string

// NewTaskId mints a fresh TaskId.
func NewTaskId() TaskId { return TaskId(idgen.Prefixed("task")) }

// ValidateTaskId checks that id is a well-formed, in-window TaskId.
func ValidateTaskId(id TaskId) error { return idgen.ValidatePrefixed(string(id), "task") }

// AgentId identifies an Agent. Unlike the other identifiers, it is derived
// from the agent's display name rather than a timestamp, so two agents
// configured with the same name collide by design.
type AgentId string

// NewAgentId sanitizes displayName into an AgentId, failing with
// InvalidIdentifier if nothing alphanumeric survives sanitization.
func NewAgentId(displayName string) (AgentId, error) {
	sanitized, err := idgen.SanitizeAgentName(displayName)
	if err != nil {
		return "", ErrInvalidIdentifier(err.Error())
	}
	return AgentId(sanitized), nil
}

// FileId identifies a FileState.
type FileId string

// NewFileId mints a fresh FileId.
func NewFileId() FileId { return FileId(idgen.Prefixed("file")) }

// ChunkId identifies a Chunk.
type ChunkId string

// NewChunkId mints a fresh ChunkId.
func NewChunkId() ChunkId { return ChunkId(idgen.Prefixed("chunk")) }

// EmbeddingId identifies an Embedding.
type EmbeddingId string

// NewEmbeddingId mints a fresh EmbeddingId.
func NewEmbeddingId() EmbeddingId { return EmbeddingId(idgen.Prefixed("embedding")) }

// LinkId identifies a Link.
type LinkId string

// NewLinkId mints a fresh LinkId.
func NewLinkId() LinkId { return LinkId(idgen.Prefixed("link")) }

// SymbolId identifies a Symbol.
type SymbolId string

// NewSymbolId mints a fresh SymbolId.
func NewSymbolId() SymbolId { return SymbolId(idgen.Prefixed("symbol")) }
