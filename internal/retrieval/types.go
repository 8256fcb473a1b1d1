// Package retrieval implements the context retrieval engine from §4.11:
// per-provider scoring (vector, full-text, symbol, git-history), hybrid
// reciprocal-rank fusion, path/language boosts, MMR re-ranking, neighbor
// expansion, and token-budget truncation.
package retrieval

import "github.com/conclave-ai/conclave/internal/core"

// ContextScope narrows a query to a subset of the indexed tree.
type ContextScope struct {
	PathPrefixes []string
	Languages    []string
	Kinds        []core.ChunkKind
}

func (s ContextScope) matchesPath(path string) bool {
	if len(s.PathPrefixes) == 0 {
		return true
	}
	for _, prefix := range s.PathPrefixes {
		if hasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (s ContextScope) matchesLanguage(language string) bool {
	if len(s.Languages) == 0 {
		return true
	}
	for _, l := range s.Languages {
		if l == language {
			return true
		}
	}
	return false
}

func (s ContextScope) matchesKind(kind core.ChunkKind) bool {
	if len(s.Kinds) == 0 {
		return true
	}
	for _, k := range s.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// TokenBudget bounds how much of a query's retrieved context may be
// returned. AvailableForSnippets is what Truncate enforces.
type TokenBudget struct {
	AvailableForSnippets int
}

// SnippetType distinguishes a retrieved chunk from a synthetic
// git-history entry.
type SnippetType string

const (
	SnippetChunk     SnippetType = "chunk"
	SnippetCommit    SnippetType = "commit"
	SnippetCoChanged SnippetType = "co-changed"
)

// ContextSnippet is one scored result returned by the retrieval engine.
type ContextSnippet struct {
	Type          SnippetType
	Path          string
	Language      string
	Kind          core.ChunkKind
	ChunkId       core.ChunkId
	Ordinal       int
	Content       string
	Score         float64
	TokenEstimate int
	Metadata      map[string]string
}

// Query is the retrieval engine's input: `(queryText, ContextScope,
// TokenBudget)` per §4.11.
type Query struct {
	Text   string
	Scope  ContextScope
	Budget TokenBudget

	Providers   []string // enabled provider names; empty means all registered
	MMRLambda   float64  // 0 disables re-ranking when Providers yields <=1 result
	NeighborWindow int
	TopK        int
}

// providerResult is a single provider's scored candidate before fusion.
type providerResult struct {
	snippet  ContextSnippet
	provider string
	rank     int // 1-based rank within this provider's own ranked list
	score    float64
}
