package retrieval

import (
	"context"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/storage"
)

// Provider is any retrieval source the engine can fuse results from.
type Provider interface {
	Name() string
	Search(ctx context.Context, queryText string, scope ContextScope, topK int) ([]providerResult, error)
}

// Engine runs a query across every enabled provider, fuses the results,
// applies boosts, re-ranks for diversity, expands neighbors, and
// truncates to the token budget.
type Engine struct {
	providers map[string]Provider
	weights   map[string]float64
	boosts    Boosts
	artifacts *storage.ArtifactRepository
	embedder  core.Embedder
	log       *logging.Logger
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithWeights sets the per-provider RRF weight (default 1.0 for any
// provider not named).
func WithWeights(weights map[string]float64) EngineOption {
	return func(e *Engine) { e.weights = weights }
}

// WithBoosts sets the path-prefix/language boost table.
func WithBoosts(b Boosts) EngineOption {
	return func(e *Engine) { e.boosts = b }
}

// WithArtifacts enables neighbor expansion and embedding-backed MMR
// similarity by giving the engine access to the context tables.
func WithArtifacts(artifacts *storage.ArtifactRepository) EngineOption {
	return func(e *Engine) { e.artifacts = artifacts }
}

// WithEmbedder supplies the embedder whose model name identifies which
// stored embeddings MMR should compare snippets against.
func WithEmbedder(embedder core.Embedder) EngineOption {
	return func(e *Engine) { e.embedder = embedder }
}

// WithEngineLogger overrides the engine's logger.
func WithEngineLogger(log *logging.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// NewEngine constructs an Engine with the given providers registered by
// their own Name().
func NewEngine(providers []Provider, opts ...EngineOption) *Engine {
	e := &Engine{
		providers: make(map[string]Provider, len(providers)),
		weights:   make(map[string]float64),
		log:       logging.NewNop(),
	}
	for _, p := range providers {
		e.providers[p.Name()] = p
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs q across every provider named in q.Providers (or all
// registered providers if empty), fuses the results, applies boosts,
// optionally re-ranks with MMR using stored embeddings for similarity,
// expands neighbors, and truncates to the token budget.
func (e *Engine) Search(ctx context.Context, q Query) ([]ContextSnippet, error) {
	active := q.Providers
	if len(active) == 0 {
		for name := range e.providers {
			active = append(active, name)
		}
	}

	topK := q.TopK
	if topK <= 0 {
		topK = 50
	}

	perProvider := make(map[string][]providerResult, len(active))
	for _, name := range active {
		p, ok := e.providers[name]
		if !ok {
			continue
		}
		results, err := p.Search(ctx, q.Text, q.Scope, topK)
		if err != nil {
			e.log.Error("retrieval provider failed", "provider", name, "error", err)
			continue
		}
		perProvider[name] = results
	}

	fused := fuse(perProvider, e.weights)
	e.boosts.Apply(fused)

	if q.MMRLambda > 0 && q.MMRLambda < 1.0 && len(fused) > 1 {
		vectors := e.vectorsFor(ctx, fused)
		fused = MMRRerank(fused, q.MMRLambda, func(a, b ContextSnippet) float64 {
			va, ok1 := vectors[a.ChunkId]
			vb, ok2 := vectors[b.ChunkId]
			if !ok1 || !ok2 {
				return 0
			}
			return dot(va, vb)
		})
	}

	if q.NeighborWindow > 0 && e.artifacts != nil {
		expanded, err := ExpandNeighbors(ctx, e.artifacts, fused, q.NeighborWindow)
		if err == nil {
			fused = expanded
		}
	}

	return Truncate(fused, q.Budget), nil
}

// vectorsFor resolves each snippet's chunk embedding under the engine's
// configured model, for MMR's cosine similarity term. It degrades to an
// empty map (disabling the diversity penalty, not the search) when no
// artifacts/embedder is wired or no stored embeddings match.
func (e *Engine) vectorsFor(ctx context.Context, snippets []ContextSnippet) map[core.ChunkId][]float64 {
	out := make(map[core.ChunkId][]float64)
	if e.artifacts == nil || e.embedder == nil {
		return out
	}

	wanted := make(map[core.ChunkId]struct{}, len(snippets))
	for _, s := range snippets {
		if s.ChunkId != "" {
			wanted[s.ChunkId] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return out
	}

	rows, err := e.artifacts.EmbeddingsByModel(ctx, e.embedder.ModelName())
	if err != nil {
		e.log.Error("mmr embedding lookup failed", "error", err)
		return out
	}
	for _, row := range rows {
		if _, ok := wanted[row.Embedding.ChunkId]; ok {
			out[row.Embedding.ChunkId] = row.Embedding.Vector
		}
	}
	return out
}
