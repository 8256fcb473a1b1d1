package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/storage"
)

// VectorProvider scores chunks by cosine similarity (dot product of
// L2-normalized vectors) against the embedded query.
type VectorProvider struct {
	artifacts *storage.ArtifactRepository
	embedder  core.Embedder
}

// NewVectorProvider constructs a VectorProvider.
func NewVectorProvider(artifacts *storage.ArtifactRepository, embedder core.Embedder) *VectorProvider {
	return &VectorProvider{artifacts: artifacts, embedder: embedder}
}

func (p *VectorProvider) Name() string { return "vector" }

// Search embeds queryText, L2-normalizes it, and scores every stored
// embedding matching the embedder's model by dot product. NaN scores and
// zero vectors are skipped; filters apply before scoring.
func (p *VectorProvider) Search(ctx context.Context, queryText string, scope ContextScope, topK int) ([]providerResult, error) {
	queryVec, err := p.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}
	normalize(queryVec)

	candidates, err := p.artifacts.EmbeddingsByModel(ctx, p.embedder.ModelName())
	if err != nil {
		return nil, err
	}

	type scored struct {
		ec    storage.EmbeddingWithChunk
		score float64
	}
	var results []scored
	for _, ec := range candidates {
		if ec.Embedding.Dimension != len(queryVec) {
			continue
		}
		if !scope.matchesKind(ec.Chunk.Kind) {
			continue
		}
		vec := ec.Embedding.Vector
		if !isUnitLength(vec) {
			vec = append([]float64(nil), vec...)
			normalize(vec)
		}
		score := dot(queryVec, vec)
		if math.IsNaN(score) || isZeroVector(vec) {
			continue
		}
		results = append(results, scored{ec, score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	out := make([]providerResult, 0, len(results))
	for i, r := range results {
		out = append(out, providerResult{
			provider: p.Name(),
			rank:     i + 1,
			score:    clamp01(r.score),
			snippet: ContextSnippet{
				Type:    SnippetChunk,
				Kind:    r.ec.Chunk.Kind,
				ChunkId: r.ec.Chunk.Id,
				Ordinal: r.ec.Chunk.Ordinal,
				Content: r.ec.Chunk.Content,
				Score:   clamp01(r.score),
			},
		})
	}
	return out, nil
}

func normalize(v []float64) {
	var sumSq float64
	for _, f := range v {
		sumSq += f * f
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}
}

func isUnitLength(v []float64) bool {
	var sumSq float64
	for _, f := range v {
		sumSq += f * f
	}
	return math.Abs(sumSq-1.0) < 1e-6
}

func isZeroVector(v []float64) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
