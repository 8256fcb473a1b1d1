package indexing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashEmbedder is a local, dependency-free core.Embedder: a hashing-trick
// bag-of-words projection into a fixed-width vector, unit-normalized. It
// needs no network call and no model weights, the same "local backend"
// role the teacher's embedding engines reserve for an offline provider,
// traded here for a deterministic function instead of a running daemon.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder builds a HashEmbedder projecting into dimension buckets.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{dimension: dimension}
}

// Embed hashes each whitespace-delimited token of text into a bucket and
// accumulates a signed count per bucket, then L2-normalizes the result.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dimension)
	for _, token := range strings.Fields(text) {
		bucket, sign := h.hashToken(token)
		vec[bucket] += sign
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the embedder's vector width.
func (h *HashEmbedder) Dimension() int { return h.dimension }

// ModelName identifies this embedder for provenance in stored embeddings.
func (h *HashEmbedder) ModelName() string { return "hash-trick-v1" }

func (h *HashEmbedder) hashToken(token string) (bucket int, sign float64) {
	fh := fnv.New32a()
	_, _ = fh.Write([]byte(token))
	sum := fh.Sum32()
	bucket = int(sum % uint32(h.dimension))
	if sum&(1<<31) != 0 {
		sign = -1
	} else {
		sign = 1
	}
	return bucket, sign
}

func normalize(vec []float64) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return
	}
	norm := math.Sqrt(sumSquares)
	for i := range vec {
		vec[i] /= norm
	}
}
