package core

import (
	"math"
	"time"
)

// Embedding is a vector representation of a Chunk, owned exclusively by it.
type Embedding struct {
	Id        EmbeddingId
	ChunkId   ChunkId
	Model     string
	Dimension int
	Vector    []float64
	CreatedAt time.Time
}

// NewEmbedding constructs an Embedding, validating that the vector's length
// matches the declared dimension.
func NewEmbedding(chunkId ChunkId, model string, vector []float64) (*Embedding, error) {
	if len(vector) == 0 {
		return nil, ErrValidation("EMBEDDING_EMPTY_VECTOR", "embedding vector must not be empty")
	}
	for _, f := range vector {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrValidation("EMBEDDING_NON_FINITE", "embedding vector must contain only finite floats")
		}
	}
	return &Embedding{
		Id:        NewEmbeddingId(),
		ChunkId:   chunkId,
		Model:     model,
		Dimension: len(vector),
		Vector:    vector,
		CreatedAt: time.Now(),
	}, nil
}

// Normalize scales the vector in place to unit L2 norm. A zero vector is
// left unchanged; callers must treat a zero-norm vector as unscoreable.
func (e *Embedding) Normalize() {
	var sumSq float64
	for _, f := range e.Vector {
		sumSq += f * f
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range e.Vector {
		e.Vector[i] /= norm
	}
}

// L2Norm returns the vector's Euclidean norm.
func (e *Embedding) L2Norm() float64 {
	var sumSq float64
	for _, f := range e.Vector {
		sumSq += f * f
	}
	return math.Sqrt(sumSq)
}
