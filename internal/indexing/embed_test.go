package indexing

import (
	"context"
	"math"
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

type fakeEmbedder struct {
	dim   int
	model string
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls = append(f.calls, texts)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, f.dim)
		v[0] = float64(len(t) + 1)
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dim }
func (f *fakeEmbedder) ModelName() string { return f.model }

func TestEmbedChunks_BatchesAndNormalizes(t *testing.T) {
	fileId := core.NewFileId()
	chunks := make([]*core.Chunk, 5)
	for i := range chunks {
		chunks[i] = core.NewChunk(fileId, i, core.ChunkKindWindow, "content")
	}
	embedder := &fakeEmbedder{dim: 3, model: "fake-model"}

	embeddings, err := EmbedChunks(context.Background(), embedder, chunks, 2)
	if err != nil {
		t.Fatalf("EmbedChunks: %v", err)
	}
	if len(embeddings) != 5 {
		t.Fatalf("expected 5 embeddings, got %d", len(embeddings))
	}
	if len(embedder.calls) != 3 {
		t.Fatalf("expected 3 batches of at most 2, got %d calls", len(embedder.calls))
	}
	for _, emb := range embeddings {
		if emb.Model != "fake-model" {
			t.Fatalf("expected model name to propagate, got %q", emb.Model)
		}
		var sumSq float64
		for _, v := range emb.Vector {
			sumSq += v * v
		}
		if math.Abs(sumSq-1.0) > 1e-9 {
			t.Fatalf("expected a unit-normalized vector, got magnitude^2=%v", sumSq)
		}
	}
}

func TestEmbedChunks_EmptyInput(t *testing.T) {
	embedder := &fakeEmbedder{dim: 3, model: "fake-model"}
	embeddings, err := EmbedChunks(context.Background(), embedder, nil, 4)
	if err != nil {
		t.Fatalf("EmbedChunks: %v", err)
	}
	if len(embeddings) != 0 {
		t.Fatalf("expected no embeddings, got %d", len(embeddings))
	}
	if len(embedder.calls) != 0 {
		t.Fatalf("expected embedder not to be called for empty input")
	}
}
