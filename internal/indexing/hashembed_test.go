package indexing

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedder_ProducesUnitNormalizedVectors(t *testing.T) {
	embedder := NewHashEmbedder(64)
	vec, err := embedder.Embed(context.Background(), "the quick brown fox jumps over the lazy dog")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 64 {
		t.Fatalf("expected dimension 64, got %d", len(vec))
	}
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if math.Abs(sumSq-1.0) > 1e-9 {
		t.Fatalf("expected a unit-normalized vector, got magnitude^2=%v", sumSq)
	}
}

func TestHashEmbedder_IsDeterministic(t *testing.T) {
	embedder := NewHashEmbedder(32)
	a, err := embedder.Embed(context.Background(), "repeatable text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := embedder.Embed(context.Background(), "repeatable text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical text to hash to an identical vector, differs at index %d", i)
		}
	}
}

func TestHashEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	embedder := NewHashEmbedder(16)
	vec, err := embedder.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected a zero vector for empty text, index %d = %v", i, v)
		}
	}
}

func TestHashEmbedder_EmbedBatchMatchesEmbed(t *testing.T) {
	embedder := NewHashEmbedder(32)
	texts := []string{"alpha beta", "gamma delta"}
	batch, err := embedder.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	for i, text := range texts {
		single, err := embedder.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed: %v", err)
		}
		for j := range single {
			if single[j] != batch[i][j] {
				t.Fatalf("expected EmbedBatch to match Embed for %q at index %d", text, j)
			}
		}
	}
}
