package retrieval

import (
	"context"
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/storage"
)

// fakeEmbedder deterministically maps text to a fixed-dimension vector so
// tests can reason about which candidate should score highest: the query
// and its intended match share the same leading component.
type fakeEmbedder struct {
	dim   int
	model string
	byText map[string][]float64
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := f.byText[text]; ok {
		return append([]float64(nil), v...), nil
	}
	v := make([]float64, f.dim)
	v[0] = 1
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dim }
func (f *fakeEmbedder) ModelName() string { return f.model }

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:", logging.NewNop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedChunk(t *testing.T, artifacts *storage.ArtifactRepository, path, content string, kind core.ChunkKind) (*core.FileState, *core.Chunk) {
	t.Helper()
	file := core.NewFileState(path, "hash-"+path, int64(len(content)), 1)
	chunk := core.NewChunk(file.Id, 0, kind, content)
	if err := artifacts.ReplaceFileArtifacts(context.Background(), file, []*core.Chunk{chunk}, nil, nil, nil); err != nil {
		t.Fatalf("seed ReplaceFileArtifacts: %v", err)
	}
	return file, chunk
}

func seedChunkWithEmbedding(t *testing.T, artifacts *storage.ArtifactRepository, path, content string, vector []float64, model string) (*core.FileState, *core.Chunk) {
	t.Helper()
	file := core.NewFileState(path, "hash-"+path, int64(len(content)), 1)
	chunk := core.NewChunk(file.Id, 0, core.ChunkKindWindow, content)
	emb, err := core.NewEmbedding(chunk.Id, model, vector)
	if err != nil {
		t.Fatalf("NewEmbedding: %v", err)
	}
	if err := artifacts.ReplaceFileArtifacts(context.Background(), file, []*core.Chunk{chunk}, []*core.Embedding{emb}, nil, nil); err != nil {
		t.Fatalf("seed ReplaceFileArtifacts: %v", err)
	}
	return file, chunk
}

func TestVectorProvider_RanksClosestEmbeddingFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	artifacts := store.Artifacts()

	_, chunkA := seedChunkWithEmbedding(t, artifacts, "a.go", "alpha content", []float64{1, 0}, "fake-model")
	_, _ = seedChunkWithEmbedding(t, artifacts, "b.go", "beta content", []float64{0, 1}, "fake-model")

	embedder := &fakeEmbedder{dim: 2, model: "fake-model", byText: map[string][]float64{"find alpha": {1, 0}}}
	provider := NewVectorProvider(artifacts, embedder)

	results, err := provider.Search(ctx, "find alpha", ContextScope{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].snippet.ChunkId != chunkA.Id {
		t.Fatalf("expected chunk a to rank first, got %v", results[0].snippet.ChunkId)
	}
}

func TestFullTextProvider_ScoresTermOverlap(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	artifacts := store.Artifacts()

	seedChunk(t, artifacts, "a.go", "the quorum orchestrator routes tasks to agents", core.ChunkKindWindow)
	seedChunk(t, artifacts, "b.go", "unrelated content about gardening", core.ChunkKindWindow)

	provider := NewFullTextProvider(artifacts, true)
	results, err := provider.Search(ctx, "orchestrator routes tasks", ContextScope{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the matching chunk to score, got %d", len(results))
	}
	if results[0].snippet.Content == "" {
		t.Fatalf("expected content to be populated")
	}
}

func TestSymbolProvider_ExactMatch(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	artifacts := store.Artifacts()

	file := core.NewFileState("a.go", "hash-a", 1, 1)
	chunk := core.NewChunk(file.Id, 0, core.ChunkKindFunction, "func HandleRequest() {}")
	symbol := core.NewSymbol(file.Id, chunk.Id, core.SymbolTypeFunction, "HandleRequest", 1, 1, "go")
	if err := artifacts.ReplaceFileArtifacts(ctx, file, []*core.Chunk{chunk}, nil, nil, []*core.Symbol{symbol}); err != nil {
		t.Fatalf("ReplaceFileArtifacts: %v", err)
	}

	provider := NewSymbolProvider(artifacts)
	results, err := provider.Search(ctx, "where is HandleRequest defined", ContextScope{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 symbol match, got %d: %+v", len(results), results)
	}
	if results[0].snippet.Metadata["symbol_name"] != "HandleRequest" {
		t.Fatalf("expected HandleRequest metadata, got %+v", results[0].snippet.Metadata)
	}
}

func TestSymbolProvider_NoSymbolShapedTokensYieldsNothing(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	artifacts := store.Artifacts()
	provider := NewSymbolProvider(artifacts)

	results, err := provider.Search(ctx, "what does this do", ContextScope{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for a query with no symbol-shaped tokens, got %d", len(results))
	}
}
