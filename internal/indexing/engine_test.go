package indexing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/conclave-ai/conclave/internal/storage"
)

func openEngineStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEngine_IndexFileThenDeleteFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "greet.go")
	writeFile(t, path, "package sample\n\nfunc Greet() string {\n\treturn \"hi\"\n}\n")

	hash, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	store := openEngineStore(t)
	embedder := &fakeEmbedder{dim: 4, model: "fake-model"}
	engine := NewEngine(store, embedder)

	change := Change{
		AbsolutePath: path,
		RelativePath: "greet.go",
		Kind:         "new",
		ContentHash:  hash,
		SizeBytes:    42,
		MtimeNs:      1,
	}
	if err := engine.IndexFile(ctx, change); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	artifacts, err := store.Artifacts().FetchFileArtifactsByPath(ctx, "greet.go")
	if err != nil {
		t.Fatalf("FetchFileArtifactsByPath: %v", err)
	}
	if artifacts == nil {
		t.Fatalf("expected artifacts to be stored")
	}
	if len(artifacts.Chunks) == 0 {
		t.Fatalf("expected at least one chunk")
	}
	if len(artifacts.Embeddings) != len(artifacts.Chunks) {
		t.Fatalf("expected one embedding per chunk, got %d embeddings for %d chunks",
			len(artifacts.Embeddings), len(artifacts.Chunks))
	}

	if err := engine.DeleteFile(ctx, "greet.go"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	artifacts, err = store.Artifacts().FetchFileArtifactsByPath(ctx, "greet.go")
	if err != nil {
		t.Fatalf("FetchFileArtifactsByPath after delete: %v", err)
	}
	if artifacts != nil {
		t.Fatalf("expected artifacts to be gone after DeleteFile")
	}
}

func TestBatchIndexer_RunCollectsPerFileResultsWithoutAbortingOnFailure(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	goodPath := filepath.Join(root, "good.go")
	writeFile(t, goodPath, "package sample\nfunc Ok() {}\n")
	goodHash, err := HashFile(goodPath)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	store := openEngineStore(t)
	embedder := &fakeEmbedder{dim: 3, model: "fake-model"}
	engine := NewEngine(store, embedder)
	batch := NewBatchIndexer(engine, 2)

	changes := []Change{
		{AbsolutePath: goodPath, RelativePath: "good.go", Kind: "new", ContentHash: goodHash, SizeBytes: 1, MtimeNs: 1},
		{AbsolutePath: filepath.Join(root, "missing.go"), RelativePath: "missing.go", Kind: "new", ContentHash: "x", SizeBytes: 1, MtimeNs: 1},
	}

	var lastProgress Progress
	results := batch.Run(ctx, changes, func(p Progress) { lastProgress = p })

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	var succeeded, failed int
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		} else {
			failed++
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("expected 1 success and 1 failure, got succeeded=%d failed=%d", succeeded, failed)
	}
	if lastProgress.Processed != 2 || lastProgress.Total != 2 {
		t.Fatalf("expected final progress to report all files processed, got %+v", lastProgress)
	}
}
