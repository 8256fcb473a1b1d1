package indexing

import (
	"context"
	"path/filepath"
	"testing"
)

func TestIncrementalIndexer_IndexesNewFilesAndReindexesOnChange(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one.go"), "package sample\nfunc One() {}\n")
	writeFile(t, filepath.Join(root, "two.md"), "# Two\nbody\n")

	store := openEngineStore(t)
	embedder := &fakeEmbedder{dim: 3, model: "fake-model"}
	engine := NewEngine(store, embedder)
	idx := NewIncrementalIndexer(store, engine, 2)

	results, err := idx.Run(ctx, []string{root}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results on first run, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error indexing %s: %v", r.Path, r.Err)
		}
	}

	// Second run with no changes on disk should classify everything as
	// unchanged and skip re-indexing.
	results, err = idx.Run(ctx, []string{root}, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for _, r := range results {
		if r.Kind != "unchanged" {
			t.Fatalf("expected %s to be unchanged on the second run, got %s", r.Path, r.Kind)
		}
	}

	writeFile(t, filepath.Join(root, "one.go"), "package sample\nfunc One() { println(\"changed\") }\n")
	results, err = idx.Run(ctx, []string{root}, nil)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	var sawModified bool
	for _, r := range results {
		if r.Path == "one.go" {
			if r.Kind != "modified" {
				t.Fatalf("expected one.go to be modified, got %s", r.Kind)
			}
			sawModified = true
		}
	}
	if !sawModified {
		t.Fatalf("expected one.go to appear in results")
	}
}
