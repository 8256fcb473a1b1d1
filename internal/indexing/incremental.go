package indexing

import (
	"context"
	"path/filepath"

	"github.com/conclave-ai/conclave/internal/storage"
)

// IncrementalIndexer is the entry point `conclave index` drives: discover
// files under roots, diff against the store's FileState table, and run a
// BatchIndexer over whatever changed.
type IncrementalIndexer struct {
	Store       *storage.Store
	Validator   PathValidator
	Parallelism int
	engine      *Engine
}

// NewIncrementalIndexer constructs an IncrementalIndexer backed by store
// and embedder.
func NewIncrementalIndexer(store *storage.Store, engine *Engine, parallelism int) *IncrementalIndexer {
	return &IncrementalIndexer{
		Store:       store,
		Validator:   DefaultPathValidator(),
		Parallelism: parallelism,
		engine:      engine,
	}
}

// Run discovers every file under roots, classifies it against the stored
// FileState table, and indexes everything that changed. A root's files
// are compared for deletion purposes against stored paths relative to
// that same root.
func (idx *IncrementalIndexer) Run(ctx context.Context, roots []string, onProgress ProgressFunc) ([]FileResult, error) {
	var allResults []FileResult
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return allResults, err
		}
		discovered, err := Discover([]string{absRoot}, idx.Validator)
		if err != nil {
			return allResults, err
		}
		stored, err := idx.Store.Artifacts().AllFileStates(ctx)
		if err != nil {
			return allResults, err
		}
		changes, err := DetectChanges(absRoot, discovered, stored)
		if err != nil {
			return allResults, err
		}
		batch := NewBatchIndexer(idx.engine, idx.Parallelism)
		results := batch.Run(ctx, changes, onProgress)
		allResults = append(allResults, results...)
	}
	return allResults, nil
}
