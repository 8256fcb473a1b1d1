package indexing

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/fsutil"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/storage"
)

// Engine indexes a single file end to end: hash already known from change
// detection, chunk, embed, extract symbols, and replace the file's stored
// artifacts atomically.
type Engine struct {
	artifacts    *storage.ArtifactRepository
	embedder     core.Embedder
	maxBatchSize int
	log          *logging.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithMaxBatchSize overrides the embedder batch size (default 32).
func WithMaxBatchSize(n int) Option {
	return func(e *Engine) { e.maxBatchSize = n }
}

// WithLogger overrides the engine's logger (default a no-op logger).
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine constructs an Engine over store's artifact repository.
func NewEngine(store *storage.Store, embedder core.Embedder, opts ...Option) *Engine {
	e := &Engine{
		artifacts:    store.Artifacts(),
		embedder:     embedder,
		maxBatchSize: 32,
		log:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IndexFile chunks, embeds, and extracts symbols for a single discovered
// change (new or modified), then atomically replaces its stored artifacts.
// Unchanged files are a no-op; deleted files must go through DeleteFile.
func (e *Engine) IndexFile(ctx context.Context, change Change) error {
	if change.Kind == core.ChangeUnchanged {
		return nil
	}
	if change.Kind == core.ChangeDeleted {
		return e.DeleteFile(ctx, change.RelativePath)
	}

	language := LanguageForPath(change.RelativePath)
	content, err := readFileContent(change.AbsolutePath)
	if err != nil {
		return core.ErrIndexingFailure(change.RelativePath, err)
	}

	file := core.NewFileState(change.RelativePath, change.ContentHash, change.SizeBytes, change.MtimeNs)
	file.Language = language
	file.Kind = string(change.Kind)
	file.Fingerprint = change.ContentHash

	chunks := SelectChunker(language).Chunk(file.Id, content)
	if len(chunks) == 0 {
		chunks = []*core.Chunk{core.NewChunk(file.Id, 0, core.ChunkKindWindow, content)}
	}

	embeddings, err := EmbedChunks(ctx, e.embedder, chunks, e.maxBatchSize)
	if err != nil {
		return err
	}

	extractor := SelectExtractor(language)
	var symbols []*core.Symbol
	for _, c := range chunks {
		symbols = append(symbols, extractor.Extract(file.Id, c, language)...)
	}

	if err := e.artifacts.ReplaceFileArtifacts(ctx, file, chunks, embeddings, nil, symbols); err != nil {
		e.log.Error("indexing replace failed", "path", change.RelativePath, "error", err)
		return err
	}
	return nil
}

// DeleteFile removes a path's stored artifacts. Per §4.10's deletion
// propagation contract, failures here are reported to the caller but must
// not abort a containing batch.
func (e *Engine) DeleteFile(ctx context.Context, relativePath string) error {
	return e.artifacts.DeleteFileArtifacts(ctx, relativePath)
}

func readFileContent(path string) (string, error) {
	b, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FileResult is one file's outcome within a BatchIndexer run.
type FileResult struct {
	Path string
	Kind core.ChangeKind
	Err  error
}

// Progress is the running tally a BatchIndexer reports after each file.
type Progress struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
	LastError error
}

// ProgressFunc receives a Progress snapshot after each file completes.
type ProgressFunc func(Progress)

// BatchIndexer runs up to Parallelism file indexing tasks concurrently
// over a set of detected changes, per §4.10's batch coordination contract.
type BatchIndexer struct {
	Engine      *Engine
	Parallelism int
	Bus         *events.EventBus
}

// NewBatchIndexer constructs a BatchIndexer with the given concurrency.
func NewBatchIndexer(engine *Engine, parallelism int) *BatchIndexer {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &BatchIndexer{Engine: engine, Parallelism: parallelism}
}

// Run indexes every change, firing onProgress after each file and
// returning the full set of per-file results regardless of failures.
func (b *BatchIndexer) Run(ctx context.Context, changes []Change, onProgress ProgressFunc) []FileResult {
	results := make([]FileResult, len(changes))

	var mu sync.Mutex
	progress := Progress{Total: len(changes)}

	group := new(errgroup.Group)
	group.SetLimit(b.Parallelism)

	for i, change := range changes {
		i, change := i, change
		group.Go(func() error {
			var err error
			if change.Kind != core.ChangeUnchanged {
				err = b.Engine.IndexFile(ctx, change)
			}
			results[i] = FileResult{Path: change.RelativePath, Kind: change.Kind, Err: err}

			mu.Lock()
			progress.Processed++
			if err != nil {
				progress.Failed++
				progress.LastError = err
				if b.Bus != nil {
					b.Bus.PublishPriority(events.NewIndexingFailedEvent(change.RelativePath, err))
				}
			} else {
				progress.Succeeded++
			}
			snapshot := progress
			mu.Unlock()

			if onProgress != nil {
				onProgress(snapshot)
			}
			if b.Bus != nil {
				b.Bus.Publish(events.NewIndexingProgressEvent(snapshot.Total, snapshot.Processed, snapshot.Succeeded, snapshot.Failed, snapshot.LastError))
			}
			return nil // per-file failures never abort the batch
		})
	}
	_ = group.Wait()
	return results
}
