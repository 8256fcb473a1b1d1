package indexing

import (
	"context"

	"github.com/conclave-ai/conclave/internal/core"
)

// EmbedChunks calls embedder in batches of at most maxBatchSize, returning
// one Embedding per chunk, L2-normalized on store per §4.10.
func EmbedChunks(ctx context.Context, embedder core.Embedder, chunks []*core.Chunk, maxBatchSize int) ([]*core.Embedding, error) {
	if maxBatchSize <= 0 {
		maxBatchSize = 32
	}
	out := make([]*core.Embedding, 0, len(chunks))
	for start := 0; start < len(chunks); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, core.ErrIndexingFailure("", err)
		}
		if len(vectors) != len(batch) {
			return nil, core.ErrIndexingFailure("", core.ErrValidation("EMBED_BATCH_SIZE_MISMATCH",
				"embedder returned a different number of vectors than requested"))
		}
		for i, vec := range vectors {
			emb, err := core.NewEmbedding(batch[i].Id, embedder.ModelName(), vec)
			if err != nil {
				return nil, err
			}
			emb.Normalize()
			out = append(out, emb)
		}
	}
	return out, nil
}
