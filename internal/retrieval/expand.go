package retrieval

import (
	"context"
	"sort"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/storage"
)

// ExpandNeighbors adds chunks within ±window ordinals of each selected
// chunk at half the original's score, then restores document order
// (fileId, ordinal) in the final output, per §4.11.
func ExpandNeighbors(ctx context.Context, artifacts *storage.ArtifactRepository, snippets []ContextSnippet, window int) ([]ContextSnippet, error) {
	if window <= 0 {
		return snippets, nil
	}

	chunksByID := make(map[core.ChunkId]*core.Chunk)
	fileOf := make(map[core.ChunkId]core.FileId)
	seen := make(map[core.ChunkId]struct{})
	for _, s := range snippets {
		if s.ChunkId != "" {
			seen[s.ChunkId] = struct{}{}
		}
	}

	out := append([]ContextSnippet(nil), snippets...)
	filesSeen := make(map[core.FileId]struct{})
	for _, s := range snippets {
		if s.ChunkId == "" {
			continue
		}
		chunk, fileId, err := lookupChunk(ctx, artifacts, s.ChunkId)
		if err != nil || chunk == nil {
			continue
		}
		chunksByID[chunk.Id] = chunk
		fileOf[chunk.Id] = fileId
		if _, done := filesSeen[fileId]; done {
			continue
		}
		filesSeen[fileId] = struct{}{}

		siblings, err := artifacts.ChunksForFile(ctx, fileId)
		if err != nil {
			continue
		}
		for _, sib := range siblings {
			if _, already := seen[sib.Id]; already {
				continue
			}
			if absInt(sib.Ordinal-chunk.Ordinal) > window {
				continue
			}
			seen[sib.Id] = struct{}{}
			out = append(out, ContextSnippet{
				Type:    SnippetChunk,
				Kind:    sib.Kind,
				ChunkId: sib.Id,
				Ordinal: sib.Ordinal,
				Content: sib.Content,
				Score:   s.Score * 0.5,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		fi, oki := fileOf[out[i].ChunkId]
		fj, okj := fileOf[out[j].ChunkId]
		if oki && okj && fi == fj {
			return out[i].Ordinal < out[j].Ordinal
		}
		return false
	})
	return out, nil
}

func lookupChunk(ctx context.Context, artifacts *storage.ArtifactRepository, id core.ChunkId) (*core.Chunk, core.FileId, error) {
	all, err := artifacts.AllChunksWithContent(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, c := range all {
		if c.Id == id {
			return c, c.FileId, nil
		}
	}
	return nil, "", nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
