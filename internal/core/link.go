package core

import "time"

// Link is a directed reference from a chunk to a file, or to a chunk within
// that file. Cyclic references between chunks/links/embeddings are resolved
// by ID-indirection; ownership remains a tree rooted at FileState.
type Link struct {
	Id            LinkId
	SourceChunkId ChunkId
	TargetFileId  FileId
	TargetChunkId *ChunkId
	Type          string
	Label         string
	Score         *float64
	CreatedAt     time.Time
}

// NewLink constructs a Link owned by the source chunk.
func NewLink(sourceChunkId ChunkId, targetFileId FileId, linkType, label string) *Link {
	return &Link{
		Id:            NewLinkId(),
		SourceChunkId: sourceChunkId,
		TargetFileId:  targetFileId,
		Type:          linkType,
		Label:         label,
		CreatedAt:     time.Now(),
	}
}
