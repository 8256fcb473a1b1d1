package core

import "time"

// ChunkKind classifies how a chunk's boundaries were determined.
type ChunkKind string

const (
	ChunkKindHeading  ChunkKind = "heading"
	ChunkKindFunction ChunkKind = "function"
	ChunkKindClass    ChunkKind = "class"
	ChunkKindWindow   ChunkKind = "window"
)

// Chunk is a contiguous region of a file: the atomic unit of embedding and
// retrieval. (FileId, Ordinal) is unique.
type Chunk struct {
	Id           ChunkId
	FileId       FileId
	Ordinal      int
	Kind         ChunkKind
	StartLine    *int
	EndLine      *int
	TokenEstimate *int
	Content      string
	Summary      *string
	CreatedAt    time.Time
}

// NewChunk constructs a Chunk owned by fileId at the given ordinal position.
func NewChunk(fileId FileId, ordinal int, kind ChunkKind, content string) *Chunk {
	return &Chunk{
		Id:        NewChunkId(),
		FileId:    fileId,
		Ordinal:   ordinal,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// EstimatedTokens returns TokenEstimate if set, otherwise the glossary's
// fallback of ceil(len(content)/4).
func (c *Chunk) EstimatedTokens() int {
	if c.TokenEstimate != nil {
		return *c.TokenEstimate
	}
	return (len(c.Content) + 3) / 4
}
