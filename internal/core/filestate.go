package core

import "time"

// FileState is the last indexed snapshot of a file. It exclusively owns its
// chunks; each chunk exclusively owns its embeddings and outgoing links.
type FileState struct {
	Id           FileId
	RelativePath string
	ContentHash  string
	SizeBytes    int64
	MtimeNs      int64
	Language     string
	Kind         string
	Fingerprint  string
	IndexedAt    time.Time
	IsDeleted    bool
}

// ChangeKind classifies a discovered file against its last stored FileState.
type ChangeKind string

const (
	ChangeNew       ChangeKind = "new"
	ChangeModified  ChangeKind = "modified"
	ChangeUnchanged ChangeKind = "unchanged"
	ChangeDeleted   ChangeKind = "deleted"
)

// NewFileState constructs a FileState for a freshly hashed file.
func NewFileState(relativePath, contentHash string, sizeBytes, mtimeNs int64) *FileState {
	return &FileState{
		Id:           NewFileId(),
		RelativePath: relativePath,
		ContentHash:  contentHash,
		SizeBytes:    sizeBytes,
		MtimeNs:      mtimeNs,
		IndexedAt:    time.Now(),
	}
}
