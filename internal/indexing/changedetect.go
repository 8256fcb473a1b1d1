package indexing

import (
	"os"
	"path/filepath"

	"github.com/conclave-ai/conclave/internal/core"
)

// Change pairs a discovered (or formerly stored) path with the kind of
// change detected against the last stored FileState.
type Change struct {
	AbsolutePath string
	RelativePath string
	Kind         core.ChangeKind
	Previous     *core.FileState // nil for ChangeNew
	ContentHash  string          // empty for ChangeDeleted
	SizeBytes    int64
	MtimeNs      int64
}

// DetectChanges compares discovered (absolute paths already filtered by
// Discover) against every FileState the store currently holds, producing
// one Change per discovered file plus one ChangeDeleted per stored file
// that discovery did not see.
func DetectChanges(root string, discovered []string, stored []*core.FileState) ([]Change, error) {
	storedByPath := make(map[string]*core.FileState, len(stored))
	for _, fs := range stored {
		storedByPath[fs.RelativePath] = fs
	}

	seen := make(map[string]struct{}, len(discovered))
	out := make([]Change, 0, len(discovered))
	for _, abs := range discovered {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = struct{}{}

		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue // disappeared between discovery and hashing
			}
			return nil, err
		}
		hash, err := HashFile(abs)
		if err != nil {
			return nil, err
		}

		prev, existed := storedByPath[rel]
		change := Change{
			AbsolutePath: abs,
			RelativePath: rel,
			ContentHash:  hash,
			SizeBytes:    info.Size(),
			MtimeNs:      info.ModTime().UnixNano(),
		}
		switch {
		case !existed:
			change.Kind = core.ChangeNew
		case prev.ContentHash == hash:
			change.Kind = core.ChangeUnchanged
			change.Previous = prev
		default:
			change.Kind = core.ChangeModified
			change.Previous = prev
		}
		out = append(out, change)
	}

	for rel, prev := range storedByPath {
		if _, ok := seen[rel]; ok {
			continue
		}
		out = append(out, Change{
			RelativePath: rel,
			Kind:         core.ChangeDeleted,
			Previous:     prev,
		})
	}
	return out, nil
}
