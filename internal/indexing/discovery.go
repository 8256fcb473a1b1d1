// Package indexing implements the context indexing engine from §4.10:
// filesystem discovery, change detection, chunking, embedding, symbol
// extraction, and the transactional per-file replace that keeps
// internal/storage's context tables in sync with the tree on disk.
package indexing

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathValidator composes the ignore/allow rules Discover applies to every
// candidate path: ignore globs, extension allow/block lists, symlink
// policy, and a byte size ceiling.
type PathValidator struct {
	IgnoreGlobs      []string
	AllowExtensions  []string // empty means "all except Block"
	BlockExtensions  []string
	FollowSymlinks   bool
	MaxSizeBytes     int64
}

// DefaultPathValidator mirrors the ignore set a typical source tree needs:
// VCS metadata, dependency vendoring, and build output excluded, common
// source and doc extensions allowed, symlinks not followed, files capped
// at 2 MiB.
func DefaultPathValidator() PathValidator {
	return PathValidator{
		IgnoreGlobs: []string{
			".git/*", ".git/**", "node_modules/*", "node_modules/**",
			"vendor/*", "vendor/**", ".quorum/*", ".quorum/**",
			"*.min.js", "*.lock",
		},
		AllowExtensions: []string{".go", ".md", ".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".rs", ".c", ".h", ".cpp", ".yaml", ".yml", ".json", ".txt"},
		FollowSymlinks:  false,
		MaxSizeBytes:    2 << 20,
	}
}

// acceptDir reports whether a directory should be descended into: only the
// ignore globs apply, since extension allow/block lists describe files.
func (v PathValidator) acceptDir(relativePath string) bool {
	slashPath := filepath.ToSlash(relativePath)
	for _, glob := range v.IgnoreGlobs {
		if ok, _ := filepath.Match(glob, slashPath); ok {
			return false
		}
		if ok, _ := filepath.Match(glob, filepath.Base(strings.TrimSuffix(slashPath, "/"))); ok {
			return false
		}
	}
	return true
}

// Accept reports whether relativePath, with file metadata info, passes the
// validator's rules. info may be nil when only extension/ignore checks are
// needed (e.g. before a stat).
func (v PathValidator) Accept(relativePath string, info os.FileInfo) bool {
	slashPath := filepath.ToSlash(relativePath)
	for _, glob := range v.IgnoreGlobs {
		if ok, _ := filepath.Match(glob, slashPath); ok {
			return false
		}
		if ok, _ := filepath.Match(glob, filepath.Base(slashPath)); ok {
			return false
		}
	}
	ext := strings.ToLower(filepath.Ext(relativePath))
	for _, blocked := range v.BlockExtensions {
		if ext == blocked {
			return false
		}
	}
	if len(v.AllowExtensions) > 0 {
		allowed := false
		for _, a := range v.AllowExtensions {
			if ext == a {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	if info != nil {
		if info.Mode()&os.ModeSymlink != 0 && !v.FollowSymlinks {
			return false
		}
		if v.MaxSizeBytes > 0 && info.Size() > v.MaxSizeBytes {
			return false
		}
	}
	return true
}

// Discover walks roots and returns a deduplicated, normalized, absolute
// path list of files PathValidator accepts.
func Discover(roots []string, validator PathValidator) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		err = filepath.Walk(absRoot, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if info.IsDir() {
				rel, _ := filepath.Rel(absRoot, path)
				if rel != "." && !validator.acceptDir(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(absRoot, path)
			if err != nil {
				return nil
			}
			if !validator.Accept(rel, info) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil
			}
			abs = filepath.Clean(abs)
			if _, ok := seen[abs]; ok {
				return nil
			}
			seen[abs] = struct{}{}
			out = append(out, abs)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}
