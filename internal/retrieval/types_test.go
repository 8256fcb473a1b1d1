package retrieval

import (
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestContextScope_MatchesPath(t *testing.T) {
	empty := ContextScope{}
	if !empty.matchesPath("anything/at/all.go") {
		t.Fatalf("expected an empty scope to match any path")
	}

	scoped := ContextScope{PathPrefixes: []string{"internal/retrieval/", "cmd/"}}
	if !scoped.matchesPath("internal/retrieval/engine.go") {
		t.Fatalf("expected a matching prefix to pass")
	}
	if scoped.matchesPath("internal/storage/storage.go") {
		t.Fatalf("expected a non-matching prefix to fail")
	}
}

func TestContextScope_MatchesLanguageAndKind(t *testing.T) {
	scope := ContextScope{Languages: []string{"go"}, Kinds: []core.ChunkKind{core.ChunkKindFunction}}
	if !scope.matchesLanguage("go") || scope.matchesLanguage("python") {
		t.Fatalf("expected language filter to accept go and reject python")
	}
	if !scope.matchesKind(core.ChunkKindFunction) || scope.matchesKind(core.ChunkKindWindow) {
		t.Fatalf("expected kind filter to accept function and reject window")
	}
}
