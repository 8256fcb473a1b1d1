package indexing

import (
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestGoSymbolExtractor_FindsFunctionsTypesAndImports(t *testing.T) {
	fileId := core.NewFileId()
	chunk := core.NewChunk(fileId, 0, core.ChunkKindWindow, `package sample

import "fmt"

func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

type Widget interface {
	Render() string
}
`)

	symbols := goSymbolExtractor{}.Extract(fileId, chunk, "go")
	byName := make(map[string]*core.Symbol, len(symbols))
	for _, s := range symbols {
		byName[s.Name] = s
	}

	if s, ok := byName["Greet"]; !ok || s.Type != core.SymbolTypeFunction {
		t.Fatalf("expected Greet to be extracted as a function, got %+v", byName["Greet"])
	}
	if s, ok := byName["Widget"]; !ok || s.Type != core.SymbolTypeInterface {
		t.Fatalf("expected Widget to be extracted as an interface, got %+v", byName["Widget"])
	}
	if _, ok := byName["fmt"]; !ok {
		t.Fatalf("expected fmt import to be extracted, got %+v", byName)
	}
}

func TestRegexSymbolExtractor_MatchesPythonAndJSDeclarations(t *testing.T) {
	fileId := core.NewFileId()
	chunk := core.NewChunk(fileId, 0, core.ChunkKindWindow, "def handle_request(req):\n    pass\n\nclass Widget:\n    pass\n")

	symbols := regexSymbolExtractor{}.Extract(fileId, chunk, "python")
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d: %+v", len(symbols), symbols)
	}
	if symbols[0].Name != "handle_request" || symbols[0].Type != core.SymbolTypeFunction {
		t.Fatalf("unexpected first symbol: %+v", symbols[0])
	}
	if symbols[1].Name != "Widget" || symbols[1].Type != core.SymbolTypeClass {
		t.Fatalf("unexpected second symbol: %+v", symbols[1])
	}
}

func TestSelectExtractor_DispatchesByLanguage(t *testing.T) {
	if _, ok := SelectExtractor("go").(goSymbolExtractor); !ok {
		t.Fatalf("expected goSymbolExtractor for go")
	}
	if _, ok := SelectExtractor("javascript").(regexSymbolExtractor); !ok {
		t.Fatalf("expected regexSymbolExtractor fallback for javascript")
	}
}
