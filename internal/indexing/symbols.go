package indexing

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/conclave-ai/conclave/internal/core"
)

// SymbolExtractor produces Symbol records for a chunk. The language-aware
// extractor walks a tree-sitter AST for Go; every other language falls
// back to a conservative regex scan that only ever produces false
// negatives, never false positives.
type SymbolExtractor interface {
	Extract(fileId core.FileId, chunk *core.Chunk, language string) []*core.Symbol
}

// SelectExtractor returns the extractor appropriate for language.
func SelectExtractor(language string) SymbolExtractor {
	switch language {
	case "go":
		return goSymbolExtractor{}
	default:
		return regexSymbolExtractor{}
	}
}

type goSymbolExtractor struct{}

func (goSymbolExtractor) Extract(fileId core.FileId, chunk *core.Chunk, _ string) []*core.Symbol {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())

	content := []byte(chunk.Content)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	var out []*core.Symbol
	lineOffset := 0
	if chunk.StartLine != nil {
		lineOffset = *chunk.StartLine - 1
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				out = append(out, newSymbol(fileId, chunk.Id, core.SymbolTypeFunction, name.Content(content),
					lineOffset+int(n.StartPoint().Row)+1, lineOffset+int(n.EndPoint().Row)+1, "go"))
			}
		case "method_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				out = append(out, newSymbol(fileId, chunk.Id, core.SymbolTypeMethod, name.Content(content),
					lineOffset+int(n.StartPoint().Row)+1, lineOffset+int(n.EndPoint().Row)+1, "go"))
			}
		case "type_spec":
			if name := n.ChildByFieldName("name"); name != nil {
				kind := core.SymbolTypeClass
				if t := n.ChildByFieldName("type"); t != nil && t.Type() == "interface_type" {
					kind = core.SymbolTypeInterface
				}
				out = append(out, newSymbol(fileId, chunk.Id, kind, name.Content(content),
					lineOffset+int(n.StartPoint().Row)+1, lineOffset+int(n.EndPoint().Row)+1, "go"))
			}
		case "import_spec":
			if path := n.ChildByFieldName("path"); path != nil {
				out = append(out, newSymbol(fileId, chunk.Id, core.SymbolTypeImport,
					strings.Trim(path.Content(content), `"`),
					lineOffset+int(n.StartPoint().Row)+1, lineOffset+int(n.EndPoint().Row)+1, "go"))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return out
}

func newSymbol(fileId core.FileId, chunkId core.ChunkId, kind core.SymbolType, name string, start, end int, language string) *core.Symbol {
	return core.NewSymbol(fileId, chunkId, kind, name, start, end, language)
}

// regexSymbolExtractor is the non-Go fallback: it recognizes common
// function/class declaration shapes across Python, JS/TS, and Java-family
// syntax without attempting a full parse.
type regexSymbolExtractor struct{}

var (
	reFuncLike  = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:function|def)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	reClassLike = regexp.MustCompile(`^\s*(?:export\s+)?(?:public\s+|private\s+)?(?:abstract\s+)?class\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

func (regexSymbolExtractor) Extract(fileId core.FileId, chunk *core.Chunk, language string) []*core.Symbol {
	lines := strings.Split(chunk.Content, "\n")
	lineOffset := 0
	if chunk.StartLine != nil {
		lineOffset = *chunk.StartLine - 1
	}
	var out []*core.Symbol
	for i, line := range lines {
		lineNo := lineOffset + i + 1
		if m := reFuncLike.FindStringSubmatch(line); m != nil {
			out = append(out, core.NewSymbol(fileId, chunk.Id, core.SymbolTypeFunction, m[1], lineNo, lineNo, language))
		}
		if m := reClassLike.FindStringSubmatch(line); m != nil {
			out = append(out, core.NewSymbol(fileId, chunk.Id, core.SymbolTypeClass, m[1], lineNo, lineNo, language))
		}
	}
	return out
}
