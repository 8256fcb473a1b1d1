package indexing

import (
	"bufio"
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/conclave-ai/conclave/internal/core"
)

// defaultMaxTokens bounds a single chunk's estimated token length; the
// markdown and window chunkers both split once a candidate region would
// exceed it.
const defaultMaxTokens = 800

// Chunker splits a file's content into ordered, ordinal-numbered Chunks.
// Implementations never set Chunk.Id or Chunk.CreatedAt; callers finish
// construction via core.NewChunk-equivalent assembly so every chunk's
// identity is minted at the moment it is about to be persisted.
type Chunker interface {
	Chunk(fileId core.FileId, content string) []*core.Chunk
}

// SelectChunker returns the chunker appropriate for language/extension:
// Go source gets tree-sitter function/class boundaries, Markdown gets
// heading boundaries, everything else falls back to a fixed token window.
func SelectChunker(language string) Chunker {
	switch language {
	case "go":
		return goChunker{maxTokens: defaultMaxTokens}
	case "markdown":
		return markdownChunker{maxTokens: defaultMaxTokens}
	default:
		return windowChunker{maxTokens: defaultMaxTokens}
	}
}

// --- markdown: heading-boundary chunking -----------------------------------

type markdownChunker struct {
	maxTokens int
}

func (m markdownChunker) Chunk(fileId core.FileId, content string) []*core.Chunk {
	lines := strings.Split(content, "\n")
	type section struct {
		start, end int // 0-indexed, end exclusive
	}
	var sections []section
	sectionStart := 0
	for i, line := range lines {
		if i > 0 && strings.HasPrefix(strings.TrimSpace(line), "#") {
			sections = append(sections, section{sectionStart, i})
			sectionStart = i
		}
	}
	sections = append(sections, section{sectionStart, len(lines)})

	var chunks []*core.Chunk
	ordinal := 0
	for _, sec := range sections {
		body := strings.Join(lines[sec.start:sec.end], "\n")
		for _, part := range splitByTokenBudget(body, m.maxTokens) {
			start := sec.start + 1
			end := sec.end
			c := core.NewChunk(fileId, ordinal, core.ChunkKindHeading, part)
			c.StartLine = intPtr(start)
			c.EndLine = intPtr(end)
			chunks = append(chunks, c)
			ordinal++
		}
	}
	return chunks
}

// --- go: tree-sitter function/class (type) boundary chunking --------------

type goChunker struct {
	maxTokens int
}

func (g goChunker) Chunk(fileId core.FileId, content string) []*core.Chunk {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil || tree == nil {
		return windowChunker{maxTokens: g.maxTokens}.Chunk(fileId, content)
	}
	defer tree.Close()

	root := tree.RootNode()
	lines := strings.Split(content, "\n")

	type region struct {
		kind             core.ChunkKind
		startByte        uint32
		endByte          uint32
		startLine        int
		endLine          int
	}
	var regions []region

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration", "method_declaration":
			start, end := boundaryWithDoc(n, lines)
			regions = append(regions, region{core.ChunkKindFunction, n.StartByte(), n.EndByte(), start, end})
			return
		case "type_declaration":
			start, end := boundaryWithDoc(n, lines)
			regions = append(regions, region{core.ChunkKindClass, n.StartByte(), n.EndByte(), start, end})
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	if len(regions) == 0 {
		return windowChunker{maxTokens: g.maxTokens}.Chunk(fileId, content)
	}

	var chunks []*core.Chunk
	ordinal := 0
	for _, r := range regions {
		text := string([]byte(content)[r.startByte:r.endByte])
		for _, part := range splitByTokenBudget(text, g.maxTokens) {
			c := core.NewChunk(fileId, ordinal, r.kind, part)
			c.StartLine = intPtr(r.startLine)
			c.EndLine = intPtr(r.endLine)
			chunks = append(chunks, c)
			ordinal++
		}
	}
	return chunks
}

// boundaryWithDoc extends a node's declared line range backward over any
// immediately preceding comment lines, so doc comments stay adjacent to
// their declaration per §4.10.
func boundaryWithDoc(n *sitter.Node, lines []string) (start, end int) {
	start = int(n.StartPoint().Row) + 1
	end = int(n.EndPoint().Row) + 1
	for i := start - 2; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "//") {
			start = i + 1
			continue
		}
		break
	}
	return start, end
}

// --- fallback: fixed token window ------------------------------------------

type windowChunker struct {
	maxTokens int
}

func (w windowChunker) Chunk(fileId core.FileId, content string) []*core.Chunk {
	var chunks []*core.Chunk
	ordinal := 0
	lineNo := 0
	for _, part := range splitByTokenBudget(content, w.maxTokens) {
		startLine := lineNo + 1
		lineNo += strings.Count(part, "\n") + 1
		c := core.NewChunk(fileId, ordinal, core.ChunkKindWindow, part)
		c.StartLine = intPtr(startLine)
		c.EndLine = intPtr(lineNo)
		chunks = append(chunks, c)
		ordinal++
	}
	if len(chunks) == 0 {
		chunks = append(chunks, core.NewChunk(fileId, 0, core.ChunkKindWindow, content))
	}
	return chunks
}

// splitByTokenBudget splits text into line-aligned parts, each estimated
// at no more than maxTokens via the glossary's ceil(len/4) fallback.
func splitByTokenBudget(text string, maxTokens int) []string {
	maxChars := maxTokens * 4
	if maxChars <= 0 {
		return []string{text}
	}
	if len(text) <= maxChars {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var parts []string
	var buf strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if buf.Len() > 0 && buf.Len()+len(line)+1 > maxChars {
			parts = append(parts, buf.String())
			buf.Reset()
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if buf.Len() > 0 {
		parts = append(parts, buf.String())
	}
	return parts
}

func intPtr(v int) *int { return &v }
