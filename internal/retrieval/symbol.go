package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/storage"
)

// symbolExcludeList filters tokens that look symbol-shaped but are common
// English words or query scaffolding, mirroring the directive parser's
// false-positive exclusion approach.
var symbolExcludeList = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
}

var (
	reCamelCase    = regexp.MustCompile(`\b[A-Za-z][a-z0-9]*(?:[A-Z][a-z0-9]*)+\b`)
	reSnakeCase    = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b`)
	reCallSyntax   = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(\s*\)`)
	reQualifiedRef = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)+\b`)
)

// extractSymbolTokens pulls symbol-shaped substrings out of free text:
// CamelCase, snake_case, `name()` call syntax, and qualified `a.b.c`
// references.
func extractSymbolTokens(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		tok = strings.TrimSuffix(tok, "()")
		if _, excluded := symbolExcludeList[strings.ToLower(tok)]; excluded {
			return
		}
		if _, ok := seen[tok]; ok || tok == "" {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, m := range reCamelCase.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range reSnakeCase.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range reCallSyntax.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range reQualifiedRef.FindAllString(text, -1) {
		add(m)
	}
	return out
}

// SymbolProvider matches symbol-shaped query tokens against stored
// symbols: exact match first, then fuzzy (bounded edit distance).
type SymbolProvider struct {
	artifacts *storage.ArtifactRepository
}

// NewSymbolProvider constructs a SymbolProvider.
func NewSymbolProvider(artifacts *storage.ArtifactRepository) *SymbolProvider {
	return &SymbolProvider{artifacts: artifacts}
}

func (p *SymbolProvider) Name() string { return "symbol" }

func (p *SymbolProvider) Search(ctx context.Context, queryText string, scope ContextScope, topK int) ([]providerResult, error) {
	tokens := extractSymbolTokens(queryText)
	if len(tokens) == 0 {
		return nil, nil
	}

	type scored struct {
		sym   *core.Symbol
		score float64
	}
	var candidates []scored
	seen := make(map[core.SymbolId]struct{})

	for _, tok := range tokens {
		exact, err := p.artifacts.SymbolsMatching(ctx, tok, 25)
		if err != nil {
			return nil, err
		}
		for _, sym := range exact {
			if _, ok := seen[sym.Id]; ok {
				continue
			}
			score := 1.0
			if !strings.EqualFold(sym.Name, tok) {
				dist := levenshtein.ComputeDistance(strings.ToLower(sym.Name), strings.ToLower(tok))
				maxLen := len(sym.Name)
				if len(tok) > maxLen {
					maxLen = len(tok)
				}
				if maxLen == 0 || dist > 2 {
					continue
				}
				score = 1.0 - float64(dist)/float64(maxLen)
			}
			if classRank(sym.Type) > 0 {
				score += 0.05 // classes rank above functions at equal relevance
			}
			seen[sym.Id] = struct{}{}
			candidates = append(candidates, scored{sym, score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]providerResult, 0, len(candidates))
	for i, c := range candidates {
		out = append(out, providerResult{
			provider: p.Name(),
			rank:     i + 1,
			score:    clamp01(c.score),
			snippet: ContextSnippet{
				Type:    SnippetChunk,
				ChunkId: c.sym.ChunkId,
				Score:   clamp01(c.score),
				Metadata: map[string]string{
					"symbol_name": c.sym.Name,
					"symbol_type": string(c.sym.Type),
				},
			},
		})
	}
	return out, nil
}

func classRank(t core.SymbolType) int {
	if t == core.SymbolTypeClass || t == core.SymbolTypeInterface {
		return 1
	}
	return 0
}
