package retrieval

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/storage"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	return matches
}

// FullTextProvider scores chunks by term-frequency × IDF, with length
// based boosts/penalties per §4.11. Document frequency is computed lazily
// and cached across calls until Invalidate is called (on the next index
// run).
type FullTextProvider struct {
	artifacts *storage.ArtifactRepository
	useIDF    bool

	mu    sync.Mutex
	dfIdx map[string]int // term -> document frequency
	docs  []docIndex
	built bool
}

type docIndex struct {
	chunk *core.Chunk
	terms map[string]int // term -> term frequency
}

// NewFullTextProvider constructs a FullTextProvider. useIDF toggles the
// inverse document frequency term per §4.11.
func NewFullTextProvider(artifacts *storage.ArtifactRepository, useIDF bool) *FullTextProvider {
	return &FullTextProvider{artifacts: artifacts, useIDF: useIDF}
}

func (p *FullTextProvider) Name() string { return "fulltext" }

// Invalidate clears the cached document-frequency index, forcing the next
// Search to rebuild it from the store.
func (p *FullTextProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.built = false
	p.dfIdx = nil
	p.docs = nil
}

func (p *FullTextProvider) ensureBuilt(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.built {
		return nil
	}
	chunks, err := p.artifacts.AllChunksWithContent(ctx)
	if err != nil {
		return err
	}
	dfIdx := make(map[string]int)
	docs := make([]docIndex, 0, len(chunks))
	for _, c := range chunks {
		terms := make(map[string]int)
		for _, tok := range tokenize(c.Content) {
			terms[tok]++
		}
		for tok := range terms {
			dfIdx[tok]++
		}
		docs = append(docs, docIndex{chunk: c, terms: terms})
	}
	p.dfIdx = dfIdx
	p.docs = docs
	p.built = true
	return nil
}

func termBoost(term string) float64 {
	switch {
	case len(term) >= 8:
		return 1.15
	case len(term) < 4:
		return 0.95
	default:
		return 1.0
	}
}

// Search scores every indexed chunk against the tokenized query.
func (p *FullTextProvider) Search(ctx context.Context, queryText string, scope ContextScope, topK int) ([]providerResult, error) {
	if err := p.ensureBuilt(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	docs := p.docs
	dfIdx := p.dfIdx
	totalDocs := len(docs)
	p.mu.Unlock()

	queryTerms := tokenize(queryText)
	if len(queryTerms) == 0 || totalDocs == 0 {
		return nil, nil
	}

	type scored struct {
		doc   docIndex
		score float64
	}
	var results []scored
	for _, doc := range docs {
		if !scope.matchesKind(doc.chunk.Kind) {
			continue
		}
		var score float64
		for _, term := range queryTerms {
			tf, ok := doc.terms[term]
			if !ok {
				continue
			}
			boost := termBoost(term)
			idf := 1.0
			if p.useIDF {
				df := dfIdx[term]
				if df == 0 {
					df = 1
				}
				idf = math.Log(float64(totalDocs)/float64(df)) + 1.0
			}
			score += float64(tf) * idf * boost
		}
		if score > 0 {
			results = append(results, scored{doc, score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	maxScore := 0.0
	for _, r := range results {
		if r.score > maxScore {
			maxScore = r.score
		}
	}
	out := make([]providerResult, 0, len(results))
	for i, r := range results {
		normScore := 0.0
		if maxScore > 0 {
			normScore = r.score / maxScore
		}
		out = append(out, providerResult{
			provider: p.Name(),
			rank:     i + 1,
			score:    clamp01(normScore),
			snippet: ContextSnippet{
				Type:    SnippetChunk,
				Kind:    r.doc.chunk.Kind,
				ChunkId: r.doc.chunk.Id,
				Ordinal: r.doc.chunk.Ordinal,
				Content: r.doc.chunk.Content,
				Score:   clamp01(normScore),
			},
		})
	}
	return out, nil
}
