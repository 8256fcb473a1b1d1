package retrieval

import "testing"

func TestMMRRerank_PrefersDiversityOverPureRelevance(t *testing.T) {
	// b is a near-duplicate of a; c is unrelated but scores lower.
	a := ContextSnippet{ChunkId: "a", Score: 1.0}
	b := ContextSnippet{ChunkId: "b", Score: 0.95}
	c := ContextSnippet{ChunkId: "c", Score: 0.6}

	sim := func(x, y ContextSnippet) float64 {
		if (x.ChunkId == "a" && y.ChunkId == "b") || (x.ChunkId == "b" && y.ChunkId == "a") {
			return 0.99
		}
		return 0.0
	}

	out := MMRRerank([]ContextSnippet{a, b, c}, 0.5, sim)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[0].ChunkId != "a" {
		t.Fatalf("expected a to be picked first (highest relevance), got %v", out[0].ChunkId)
	}
	if out[1].ChunkId != "c" {
		t.Fatalf("expected c to be picked second over near-duplicate b, got %v", out[1].ChunkId)
	}
	if out[2].ChunkId != "b" {
		t.Fatalf("expected b last, got %v", out[2].ChunkId)
	}
}

func TestMMRRerank_LambdaOnePreservesOriginalOrder(t *testing.T) {
	in := []ContextSnippet{{ChunkId: "a", Score: 0.5}, {ChunkId: "b", Score: 0.9}}
	out := MMRRerank(in, 1.0, func(a, b ContextSnippet) float64 { return 1.0 })
	if out[0].ChunkId != "a" || out[1].ChunkId != "b" {
		t.Fatalf("expected lambda=1.0 to bypass re-ranking, got %v", out)
	}
}
