package retrieval

import "sort"

// rrfK is the reciprocal-rank-fusion smoothing constant; 60 is the
// standard choice from the original RRF paper and keeps a single
// provider's rank-1 item from dominating the fused score.
const rrfK = 60.0

// fuse combines each provider's ranked results via weighted reciprocal
// rank fusion: score(d) = Σ weight[provider] / (rrfK + rank(d, provider)).
// Ties break by higher individual score.
func fuse(perProvider map[string][]providerResult, weights map[string]float64) []ContextSnippet {
	type accum struct {
		snippet    ContextSnippet
		fused      float64
		bestScore  float64
	}
	byKey := make(map[string]*accum)
	var order []string

	for provider, results := range perProvider {
		weight := weights[provider]
		if weight == 0 {
			weight = 1.0
		}
		for _, r := range results {
			key := snippetKey(r.snippet)
			a, ok := byKey[key]
			if !ok {
				a = &accum{snippet: r.snippet}
				byKey[key] = a
				order = append(order, key)
			}
			a.fused += weight / (rrfK + float64(r.rank))
			if r.score > a.bestScore {
				a.bestScore = r.score
			}
		}
	}

	out := make([]ContextSnippet, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		a.snippet.Score = a.fused
		out = append(out, a.snippet)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return byKey[snippetKey(out[i])].bestScore > byKey[snippetKey(out[j])].bestScore
	})
	return out
}

func snippetKey(s ContextSnippet) string {
	if s.ChunkId != "" {
		return "chunk:" + string(s.ChunkId)
	}
	return string(s.Type) + ":" + s.Path + ":" + s.Content
}
