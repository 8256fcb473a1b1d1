package retrieval

import "math"

// MMRRerank reorders snippets by maximal marginal relevance: it
// iteratively picks the next item maximizing
// λ·rel(i) − (1−λ)·max_{j∈S} sim(i,j), where sim is supplied by simFn
// (cosine over candidate vectors when available, 0 when unknown).
// λ=1 preserves relevance order; λ=0 maximizes diversity.
func MMRRerank(snippets []ContextSnippet, lambda float64, simFn func(a, b ContextSnippet) float64) []ContextSnippet {
	if len(snippets) <= 1 || lambda >= 1.0 {
		return snippets
	}
	if lambda < 0 {
		lambda = 0
	}

	remaining := append([]ContextSnippet(nil), snippets...)
	selected := make([]ContextSnippet, 0, len(snippets))

	for len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				if sim := simFn(cand, s); sim > maxSim {
					maxSim = sim
				}
			}
			mmrScore := lambda*cand.Score - (1-lambda)*maxSim
			if mmrScore > bestScore {
				bestScore = mmrScore
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
