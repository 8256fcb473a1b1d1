package retrieval

import "strings"

// Boosts configures the multiplicative path-prefix and language boosts
// applied after fusion, before MMR re-ranking.
type Boosts struct {
	PathPrefix map[string]float64
	Language   map[string]float64
}

// Apply multiplies each snippet's score by any matching path-prefix and
// language boost, clamping the result to [0,1].
func (b Boosts) Apply(snippets []ContextSnippet) {
	for i := range snippets {
		factor := 1.0
		for prefix, mult := range b.PathPrefix {
			if strings.HasPrefix(snippets[i].Path, prefix) {
				factor *= mult
			}
		}
		if mult, ok := b.Language[snippets[i].Language]; ok {
			factor *= mult
		}
		snippets[i].Score = clamp01(snippets[i].Score * factor)
	}
}
