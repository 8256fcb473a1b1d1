package retrieval

import (
	"context"

	"github.com/conclave-ai/conclave/internal/gitprovider"
)

// GitHistoryProvider returns recent commits and co-changed files for
// in-scope paths as synthetic snippets, per §4.11.
type GitHistoryProvider struct {
	git *gitprovider.Provider
}

// NewGitHistoryProvider constructs a GitHistoryProvider. A nil git
// disables the provider (Search returns no results), so retrieval still
// functions outside a git checkout.
func NewGitHistoryProvider(git *gitprovider.Provider) *GitHistoryProvider {
	return &GitHistoryProvider{git: git}
}

func (p *GitHistoryProvider) Name() string { return "git-history" }

// Search ignores queryText (git history is scope-driven, not query-driven)
// and returns recent commits plus co-changed files for every path named in
// scope.PathPrefixes.
func (p *GitHistoryProvider) Search(ctx context.Context, _ string, scope ContextScope, topK int) ([]providerResult, error) {
	if p.git == nil || len(scope.PathPrefixes) == 0 {
		return nil, nil
	}
	var out []providerResult
	rank := 0
	for _, path := range scope.PathPrefixes {
		commits, err := p.git.RecentCommits(ctx, path, 5)
		if err != nil {
			continue
		}
		for _, c := range commits {
			rank++
			out = append(out, providerResult{
				provider: p.Name(),
				rank:     rank,
				score:    1.0 / float64(rank),
				snippet: ContextSnippet{
					Type:    SnippetCommit,
					Path:    path,
					Content: c.Subject,
					Score:   1.0 / float64(rank),
					Metadata: map[string]string{
						"type": "commit", "hash": c.Hash, "author": c.Author,
					},
				},
			})
		}
		coChanged, err := p.git.CoChangedFiles(ctx, path, 20)
		if err != nil {
			continue
		}
		for _, other := range coChanged {
			rank++
			score := 1.0 / float64(rank)
			out = append(out, providerResult{
				provider: p.Name(),
				rank:     rank,
				score:    score,
				snippet: ContextSnippet{
					Type:     SnippetCoChanged,
					Path:     other,
					Content:  other,
					Score:    score,
					Metadata: map[string]string{"type": "co-changed"},
				},
			})
		}
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}
