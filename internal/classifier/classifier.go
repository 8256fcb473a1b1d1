// Package classifier turns free text into a task's complexity, risk, and
// critical-keyword signals. It is a pure function: no I/O, no shared state.
package classifier

import (
	"strings"
)

// Classification is the pure-function output of classifying a piece of text.
type Classification struct {
	Complexity       int
	Risk             int
	CriticalKeywords []string
	Confidence       float64
}

var architectureVocabulary = []string{
	"architecture", "integration", "migration", "refactor", "redesign",
	"rearchitect", "restructure", "rewrite", "platform",
}

var criticalKeywords = []string{
	"auth", "oauth", "jwt", "payment", "encryption", "security", "pii",
	"compliance", "production", "rollout",
}

// Classify runs the classifier over text. It is required to run in under
// 50ms for inputs up to 2KB; the implementation below is linear in the
// input length and does no I/O, so that bound holds by construction.
func Classify(text string) Classification {
	lower := strings.ToLower(text)
	signals := 0

	complexity := baseComplexity(text, lower)
	if complexity > 1 {
		signals++
	}

	keywords := matchCriticalKeywords(lower)
	if len(keywords) > 0 {
		signals++
	}

	risk := baseRisk(text, keywords)
	if risk > 1 {
		signals++
	}

	confidence := float64(signals) / 3.0

	return Classification{
		Complexity:       clamp110(complexity),
		Risk:             clamp110(risk),
		CriticalKeywords: keywords,
		Confidence:       clamp01(confidence),
	}
}

func baseComplexity(text, lower string) int {
	score := 1

	length := len(text)
	switch {
	case length > 1500:
		score += 4
	case length > 800:
		score += 3
	case length > 300:
		score += 2
	case length > 100:
		score += 1
	}

	sentences := countSentences(text)
	switch {
	case sentences > 10:
		score += 3
	case sentences > 5:
		score += 2
	case sentences > 2:
		score += 1
	}

	for _, term := range architectureVocabulary {
		if strings.Contains(lower, term) {
			score += 2
			break
		}
	}

	return score
}

func baseRisk(text string, keywords []string) int {
	score := 1

	length := len(text)
	switch {
	case length > 1500:
		score += 2
	case length > 500:
		score += 1
	}

	score += len(keywords) * 2

	return score
}

func matchCriticalKeywords(lower string) []string {
	var matched []string
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func countSentences(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}

func clamp110(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
