// Package directive turns a user's free-text request into a structured
// core.UserDirective: consensus-forcing/preventing signals, an emergency
// flag, and resolved agent mentions.
package directive

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"

	"github.com/conclave-ai/conclave/internal/core"
)

// negationWindow is how many tokens after a negation cue have their
// polarity flipped.
const negationWindow = 6

// forceThreshold/preventThreshold gate when an accumulated score flips the
// corresponding boolean signal.
const signalThreshold = 0.5

// AgentDirectory is the read-only view of the agent registry the parser
// resolves mentions against.
type AgentDirectory interface {
	Agents() []core.Agent
}

type weightedPhrase struct {
	phrase string
	weight float64
}

var forcePhrases = []weightedPhrase{
	{"need consensus", 0.9},
	{"require consensus", 0.9},
	{"we need consensus", 0.9},
	{"need a second opinion", 0.6},
	{"get a second opinion", 0.6},
	{"get input from", 0.5},
	{"get everyone's input", 0.6},
	{"get their input", 0.5},
	{"want consensus", 0.8},
	{"multiple agents", 0.5},
	{"double check", 0.4},
	{"cross check", 0.4},
}

var preventPhrases = []weightedPhrase{
	{"solo", 0.7},
	{"skip consensus", 0.9},
	{"skip review", 0.6},
	{"just implement", 0.6},
	{"just do it", 0.5},
	{"no review needed", 0.6},
	{"without consensus", 0.8},
	{"without review", 0.6},
	{"go ahead and", 0.3},
	{"ship", 0.3},
}

var emergencyPhrases = []string{
	"emergency", "asap", "urgent", "sev0", "sev 0",
	"production down", "prod down", "production is down", "outage",
}

var negationCues = []string{"don't", "do not", "no", "without", "skip"}

// falsePositivePhrases blocks an agent id/display name from matching when it
// only occurs inside one of these surrounding phrases, unless the text also
// contains an explicit "@id" mention.
var falsePositivePhrases = map[string][]string{
	"user": {"user input", "user error", "end user", "user experience"},
}

// Parse extracts a core.UserDirective from text. It is a pure function of
// (text, the directory's current snapshot): calling it twice with the same
// inputs always produces the same directive, which is what satisfies the
// parser's idempotency property.
func Parse(text string, dir AgentDirectory) *core.UserDirective {
	d := core.NewUserDirective(text)
	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)
	negated := negationMask(tokens)

	var forceScore, preventScore float64

	for _, fp := range forcePhrases {
		idx := phraseTokenIndex(tokens, fp.phrase)
		if idx < 0 {
			continue
		}
		if indexNegated(negated, idx) {
			preventScore += fp.weight
			d.AddParsingNote(fmt.Sprintf("negated force phrase %q counted toward preventConsensus", fp.phrase))
		} else {
			forceScore += fp.weight
			d.AddParsingNote(fmt.Sprintf("matched force phrase %q", fp.phrase))
		}
	}

	for _, pp := range preventPhrases {
		idx := phraseTokenIndex(tokens, pp.phrase)
		if idx < 0 {
			continue
		}
		if indexNegated(negated, idx) {
			forceScore += pp.weight
			d.AddParsingNote(fmt.Sprintf("negated prevent phrase %q counted toward forceConsensus", pp.phrase))
		} else {
			preventScore += pp.weight
			d.AddParsingNote(fmt.Sprintf("matched prevent phrase %q", pp.phrase))
		}
	}

	emergencyCueSeen := false
	for _, cue := range emergencyPhrases {
		idx := phraseTokenIndex(tokens, cue)
		if idx >= 0 && !indexNegated(negated, idx) {
			emergencyCueSeen = true
			d.AddParsingNote(fmt.Sprintf("matched emergency cue %q", cue))
			break
		}
	}
	d.IsEmergency = emergencyCueSeen
	if emergencyCueSeen {
		d.IsEmergencyConfidence = 0.9
		// Emergency cues add to preventConsensus only absent a forcing cue.
		if forceScore == 0 {
			preventScore += 0.5
			d.AddParsingNote("emergency cue with no forcing cue raised preventConsensus")
		}
	}

	mentions := resolveAgentMentions(lower, tokens, dir, d)
	switch len(mentions) {
	case 0:
		// no-op
	case 1:
		d.AssignToAgent = &mentions[0]
		d.AssignedAgents = mentions
	default:
		d.AssignedAgents = mentions
		forceScore += 0.6
		d.AddParsingNote("multiple distinct agent mentions raised forceConsensus")
	}

	d.ForceConsensusConfidence = forceScore
	d.PreventConsensusConfidence = preventScore
	d.ClampConfidences()

	d.ForceConsensus = d.ForceConsensusConfidence >= signalThreshold
	d.PreventConsensus = d.PreventConsensusConfidence >= signalThreshold

	resolveTie(d, emergencyCueSeen && forceScore > 0)

	return d
}

// resolveTie implements step 5 of the algorithm: when both signals exceed
// 0.5 and differ by less than 0.1, clear both to neutral unless an emergency
// with an active forcing cue says to keep force and clear prevent instead.
func resolveTie(d *core.UserDirective, emergencyWithForce bool) {
	if !(d.ForceConsensus && d.PreventConsensus) {
		return
	}
	diff := d.ForceConsensusConfidence - d.PreventConsensusConfidence
	if diff < 0 {
		diff = -diff
	}
	if diff >= 0.1 {
		return
	}
	if emergencyWithForce {
		d.PreventConsensus = false
		d.PreventConsensusConfidence = 0
		d.AddParsingNote("tie resolution: emergency with forcing cue kept force, cleared prevent")
		return
	}
	d.ForceConsensus = false
	d.PreventConsensus = false
	d.AddParsingNote("tie resolution: cleared both signals to neutral")
}

func resolveAgentMentions(lowerText string, tokens []string, dir AgentDirectory, d *core.UserDirective) []core.AgentId {
	if dir == nil {
		return nil
	}
	agents := dir.Agents()
	if len(agents) == 0 {
		return nil
	}

	displayNames := make([]string, len(agents))
	for i, a := range agents {
		displayNames[i] = strings.ToLower(a.DisplayName)
	}

	seen := make(map[core.AgentId]bool, len(agents))
	var found []core.AgentId

	addMatch := func(a core.Agent, reason string) {
		if isFalsePositive(lowerText, a) {
			return
		}
		if seen[a.Id] {
			return
		}
		seen[a.Id] = true
		found = append(found, a.Id)
		d.AddParsingNote(fmt.Sprintf("resolved agent mention %q (%s)", a.Id, reason))
	}

	for _, a := range agents {
		id := strings.ToLower(string(a.Id))
		candidates := []string{id, "@" + id, strings.ToLower(a.DisplayName), strings.ReplaceAll(id, "-", "")}
		for _, cand := range candidates {
			if cand == "" {
				continue
			}
			if containsWholeWord(lowerText, cand) {
				addMatch(a, "exact")
				break
			}
		}
	}

	// Fuzzy / edit-distance resolution for mentions that weren't exact.
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		matches := fuzzy.Find(tok, displayNames)
		for _, m := range matches {
			a := agents[m.Index]
			if seen[a.Id] {
				continue
			}
			if editDistanceAccepts(tok, strings.ToLower(a.DisplayName)) || editDistanceAccepts(tok, strings.ToLower(string(a.Id))) {
				addMatch(a, "fuzzy")
			}
		}
	}

	return found
}

// editDistanceAccepts reports whether a and b are within Damerau-Levenshtein
// distance 2 (approximated here with Levenshtein distance, the closest
// algorithm available in the dependency corpus) and ratio >= 0.75.
func editDistanceAccepts(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	ratio := 1 - float64(dist)/float64(maxLen)
	return dist <= 2 && ratio >= 0.75
}

func isFalsePositive(lowerText string, a core.Agent) bool {
	key := strings.ToLower(string(a.Id))
	phrases, excluded := falsePositivePhrases[key]
	if !excluded {
		return false
	}
	if strings.Contains(lowerText, "@"+key) {
		return false
	}
	for _, phrase := range phrases {
		if strings.Contains(lowerText, phrase) {
			return true
		}
	}
	return false
}

func phraseTokenIndex(tokens []string, phrase string) int {
	phraseTokens := strings.Fields(phrase)
	n := len(phraseTokens)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(tokens); i++ {
		match := true
		for j := 0; j < n; j++ {
			if tokens[i+j] != phraseTokens[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func indexNegated(mask []bool, idx int) bool {
	if idx < 0 || idx >= len(mask) {
		return false
	}
	return mask[idx]
}

func negationMask(tokens []string) []bool {
	mask := make([]bool, len(tokens))
	for i := range tokens {
		cueLen := negationCueLenAt(tokens, i)
		if cueLen == 0 {
			continue
		}
		for j := i + cueLen; j < len(tokens) && j < i+cueLen+negationWindow; j++ {
			mask[j] = true
		}
	}
	return mask
}

func negationCueLenAt(tokens []string, i int) int {
	for _, cue := range negationCues {
		cueTokens := strings.Fields(cue)
		if i+len(cueTokens) > len(tokens) {
			continue
		}
		match := true
		for j, ct := range cueTokens {
			if tokens[i+j] != ct {
				match = false
				break
			}
		}
		if match {
			return len(cueTokens)
		}
	}
	return 0
}

func containsWholeWord(text, word string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx == 0 || !isWordByte(text[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(text) || !isWordByte(text[afterIdx])
		if before && after {
			return true
		}
		start = idx + 1
		if start >= len(text) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}
