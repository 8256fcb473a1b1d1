// Package strategy picks a RoutingStrategy for a task from its directive and
// classification, applying a fixed precedence table and an optional
// telemetry-driven calibrator.
package strategy

import (
	"strings"
	"sync"

	"github.com/conclave-ai/conclave/internal/classifier"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Rule names the precedence rule that produced a Decision, for audit
// logging.
type Rule string

const (
	RuleForceConsensus   Rule = "force-consensus"
	RulePreventConsensus Rule = "prevent-consensus"
	RuleEmergencyBypass  Rule = "emergency-bypass"
	RuleArchitectural    Rule = "architectural-sequencing"
	RuleRisk             Rule = "critical-or-high-risk"
	RuleParallel         Rule = "parallel-cue"
	RuleDefault          Rule = "default-solo"
)

// Thresholds are the tunable knobs the precedence rules compare against.
// They start at their defaults and may be nudged by a Calibrator.
type Thresholds struct {
	ForceConsensusConfidence   float64
	PreventConsensusConfidence float64
	HighRisk                   int
}

// DefaultThresholds returns the picker's starting thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ForceConsensusConfidence:   0.5,
		PreventConsensusConfidence: 0.5,
		HighRisk:                   7,
	}
}

var parallelCues = []string{
	"in parallel", "simultaneously", "concurrently", "at the same time",
	"fan out", "fan-out", "split the work", "work on these together",
}

// hasParallelCue reports whether text contains an explicit request to run
// work in parallel. It is a plain substring scan, not the directive
// parser's weighted phrase scoring: parallel routing is a coarser signal
// than force/prevent consensus and doesn't need negation handling.
func hasParallelCue(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range parallelCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// Decision is the strategy picker's output: the chosen strategy and the
// precedence rule that fired, for the audit line callers are expected to
// log.
type Decision struct {
	Strategy core.RoutingStrategy
	Rule     Rule
}

// Picker picks a RoutingStrategy for a task. It is safe for concurrent use;
// Thresholds may be replaced atomically by a Calibrator.
type Picker struct {
	mu         sync.RWMutex
	thresholds Thresholds
	logger     *logging.Logger
}

// NewPicker builds a Picker with the default thresholds. logger may be nil.
func NewPicker(logger *logging.Logger) *Picker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Picker{thresholds: DefaultThresholds(), logger: logger}
}

// Thresholds returns the picker's current thresholds.
func (p *Picker) Thresholds() Thresholds {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.thresholds
}

// SetThresholds replaces the picker's thresholds, used by a Calibrator.
func (p *Picker) SetThresholds(t Thresholds) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thresholds = t
}

// Pick applies the precedence table from highest to lowest and returns the
// first rule that fires. classification may be nil, in which case rules
// that depend on it (critical keywords) are skipped.
func (p *Picker) Pick(task *core.Task, directive *core.UserDirective, classification *classifier.Classification) Decision {
	thresholds := p.Thresholds()

	activeForce := directive != nil && directive.ForceConsensus &&
		directive.ForceConsensusConfidence >= thresholds.ForceConsensusConfidence
	activePrevent := directive != nil && directive.PreventConsensus &&
		directive.PreventConsensusConfidence >= thresholds.PreventConsensusConfidence

	var decision Decision
	switch {
	case activeForce:
		decision = Decision{Strategy: core.RoutingConsensus, Rule: RuleForceConsensus}
	case activePrevent:
		decision = Decision{Strategy: core.RoutingSolo, Rule: RulePreventConsensus}
	case directive != nil && directive.IsEmergency && !activeForce:
		decision = Decision{Strategy: core.RoutingSolo, Rule: RuleEmergencyBypass}
	case task.Type == core.TaskTypeArchitecture && task.Complexity >= 7 && !hasCriticalKeywords(classification):
		decision = Decision{Strategy: core.RoutingSequential, Rule: RuleArchitectural}
	case hasCriticalKeywords(classification) || task.Risk >= thresholds.HighRisk:
		decision = Decision{Strategy: core.RoutingConsensus, Rule: RuleRisk}
	case task.Metadata["parallelizable"] == "true" || (directive != nil && hasParallelCue(directive.OriginalText)):
		decision = Decision{Strategy: core.RoutingParallel, Rule: RuleParallel}
	default:
		decision = Decision{Strategy: core.RoutingSolo, Rule: RuleDefault}
	}

	p.logger.Info("strategy picked",
		"task_id", string(task.Id),
		"strategy", string(decision.Strategy),
		"rule", string(decision.Rule),
	)
	return decision
}

func hasCriticalKeywords(c *classifier.Classification) bool {
	return c != nil && len(c.CriticalKeywords) > 0
}
