package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration, accumulating every violation found
// rather than stopping at the first, so an operator sees the whole list of
// things to fix in one pass.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateStorage(&cfg.Storage)
	v.validateIndexing(&cfg.Indexing)
	v.validateRetrieval(&cfg.Retrieval)
	v.validateAgents(&cfg.Agents)
	v.validateStrategy(&cfg.Strategy)
	v.validateConsensus(&cfg.Consensus)
	v.validateWorkflow(&cfg.Workflow)
	v.validateEvents(&cfg.Events)
	v.validateAnalytics(&cfg.Analytics)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: msg})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"auto": true, "text": true, "json": true}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateStorage(cfg *StorageConfig) {
	if strings.TrimSpace(cfg.Path) == "" {
		v.addError("storage.path", cfg.Path, "must not be empty")
	}
	if cfg.BusyTimeout != "" {
		v.validateDuration("storage.busy_timeout", cfg.BusyTimeout)
	}
	if cfg.MaxOpenConns <= 0 {
		v.addError("storage.max_open_conns", cfg.MaxOpenConns, "must be positive")
	}
}

func (v *Validator) validateIndexing(cfg *IndexingConfig) {
	if len(cfg.Roots) == 0 {
		v.addError("indexing.roots", cfg.Roots, "must contain at least one root")
	}
	if cfg.Parallelism <= 0 {
		v.addError("indexing.parallelism", cfg.Parallelism, "must be positive")
	}
	if cfg.MaxFileSize <= 0 {
		v.addError("indexing.max_file_size", cfg.MaxFileSize, "must be positive")
	}
}

func (v *Validator) validateRetrieval(cfg *RetrievalConfig) {
	if cfg.TokenBudget <= 0 {
		v.addError("retrieval.token_budget", cfg.TokenBudget, "must be positive")
	}
	sum := cfg.Weights.Lexical + cfg.Weights.Vector + cfg.Weights.Recency + cfg.Weights.Proximity
	if sum <= 0 {
		v.addError("retrieval.weights", sum, "at least one weight must be positive")
	}
	for name, val := range map[string]float64{
		"lexical": cfg.Weights.Lexical, "vector": cfg.Weights.Vector,
		"recency": cfg.Weights.Recency, "proximity": cfg.Weights.Proximity,
	} {
		if val < 0 {
			v.addError("retrieval.weights."+name, val, "must not be negative")
		}
	}
}

func (v *Validator) validateAgents(cfg *AgentsConfig) {
	seen := make(map[string]bool, len(cfg.Definitions))
	for i, def := range cfg.Definitions {
		field := fmt.Sprintf("agents.definitions[%d]", i)
		if strings.TrimSpace(def.Name) == "" {
			v.addError(field+".name", def.Name, "must not be empty")
			continue
		}
		if seen[def.Name] {
			v.addError(field+".name", def.Name, "duplicate agent name")
		}
		seen[def.Name] = true
		if def.Enabled && len(def.Capabilities) == 0 {
			v.addError(field+".capabilities", def.Capabilities, "an enabled agent needs at least one capability")
		}
		if def.Enabled && strings.TrimSpace(def.Command) == "" {
			v.addError(field+".command", def.Command, "an enabled agent needs a command to invoke")
		}
		if def.MaxTokens < 0 {
			v.addError(field+".max_tokens", def.MaxTokens, "must not be negative")
		}
		if def.Timeout != "" {
			v.validateDuration(field+".timeout", def.Timeout)
		}
	}
}

func (v *Validator) validateStrategy(cfg *StrategyConfig) {
	if cfg.ComplexityThreshold < 0 || cfg.ComplexityThreshold > 10 {
		v.addError("strategy.complexity_threshold", cfg.ComplexityThreshold, "must be between 0 and 10")
	}
	if cfg.RiskThreshold < 0 || cfg.RiskThreshold > 10 {
		v.addError("strategy.risk_threshold", cfg.RiskThreshold, "must be between 0 and 10")
	}
}

func (v *Validator) validateConsensus(cfg *ConsensusConfig) {
	if cfg.MinAgreementRate < 0 || cfg.MinAgreementRate > 1 {
		v.addError("consensus.min_agreement_rate", cfg.MinAgreementRate, "must be between 0 and 1")
	}
	if cfg.DefaultPanelSize < 2 {
		v.addError("consensus.default_panel_size", cfg.DefaultPanelSize, "must be at least 2")
	}
	v.validateDuration("consensus.decision_timeout", cfg.DecisionTimeout)
}

func (v *Validator) validateWorkflow(cfg *WorkflowConfig) {
	v.validateDuration("workflow.heartbeat_interval", cfg.HeartbeatInterval)
	v.validateDuration("workflow.consensus_timeout", cfg.ConsensusTimeout)
	v.validateDuration("workflow.sequential_timeout", cfg.SequentialTimeout)
	v.validateDuration("workflow.parallel_timeout", cfg.ParallelTimeout)
}

func (v *Validator) validateEvents(cfg *EventsConfig) {
	if cfg.BufferSize <= 0 {
		v.addError("events.buffer_size", cfg.BufferSize, "must be positive")
	}
}

func (v *Validator) validateAnalytics(cfg *AnalyticsConfig) {
	if cfg.MaxTokensPerTask < 0 {
		v.addError("analytics.max_tokens_per_task", cfg.MaxTokensPerTask, "must not be negative")
	}
	if cfg.MaxTokensTotal < 0 {
		v.addError("analytics.max_tokens_total", cfg.MaxTokensTotal, "must not be negative")
	}
	if cfg.MinAgreementRate < 0 || cfg.MinAgreementRate > 1 {
		v.addError("analytics.min_agreement_rate", cfg.MinAgreementRate, "must be between 0 and 1")
	}
}

func (v *Validator) validateDuration(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.addError(field, value, "must not be empty")
		return
	}
	if _, err := time.ParseDuration(value); err != nil {
		v.addError(field, value, "must be a valid duration (e.g. 30s, 5m)")
	}
}

// ValidateConfig runs a fresh Validator over cfg and returns its error, if any.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
