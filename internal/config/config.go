package config

// Config holds all application configuration for the conclave orchestrator.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Indexing  IndexingConfig  `mapstructure:"indexing"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Consensus ConsensusConfig `mapstructure:"consensus"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Events    EventsConfig    `mapstructure:"events"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// StorageConfig configures the SQLite-backed persistence layer.
type StorageConfig struct {
	Path         string `mapstructure:"path"`
	BusyTimeout  string `mapstructure:"busy_timeout"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// IndexingConfig configures the context indexing engine.
type IndexingConfig struct {
	Roots       []string `mapstructure:"roots"`
	Excludes    []string `mapstructure:"excludes"`
	Parallelism int      `mapstructure:"parallelism"`
	MaxFileSize int64    `mapstructure:"max_file_size"`
	WatchFS     bool     `mapstructure:"watch_fs"`
}

// RetrievalConfig configures the context retrieval engine's scoring and
// token-budget enforcement.
type RetrievalConfig struct {
	TokenBudget int             `mapstructure:"token_budget"`
	Weights     RetrievalWeight `mapstructure:"weights"`
	Boosts      RetrievalBoosts `mapstructure:"boosts"`
}

// RetrievalWeight configures the relative weight of each scoring component.
type RetrievalWeight struct {
	Lexical   float64 `mapstructure:"lexical"`
	Vector    float64 `mapstructure:"vector"`
	Recency   float64 `mapstructure:"recency"`
	Proximity float64 `mapstructure:"proximity"`
}

// RetrievalBoosts configures fixed score boosts for specific signals.
type RetrievalBoosts struct {
	OpenFile    float64 `mapstructure:"open_file"`
	RecentEdit  float64 `mapstructure:"recent_edit"`
	SameDirTask float64 `mapstructure:"same_dir_task"`
}

// AgentsConfig configures the agent registry.
type AgentsConfig struct {
	Definitions []AgentDefinition `mapstructure:"definitions"`
}

// AgentDefinition configures a single registered agent. Command/Args/Timeout
// configure how the agent is actually invoked: a CLI process the invoker
// execs per task, the prompt arriving on stdin, the same integration shape
// the teacher's per-vendor adapters use generalized to one configurable
// command per agent.
type AgentDefinition struct {
	Name         string   `mapstructure:"name"`
	Enabled      bool     `mapstructure:"enabled"`
	Endpoint     string   `mapstructure:"endpoint"`
	Command      string   `mapstructure:"command"`
	Args         []string `mapstructure:"args"`
	Timeout      string   `mapstructure:"timeout"`
	Capabilities []string `mapstructure:"capabilities"`
	MaxTokens    int      `mapstructure:"max_tokens"`
}

// StrategyConfig configures the routing-strategy picker's thresholds.
type StrategyConfig struct {
	ComplexityThreshold int      `mapstructure:"complexity_threshold"`
	RiskThreshold        int      `mapstructure:"risk_threshold"`
	CriticalKeywords     []string `mapstructure:"critical_keywords"`
	ParallelCues         []string `mapstructure:"parallel_cues"`
}

// ConsensusConfig configures the multi-agent consensus engine.
type ConsensusConfig struct {
	MinAgreementRate float64 `mapstructure:"min_agreement_rate"`
	DefaultPanelSize int     `mapstructure:"default_panel_size"`
	DecisionTimeout  string  `mapstructure:"decision_timeout"`
}

// WorkflowConfig configures the workflow runtime.
type WorkflowConfig struct {
	HeartbeatInterval  string `mapstructure:"heartbeat_interval"`
	ConsensusTimeout   string `mapstructure:"consensus_timeout"`
	SequentialTimeout  string `mapstructure:"sequential_timeout"`
	ParallelTimeout    string `mapstructure:"parallel_timeout"`
}

// EventsConfig configures the in-process event bus.
type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// AnalyticsConfig configures threshold alerting.
type AnalyticsConfig struct {
	MaxTokensPerTask int     `mapstructure:"max_tokens_per_task"`
	MaxTokensTotal   int     `mapstructure:"max_tokens_total"`
	MinAgreementRate float64 `mapstructure:"min_agreement_rate"`
	MetricsAddr      string  `mapstructure:"metrics_addr"`
}

// GetAgentDefinition returns the named agent definition, or nil if absent.
func (a AgentsConfig) GetAgentDefinition(name string) *AgentDefinition {
	for i := range a.Definitions {
		if a.Definitions[i].Name == name {
			return &a.Definitions[i]
		}
	}
	return nil
}
