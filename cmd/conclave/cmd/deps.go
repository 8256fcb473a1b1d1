package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/conclave-ai/conclave/internal/agents"
	"github.com/conclave-ai/conclave/internal/analytics"
	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/consensus"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/indexing"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/statemachine"
	"github.com/conclave-ai/conclave/internal/storage"
	"github.com/conclave-ai/conclave/internal/strategy"
	"github.com/conclave-ai/conclave/internal/workflow"
)

// kernel bundles the wiring every subcommand needs: configuration, storage,
// the event bus, and the orchestration runtime. Callers close store/bus via
// Close once the command is done.
type kernel struct {
	log       *logging.Logger // orchestration-scoped; general kernel-level messages
	indexLog  *logging.Logger // indexing-scoped; the indexer and filesystem watcher
	store     *storage.Store
	bus       *events.EventBus
	collector *analytics.Collector
	runtime   *workflow.Runtime
	registry  *agents.Registry
	invoker   *agents.CLIInvoker
	indexer   *indexing.IncrementalIndexer
}

func (k *kernel) Close() error {
	k.bus.Close()
	return k.store.Close()
}

// loadConfig loads and validates configuration the same way every
// subcommand does: viper precedence chain, then accumulated validation.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader = loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// buildKernel wires the full orchestration stack from a loaded config: the
// SQLite-backed store, the in-memory event bus, the agent registry built
// from config.Agents.Definitions, the consensus engine, the strategy
// picker, the analytics collector, and finally the workflow Runtime that
// ties them together.
func buildKernel(cfg *config.Config) (*kernel, error) {
	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}

	// Every subsystem gets its own category-scoped logger (see
	// internal/logging.Get) rather than sharing one ambient *logging.Logger,
	// so a storage error and a workflow failure never share an unlabeled
	// message stream. Get is a plain constructor, not a cached registry:
	// buildKernel calls it once per subsystem while wiring the process and
	// passes the result down explicitly, same as the rest of this function.
	orchestrationLog := logging.Get(logCfg, logging.CategoryOrchestration)
	storageLog := logging.Get(logCfg, logging.CategoryStorage)
	indexingLog := logging.Get(logCfg, logging.CategoryIndexing)
	consensusLog := logging.Get(logCfg, logging.CategoryConsensus)
	eventsLog := logging.Get(logCfg, logging.CategoryEvents)

	store, err := storage.Open(cfg.Storage.Path, storageLog)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	bus := events.New(cfg.Events.BufferSize)

	registry := agents.New(buildAgents(cfg.Agents))
	selector := agents.NewSelector(registry, nil)

	picker := strategy.NewPicker(orchestrationLog)
	picker.SetThresholds(strategy.Thresholds{
		ForceConsensusConfidence:   0.5,
		PreventConsensusConfidence: 0.5,
		HighRisk:                   cfg.Strategy.RiskThreshold,
	})

	consensusEngine := consensus.NewEngine(store.Consensus(), consensusLog)
	machine := statemachine.New()
	metrics := strategy.NewStrategyMetrics()

	invoker := agents.NewCLIInvoker(buildCommands(cfg.Agents), orchestrationLog)

	collector := analytics.NewCollector(store.Usage(), bus, analytics.Thresholds{
		MaxTokensPerTask: cfg.Analytics.MaxTokensPerTask,
		MaxTokensTotal:   cfg.Analytics.MaxTokensTotal,
		MinAgreementRate: cfg.Analytics.MinAgreementRate,
	}, eventsLog)

	runtime := workflow.New(
		store.Tasks(), store.Checkpoints(), machine, picker, selector, registry,
		invoker, consensusEngine, bus, metrics, orchestrationLog,
	)

	embedder := indexing.NewHashEmbedder(256)
	engine := indexing.NewEngine(store, embedder, indexing.WithLogger(indexingLog))
	indexer := indexing.NewIncrementalIndexer(store, engine, cfg.Indexing.Parallelism)

	return &kernel{
		log: orchestrationLog, indexLog: indexingLog, store: store, bus: bus,
		collector: collector, runtime: runtime, registry: registry, invoker: invoker, indexer: indexer,
	}, nil
}

func buildAgents(cfg config.AgentsConfig) []core.Agent {
	out := make([]core.Agent, 0, len(cfg.Definitions))
	for _, def := range cfg.Definitions {
		if !def.Enabled {
			continue
		}
		agent, err := core.NewAgent(def.Name, core.AgentType(def.Name), capabilitiesOf(def.Capabilities)...)
		if err != nil {
			continue
		}
		agent.Status = core.AgentStatusOnline
		agent.Config = map[string]string{"command": def.Command}
		out = append(out, *agent)
	}
	return out
}

func capabilitiesOf(names []string) []core.Capability {
	out := make([]core.Capability, 0, len(names))
	for _, n := range names {
		out = append(out, core.Capability(n))
	}
	return out
}

func buildCommands(cfg config.AgentsConfig) map[core.AgentId]agents.CLICommand {
	out := make(map[core.AgentId]agents.CLICommand, len(cfg.Definitions))
	for _, def := range cfg.Definitions {
		if !def.Enabled {
			continue
		}
		agent, err := core.NewAgent(def.Name, core.AgentType(def.Name))
		if err != nil {
			continue
		}
		timeout, _ := time.ParseDuration(def.Timeout)
		out[agent.Id] = agents.CLICommand{Path: def.Command, Args: def.Args, Timeout: timeout}
	}
	return out
}
