package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/core"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Log = config.LogConfig{Level: "info", Format: "text"}
	cfg.Storage = config.StorageConfig{Path: ":memory:", BusyTimeout: "5s", MaxOpenConns: 1}
	cfg.Indexing = config.IndexingConfig{Roots: []string{"."}, Parallelism: 2, MaxFileSize: 1 << 20}
	cfg.Retrieval = config.RetrievalConfig{
		TokenBudget: 8000,
		Weights:     config.RetrievalWeight{Lexical: 0.4, Vector: 0.3, Recency: 0.2, Proximity: 0.1},
	}
	cfg.Agents = config.AgentsConfig{Definitions: []config.AgentDefinition{
		{Name: "writer", Enabled: true, Command: "/bin/true", Capabilities: []string{"code-generation"}},
		{Name: "reviewer", Enabled: false, Capabilities: []string{"review"}},
	}}
	cfg.Strategy = config.StrategyConfig{ComplexityThreshold: 7, RiskThreshold: 6}
	cfg.Consensus = config.ConsensusConfig{MinAgreementRate: 0.5, DefaultPanelSize: 3, DecisionTimeout: "2m"}
	cfg.Workflow = config.WorkflowConfig{
		HeartbeatInterval: "15s", ConsensusTimeout: "2m", SequentialTimeout: "5m", ParallelTimeout: "5m",
	}
	cfg.Events = config.EventsConfig{BufferSize: 32}
	cfg.Analytics = config.AnalyticsConfig{MaxTokensPerTask: 50000, MaxTokensTotal: 2000000, MinAgreementRate: 0.5}
	return cfg
}

func TestBuildAgents_SkipsDisabledDefinitions(t *testing.T) {
	result := buildAgents(testConfig().Agents)
	require.Len(t, result, 1)
	assert.Equal(t, core.AgentId("writer"), result[0].Id)
	assert.True(t, result[0].HasCapability(core.CapabilityCodeGeneration))
}

func TestBuildCommands_MapsEnabledAgentToItsCommand(t *testing.T) {
	cfg := testConfig()
	cfg.Agents.Definitions[0].Timeout = "30s"
	commands := buildCommands(cfg.Agents)

	require.Contains(t, commands, core.AgentId("writer"))
	assert.Equal(t, "/bin/true", commands["writer"].Path)
	assert.Equal(t, 30*time.Second, commands["writer"].Timeout)
	assert.NotContains(t, commands, core.AgentId("reviewer"))
}

func TestBuildKernel_WiresAllCollaborators(t *testing.T) {
	k, err := buildKernel(testConfig())
	require.NoError(t, err)
	defer func() { _ = k.Close() }()

	assert.NotNil(t, k.runtime)
	assert.NotNil(t, k.indexer)
	assert.NotNil(t, k.collector)
	assert.NotNil(t, k.log)
	assert.NotNil(t, k.indexLog)
	assert.Len(t, k.registry.Agents(), 1)
}
