package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/classifier"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/directive"
)

func writeFixtureAgent(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// TestSubmitFlow_RoutesAndCompletesAgainstFixtureAgent exercises the same
// sequence runSubmit performs on a buildKernel result, without going through
// cobra's flag/viper plumbing: directive parsing, classification, and
// routing all the way through a real (fixture) agent command.
func TestSubmitFlow_RoutesAndCompletesAgainstFixtureAgent(t *testing.T) {
	script := writeFixtureAgent(t, "cat > /dev/null\necho 'widget implemented'\n")

	cfg := testConfig()
	cfg.Agents.Definitions[0].Command = script

	k, err := buildKernel(cfg)
	require.NoError(t, err)
	defer func() { _ = k.Close() }()

	ctx := context.Background()
	k.collector.Subscribe(ctx, k.bus)

	description := "Add a widget to the dashboard"
	task := core.NewTask(description, core.TaskTypeImplementation).WithDescription(description)

	userDirective := directive.Parse(description, k.registry)
	classification := classifier.Classify(description)
	task.WithComplexity(classification.Complexity).WithRisk(classification.Risk)

	result := k.runtime.RunTask(ctx, task, userDirective, &classification)

	require.NoError(t, result.Err)
	assert.Equal(t, core.TaskStatusCompleted, result.Status)
	assert.Contains(t, result.Output, "widget implemented")
}

func TestSubmitFlow_FailingAgentReturnsError(t *testing.T) {
	script := writeFixtureAgent(t, "echo 'boom' >&2\nexit 1\n")

	cfg := testConfig()
	cfg.Agents.Definitions[0].Command = script

	k, err := buildKernel(cfg)
	require.NoError(t, err)
	defer func() { _ = k.Close() }()

	ctx := context.Background()
	description := "Fix the crash in billing"
	task := core.NewTask(description, core.TaskTypeBugfix).WithDescription(description)

	userDirective := directive.Parse(description, k.registry)
	classification := classifier.Classify(description)
	task.WithComplexity(classification.Complexity).WithRisk(classification.Risk)

	result := k.runtime.RunTask(ctx, task, userDirective, &classification)
	assert.Error(t, result.Err)
}
