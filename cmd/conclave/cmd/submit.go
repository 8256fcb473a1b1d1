package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conclave-ai/conclave/internal/classifier"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/directive"
)

var (
	submitType  string
	submitAgent string
)

var submitCmd = &cobra.Command{
	Use:   "submit [description]",
	Short: "Submit a task for routing and execution",
	Long: `Submit routes a free-text task description through classification,
directive parsing, and strategy selection, then runs it to completion
through whichever executor the routing decision calls for (solo,
consensus, sequential, or parallel).`,
	Example: `  conclave submit "Fix the null pointer in auth.go"
  conclave submit "Review this PR for security issues, must use consensus"`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitType, "type", "implementation",
		"task type (implementation, bugfix, review, testing, documentation, architecture, research, other)")
	submitCmd.Flags().StringVar(&submitAgent, "agent", "",
		"assign the task to a specific agent by name, bypassing capability routing")
}

func runSubmit(_ *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nreceived interrupt, stopping...")
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	k, err := buildKernel(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := k.Close(); closeErr != nil {
			k.log.Warn("closing storage", "error", closeErr)
		}
	}()
	k.collector.Subscribe(ctx, k.bus)
	k.registry.RunHealthChecks(ctx, k.invoker)

	description := args[0]
	task := core.NewTask(description, core.TaskType(submitType)).WithDescription(description)

	userDirective := directive.Parse(description, k.registry)
	if submitAgent != "" {
		agentId := core.AgentId(submitAgent)
		userDirective.AssignToAgent = &agentId
	}
	classification := classifier.Classify(description)
	task.WithComplexity(classification.Complexity).WithRisk(classification.Risk)

	k.log.Info("submitting task", "task_id", string(task.Id), "type", string(task.Type))
	result := k.runtime.RunTask(ctx, task, userDirective, &classification)

	if result.Err != nil {
		return fmt.Errorf("task %s failed: %w", task.Id, result.Err)
	}

	fmt.Printf("task %s completed with status %s\n", result.TaskId, result.Status)
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	return nil
}
