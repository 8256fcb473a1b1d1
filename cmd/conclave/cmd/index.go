package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conclave-ai/conclave/internal/indexing"
)

var indexCmd = &cobra.Command{
	Use:   "index [roots...]",
	Short: "Index files for retrieval",
	Long: `Index discovers files under the given roots (or the configured
indexing roots if none are given), detects what changed since the last
run, and chunks, embeds, and extracts symbols from everything new or
modified.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, args []string) error {
	ctx := context.Background()

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

	roots := args
	if len(roots) == 0 {
		roots = cfg.Indexing.Roots
	}

	results, err := k.indexer.Run(ctx, roots, func(p indexing.Progress) {
		if !quiet {
			fmt.Printf("\rindexed %d/%d (failed %d)", p.Processed, p.Total, p.Failed)
		}
	})
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	if !quiet {
		fmt.Println()
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			k.indexLog.Warn("indexing file failed", "path", r.Path, "error", r.Err)
		}
	}
	fmt.Printf("indexed %d files, %d failed\n", len(results), failed)

	if !cfg.Indexing.WatchFS {
		return nil
	}
	return watchAndReindex(ctx, k, roots)
}

// watchAndReindex runs the indexer's filesystem watcher until interrupted,
// the mode cfg.Indexing.watch_fs opts into for a long-lived indexing
// process instead of a one-shot pass.
func watchAndReindex(ctx context.Context, k *kernel, roots []string) error {
	watcher, err := indexing.NewWatcher(k.indexer, roots, k.indexLog)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := watcher.Start(watchCtx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	fmt.Println("watching for changes, press ctrl-c to stop")
	<-watchCtx.Done()
	watcher.Stop()
	return nil
}
