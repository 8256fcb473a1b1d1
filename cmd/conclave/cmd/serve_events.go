package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveEventsCmd = &cobra.Command{
	Use:   "serve-events",
	Short: "Print every event published on the bus",
	Long: `serve-events subscribes to the kernel's event bus and prints each
event as a single line to stdout as it arrives, until interrupted. It is
the ambient CLI's stand-in for the HTTP/SSE surface this repo's scope
excludes: a way to watch the kernel work without a browser.`,
	RunE: runServeEvents,
}

func init() {
	rootCmd.AddCommand(serveEventsCmd)
}

func runServeEvents(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
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

	ch := k.bus.Subscribe()
	fmt.Println("listening for events, press ctrl-c to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Printf("[%s] task=%s type=%s\n", evt.Timestamp().Format("15:04:05"), evt.TaskID(), evt.EventType())
		}
	}
}
