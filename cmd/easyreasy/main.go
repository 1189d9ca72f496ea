package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Interrupt cancels the command context so long-running commands
	// (index, watch) can shut down cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
