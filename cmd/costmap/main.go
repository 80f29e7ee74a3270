// Package main provides the entry point for the costmap CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/buildmetric/costmap/cmd/costmap/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd.SetVersion(version, commit, date)
	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
