// Package main is the entry point for the mergecfg command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/mergecfg/internal/cli"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := cli.LoadSettings(nil)
	if err != nil {
		return int(cli.HandleError(os.Stderr, err))
	}

	root := cli.NewRootCommand(settings, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}, os.Stdout, os.Stderr)

	return int(cli.HandleError(os.Stderr, root.ExecuteContext(ctx)))
}
