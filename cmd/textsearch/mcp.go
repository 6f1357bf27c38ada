package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/grep"
	"github.com/standardbeagle/textsearch/internal/mcp"
)

// mcpCommand serves text_search over stdio until stdin closes or a signal
// arrives
func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol
	debug.SetQuietMode(true)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg, grep.NewProvider(grep.WithWorkers(cfg.Search.Workers)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
