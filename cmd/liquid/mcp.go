package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"liquid/internal/config"
	"liquid/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	opts := mcp.Options{
		Version:     version,
		Walker:      a.walker(),
		Interpreter: a.interpreter(),
	}

	// Without settings the offline tools still work; chat reports an error.
	settings, err := config.LoadSettings(a.settingsDir)
	switch {
	case errors.Is(err, config.ErrNoSettings):
		a.logger.Info("no settings saved, chat tool disabled")
	case err != nil:
		return err
	default:
		s, err := a.newSession(ctx, settings)
		if err != nil {
			return err
		}
		opts.Chat = s
	}

	history, err := a.openHistory(ctx, settings)
	if err != nil {
		a.logger.Warn("history store unavailable", "error", err)
	} else if history != nil {
		opts.History = history
	}

	server := mcp.NewServer(opts)
	return server.Run(ctx, &sdk.StdioTransport{})
}
