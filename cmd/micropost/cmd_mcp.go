package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/micropost-notify/internal/mcp"
)

// mcpCmd serves the feed tools over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve notification feed tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return mcp.NewServer(a.uc, version, logger).Run(ctx)
	},
}
