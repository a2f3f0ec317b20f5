package main

import (
	"context"
	"os"
	"os/signal"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/ai-lawdesk/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the consultation tools over MCP stdio",
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	server := mcp.NewServer(mcp.Info{Name: "ai-lawdesk", Version: version, MaxRounds: cfg.Clarify.MaxRounds}, a.manager, a.detector)
	a.logger.Info("serving MCP over stdio")
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}
