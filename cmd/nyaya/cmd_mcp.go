package main

import (
	"context"

	"github.com/spf13/cobra"

	mcpserver "github.com/sweetpotato0/nyaya/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the legal tools over MCP on stdio",
	Long: `Starts an MCP server over stdin/stdout exposing ask_legal_question and
recall_case. Logs go to stderr so they never corrupt the protocol stream.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		return mcpserver.NewServer(a.engine, version).Run(ctx)
	},
}
