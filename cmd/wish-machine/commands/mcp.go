package commands

import (
	"context"

	"github.com/spf13/cobra"

	"wish-machine/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the simulate_wish tool over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context())
	},
}

func runMCP(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return mcp.NewServer(cfg, Version).Start(ctx)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
