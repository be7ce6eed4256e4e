package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/mcp"
	"github.com/custodia-labs/mailqa/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest a day
of mail and ask questions about it.

Tools: ask, ingest_day, list_sessions.
Resources: mailqa://sessions, mailqa://sessions/{session}/messages.

By default the server speaks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead, for example for the MCP Inspector.

Examples:
  mailqa mcp
  mailqa mcp --http localhost:8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "mailqa": {
        "command": "/path/to/mailqa",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if err := requireQA(); err != nil {
		return err
	}

	ports := &mcp.Ports{
		QA:       qaService,
		Sessions: sessionService,
	}
	if svc, err := resolveIngest(""); err == nil {
		ports.Ingest = svc
	} else {
		logger.Warn("mcp: ingest_day disabled: %v", err)
	}

	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
