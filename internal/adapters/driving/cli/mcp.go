package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/adapters/driving/mcp"
)

var (
	mcpPort     int
	mcpReadOnly bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions of, and add files to, the document store.

Tools:
  ask     answer a question with cited sources
  ingest  ingest a local file (omitted with --read-only)

Resources:
  athena://documents                         ingested documents
  athena://documents/{documentId}/chunks     one document's chunks

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  # Stdio mode
  athena mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  athena mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "athena": {
        "command": "/path/to/athena",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().BoolVar(&mcpReadOnly, "read-only", false, "do not expose the ingest tool")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Query:     queryService,
		Documents: documentService,
	}
	if !mcpReadOnly {
		ports.Ingest = ingestService
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		// stdout stays clean in stdio mode; only HTTP mode announces itself.
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}
