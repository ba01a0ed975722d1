package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/adapters/driving/httpapi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  GET  /health          liveness check
  POST /athena/ingest   multipart upload: file, source_type, title,
                        description, tags, tenant_id
  POST /athena/query    JSON body: {"query": "...", "tenant_id": "..."}

Requests to /athena/* must carry the configured key in the x-api-key header.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default: server.port setting)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if ingestService == nil || queryService == nil {
		return errNotConfigured("ingest/query")
	}

	server, err := httpapi.NewServer(httpapi.Config{
		APIKey:      appSettings.Server.APIKey,
		DocsPath:    appSettings.Server.DocsPath,
		MaxUploadMB: appSettings.Server.MaxUploadMB,
	}, ingestService, queryService)
	if err != nil {
		return err
	}

	addr := serveAddr(servePort, appSettings.Server.Port)
	fmt.Fprintf(cmd.OutOrStdout(), "Athena API listening on http://localhost%s\n", addr)
	return server.Run(commandContext(cmd), addr)
}

// serveAddr prefers the flag port over the configured one.
func serveAddr(flagPort, configured int) string {
	port := configured
	if flagPort > 0 {
		port = flagPort
	}
	return fmt.Sprintf(":%d", port)
}
