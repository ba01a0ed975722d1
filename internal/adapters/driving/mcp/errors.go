// Package mcp provides an MCP (Model Context Protocol) server adapter for Athena.
// It lets AI assistants ask questions about ingested documents and ingest
// new files.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
