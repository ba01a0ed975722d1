package mcp

import (
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Ingest adds documents. Optional; the ingest tool is omitted without it.
	Ingest driving.IngestService

	// Documents backs the document resources. Optional.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
