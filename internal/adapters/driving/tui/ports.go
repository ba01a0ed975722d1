// Package tui provides an interactive terminal user interface for asking
// questions of ingested documents.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Documents lists documents and their chunks. Optional; the documents
	// view shows an error without it.
	Documents driving.DocumentService

	// Tenant is recorded with every question asked.
	Tenant string
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(query driving.QueryService, documents driving.DocumentService) *Ports {
	return &Ports{
		Query:     query,
		Documents: documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
