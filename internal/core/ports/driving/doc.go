// Package driving defines the interfaces that infrastructure calls INTO core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI, HTTP API, MCP server, TUI and inbox watcher depend on these
// interfaces; core services implement them.
//
// # Interfaces
//
//   - IngestService: Loads, chunks, embeds and stores a document
//   - QueryService: Answers a question from stored chunks
//   - ReconcileService: Checks and repairs chunk/vector consistency
//   - DocumentService: Lists ingested documents
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
