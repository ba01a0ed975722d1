// Package domain defines the core business entities for Athena.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested file with its descriptive metadata
//   - Chunk: A bounded slice of a document's text, linked to a vector point
//   - VectorPoint: A (vector, payload) pair held by the vector index
//   - QueryLog: An audit record for an answered query
//   - AppError: The uniform error shape that crosses component boundaries
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
