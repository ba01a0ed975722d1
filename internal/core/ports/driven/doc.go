// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - LoaderRegistry / Loader: Turns a file of a declared type into text units
//   - Chunker: Splits text units into overlapping chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores and searches (vector, payload) points
//   - MetadataStore: Relational persistence for documents, chunks and query logs
//   - LLMService: Text generation
//   - SettingsStore: Application configuration
//
// All of them are required. Adapters are constructed explicitly and passed
// into service constructors; nothing in core holds global client state.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
