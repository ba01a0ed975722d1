package driven

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// MetadataStore provides relational persistence for documents, their
// chunks, and query audit logs.
type MetadataStore interface {
	// InsertDocument stores a document and returns its assigned ID.
	InsertDocument(ctx context.Context, doc *domain.Document) (int64, error)

	// InsertChunks stores all chunks for a document in one transaction.
	// Either every chunk is written or none is.
	InsertChunks(ctx context.Context, docID int64, chunks []domain.Chunk) error

	// GetDocumentsByIDs returns the documents with the given IDs.
	// Empty input returns an empty result without touching the store.
	GetDocumentsByIDs(ctx context.Context, ids []int64) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id int64) error

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetChunks returns a document's chunks ordered by position.
	GetChunks(ctx context.Context, docID int64) ([]domain.Chunk, error)

	// InsertQueryLog appends an audit record.
	InsertQueryLog(ctx context.Context, entry *domain.QueryLog) error

	// Close releases resources.
	Close() error
}
