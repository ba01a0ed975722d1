package driving

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// DocumentService exposes read access to ingested documents.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Chunks returns a document's chunks in position order.
	Chunks(ctx context.Context, docID int64) ([]domain.Chunk, error)
}
