package services

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides read access to ingested documents.
type DocumentService struct {
	store driven.MetadataStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.MetadataStore) *DocumentService {
	return &DocumentService{store: store}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, domain.StorageError("documents.list", "failed to list documents", err)
	}
	return docs, nil
}

// Chunks returns a document's chunks in position order.
func (s *DocumentService) Chunks(ctx context.Context, docID int64) ([]domain.Chunk, error) {
	chunks, err := s.store.GetChunks(ctx, docID)
	if err != nil {
		return nil, domain.StorageError("documents.chunks", "failed to read chunks", err)
	}
	return chunks, nil
}
