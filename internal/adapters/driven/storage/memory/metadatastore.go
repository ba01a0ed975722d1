package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
// IDs are assigned sequentially from 1 like the SQLite store.
type MetadataStore struct {
	mu        sync.RWMutex
	nextDoc   int64
	nextChunk int64
	nextLog   int64
	documents map[int64]domain.Document
	chunks    map[int64][]domain.Chunk
	pointIDs  map[string]bool
	logs      []domain.QueryLog
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		documents: make(map[int64]domain.Document),
		chunks:    make(map[int64][]domain.Chunk),
		pointIDs:  make(map[string]bool),
	}
}

// InsertDocument stores a document and returns its assigned ID.
func (s *MetadataStore) InsertDocument(_ context.Context, doc *domain.Document) (int64, error) {
	if doc == nil {
		return 0, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDoc++
	stored := *doc
	stored.ID = s.nextDoc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.documents[stored.ID] = stored
	return stored.ID, nil
}

// InsertChunks stores all chunks for a document. Validation runs before any
// chunk is kept, so a rejected call stores nothing.
func (s *MetadataStore) InsertChunks(_ context.Context, docID int64, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks for document %d", domain.ErrInvalidInput, docID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[docID]; !ok {
		return fmt.Errorf("document %d: %w", docID, domain.ErrNotFound)
	}

	positions := make(map[int]bool)
	for _, c := range s.chunks[docID] {
		positions[c.Position] = true
	}
	batch := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if positions[c.Position] {
			return fmt.Errorf("%w: duplicate position %d", domain.ErrInvalidInput, c.Position)
		}
		if s.pointIDs[c.PointID] || batch[c.PointID] {
			return fmt.Errorf("%w: duplicate point id %s", domain.ErrInvalidInput, c.PointID)
		}
		positions[c.Position] = true
		batch[c.PointID] = true
	}

	now := time.Now().UTC()
	for _, c := range chunks {
		s.nextChunk++
		c.ID = s.nextChunk
		c.DocumentID = docID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		s.chunks[docID] = append(s.chunks[docID], c)
		s.pointIDs[c.PointID] = true
	}
	return nil
}

// GetDocumentsByIDs returns the documents with the given IDs, in ID order.
func (s *MetadataStore) GetDocumentsByIDs(_ context.Context, ids []int64) ([]domain.Document, error) {
	docs := []domain.Document{}
	if len(ids) == 0 {
		return docs, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if doc, ok := s.documents[id]; ok {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *MetadataStore) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	for _, c := range s.chunks[id] {
		delete(s.pointIDs, c.PointID)
	}
	delete(s.chunks, id)
	delete(s.documents, id)
	return nil
}

// ListDocuments returns all documents, newest first.
func (s *MetadataStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// GetChunks returns a document's chunks ordered by position.
func (s *MetadataStore) GetChunks(_ context.Context, docID int64) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := append([]domain.Chunk(nil), s.chunks[docID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
	return chunks, nil
}

// InsertQueryLog appends an audit record.
func (s *MetadataStore) InsertQueryLog(_ context.Context, entry *domain.QueryLog) error {
	if entry == nil {
		return fmt.Errorf("%w: nil query log", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLog++
	stored := *entry
	stored.ID = s.nextLog
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, stored)
	return nil
}

// QueryLogs returns a copy of all query logs in insertion order.
func (s *MetadataStore) QueryLogs() []domain.QueryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QueryLog(nil), s.logs...)
}

// Close is a no-op.
func (s *MetadataStore) Close() error {
	return nil
}
