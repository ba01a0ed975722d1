package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Components named in ingestion errors.
const (
	componentValidate = "ingest.validate"
	componentLoad     = "ingest.load"
	componentChunk    = "ingest.chunk"
	componentEmbed    = "ingest.embed"
	componentDocument = "ingest.document"
	componentChunks   = "ingest.chunks"
	componentUpsert   = "ingest.upsert"
)

// IngestService runs the ingestion pipeline:
// load → chunk → embed → document row → chunk rows → vector upsert.
type IngestService struct {
	loaders    driven.LoaderRegistry
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	vectors    driven.VectorIndex
	store      driven.MetadataStore
	collection string
	now        func() time.Time
}

// NewIngestService creates a new ingestion service writing vectors to collection.
func NewIngestService(
	loaders driven.LoaderRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	store driven.MetadataStore,
	collection string,
) *IngestService {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &IngestService{
		loaders:    loaders,
		chunker:    chunker,
		embedder:   embedder,
		vectors:    vectors,
		store:      store,
		collection: collection,
		now:        time.Now,
	}
}

// Ingest validates req and stores the file as a document, its chunks, and
// one vector point per chunk.
//
// Any failure before the document row is written leaves both stores
// untouched. A chunk insert failure removes the document row again. A vector
// upsert failure leaves the document and chunk rows in place without
// vectors; ReconcileService reports those chunks as orphaned.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	sourceType, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	logger.Debug("File: %s (%s), title %q", req.FilePath, sourceType, req.Title)

	units, err := s.load(ctx, sourceType, req.FilePath)
	if err != nil {
		return nil, err
	}

	texts, err := s.chunk(ctx, units)
	if err != nil {
		return nil, err
	}

	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	originalName := req.OriginalName
	if originalName == "" {
		originalName = filepath.Base(req.FilePath)
	}
	doc := &domain.Document{
		Tenant:      strings.TrimSpace(req.Tenant),
		Title:       strings.TrimSpace(req.Title),
		SourceType:  sourceType,
		SourcePath:  originalName,
		Description: req.Description,
		Tags:        req.Tags,
		CreatedAt:   s.now().UTC(),
	}
	docID, err := s.store.InsertDocument(ctx, doc)
	if err != nil {
		return nil, domain.StorageError(componentDocument, "failed to store document", err)
	}
	logger.Debug("Document row %d inserted", docID)

	chunks := make([]domain.Chunk, len(texts))
	points := make([]domain.VectorPoint, len(texts))
	for i, text := range texts {
		pointID := PointID(docID, i)
		chunks[i] = domain.Chunk{
			DocumentID: docID,
			Text:       text,
			PointID:    pointID,
			Position:   i,
			CreatedAt:  doc.CreatedAt,
		}
		points[i] = domain.VectorPoint{
			ID:     pointID,
			Vector: vectors[i],
			Payload: map[string]any{
				domain.PayloadDocID:    docID,
				domain.PayloadText:     text,
				domain.PayloadPosition: i,
			},
		}
	}

	if err := s.store.InsertChunks(ctx, docID, chunks); err != nil {
		if delErr := s.store.DeleteDocument(ctx, docID); delErr != nil {
			logger.Warn("document %d left without chunks: %v", docID, delErr)
		}
		return nil, domain.StorageError(componentChunks, "failed to store chunks", err).
			WithContext("document_id", docID)
	}
	logger.Debug("%d chunk rows inserted", len(chunks))

	if err := s.vectors.Upsert(ctx, s.collection, points); err != nil {
		logger.Warn("document %d stored without vectors, %d chunks orphaned: %v", docID, len(chunks), err)
		return nil, domain.StorageError(componentUpsert, "failed to write vectors", err).
			WithContext("document_id", docID).
			WithContext("orphaned_chunks", len(chunks))
	}
	logger.Info("Ingested document %d with %d chunks", docID, len(chunks))

	return &domain.IngestResult{DocumentID: docID, ChunkCount: len(chunks)}, nil
}

// validate checks preconditions in a fixed order and returns the parsed
// source type.
func (s *IngestService) validate(req domain.IngestRequest) (domain.SourceType, error) {
	if strings.TrimSpace(req.FilePath) == "" {
		return "", domain.ValidationError(componentValidate, "a document file is required")
	}
	info, err := os.Stat(req.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ValidationError(componentValidate, "file not found: %s", req.FilePath)
		}
		return "", domain.ValidationError(componentValidate, "file is not accessible: %s", req.FilePath)
	}
	if info.IsDir() {
		return "", domain.ValidationError(componentValidate, "path is a directory: %s", req.FilePath)
	}
	f, err := os.Open(req.FilePath)
	if err != nil {
		return "", domain.ValidationError(componentValidate, "file is not readable: %s", req.FilePath)
	}
	f.Close()

	if strings.TrimSpace(req.Title) == "" {
		return "", domain.ValidationError(componentValidate, "title is required")
	}
	if strings.TrimSpace(req.SourceType) == "" {
		return "", domain.ValidationError(componentValidate, "source_type is required")
	}
	t, err := domain.ParseSourceType(req.SourceType)
	if err != nil {
		return "", domain.ValidationError(componentValidate, "unsupported source_type %q", req.SourceType).
			WithContext("supported", domain.AllSourceTypes())
	}
	return t, nil
}

func (s *IngestService) load(ctx context.Context, t domain.SourceType, path string) ([]domain.TextUnit, error) {
	loader, err := s.loaders.Get(t)
	if err != nil {
		return nil, domain.ValidationError(componentLoad, "no loader for source_type %q", t)
	}

	units, err := loader.Load(ctx, path)
	if err != nil {
		return nil, domain.ExtractionError(componentLoad, "failed to extract text from "+string(t)+" file", err)
	}

	for _, u := range units {
		if strings.TrimSpace(u.Text) != "" {
			logger.Debug("Loaded %d text units", len(units))
			return units, nil
		}
	}
	return nil, domain.ExtractionError(componentLoad, "no readable text found in file", nil)
}

// chunk splits units and drops blank chunks. The index of each surviving
// chunk becomes its position.
func (s *IngestService) chunk(ctx context.Context, units []domain.TextUnit) ([]string, error) {
	pieces, err := s.chunker.Split(ctx, units)
	if err != nil {
		return nil, domain.ExtractionError(componentChunk, "failed to split text", err)
	}

	texts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil, domain.ExtractionError(componentChunk, "text produced no non-blank chunks", nil)
	}
	logger.Debug("Split into %d chunks (%d blank dropped)", len(texts), len(pieces)-len(texts))
	return texts, nil
}

// embed returns one vector per text, in order, all of the same length.
func (s *IngestService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, domain.EmbeddingError(componentEmbed, "failed to embed chunks", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.EmbeddingError(componentEmbed, "embedding count does not match chunk count", nil).
			WithContext("chunks", len(texts)).
			WithContext("vectors", len(vectors))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, domain.EmbeddingError(componentEmbed, "embedding model returned an empty vector", nil).
				WithContext("position", i)
		}
		if len(v) != dim {
			return nil, domain.EmbeddingError(componentEmbed, "embedding model returned vectors of differing length", nil).
				WithContext("position", i)
		}
	}
	logger.Debug("Embedded %d chunks (%d dimensions)", len(vectors), dim)
	return vectors, nil
}
