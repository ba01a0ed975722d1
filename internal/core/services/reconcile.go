package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure ReconcileService implements the interface.
var _ driving.ReconcileService = (*ReconcileService)(nil)

const componentReconcile = "reconcile"

// ReconcileService compares chunk rows with vector points.
type ReconcileService struct {
	store      driven.MetadataStore
	vectors    driven.VectorIndex
	embedder   driven.EmbeddingService
	collection string
}

// NewReconcileService creates a new reconcile service.
// embedder is only needed for Repair and may be nil otherwise.
func NewReconcileService(
	store driven.MetadataStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	collection string,
) *ReconcileService {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &ReconcileService{
		store:      store,
		vectors:    vectors,
		embedder:   embedder,
		collection: collection,
	}
}

// Verify lists every chunk whose point ID has no live point.
func (s *ReconcileService) Verify(ctx context.Context) (*domain.ReconcileReport, error) {
	report, _, err := s.scan(ctx)
	return report, err
}

// Repair re-embeds orphaned chunk texts and upserts them under their
// recorded point IDs. The returned report lists the orphans found before
// repair and how many were written.
func (s *ReconcileService) Repair(ctx context.Context) (*domain.ReconcileReport, error) {
	report, orphans, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(orphans) == 0 {
		return report, nil
	}
	if s.embedder == nil {
		return nil, domain.EmbeddingError(componentReconcile, "repair needs an embedding service", domain.ErrEmbeddingUnavailable)
	}

	texts := make([]string, len(orphans))
	for i, c := range orphans {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, domain.EmbeddingError(componentReconcile, "failed to re-embed orphaned chunks", err)
	}
	if len(vectors) != len(orphans) {
		return nil, domain.EmbeddingError(componentReconcile, "embedding count does not match chunk count", nil)
	}

	points := make([]domain.VectorPoint, len(orphans))
	for i, c := range orphans {
		points[i] = domain.VectorPoint{
			ID:     c.PointID,
			Vector: vectors[i],
			Payload: map[string]any{
				domain.PayloadDocID:    c.DocumentID,
				domain.PayloadText:     c.Text,
				domain.PayloadPosition: c.Position,
			},
		}
	}
	if err := s.vectors.Upsert(ctx, s.collection, points); err != nil {
		return nil, domain.StorageError(componentReconcile, "failed to write repaired vectors", err)
	}

	report.Repaired = len(points)
	logger.Info("Repaired %d orphaned chunks", report.Repaired)
	return report, nil
}

func (s *ReconcileService) scan(ctx context.Context) (*domain.ReconcileReport, []domain.Chunk, error) {
	logger.Section("Reconcile")

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, nil, domain.StorageError(componentReconcile, "failed to list documents", err)
	}

	report := &domain.ReconcileReport{Orphans: []domain.OrphanedChunk{}}
	var orphans []domain.Chunk
	for _, doc := range docs {
		chunks, err := s.store.GetChunks(ctx, doc.ID)
		if err != nil {
			return nil, nil, domain.StorageError(componentReconcile, fmt.Sprintf("failed to read chunks of document %d", doc.ID), err)
		}
		report.DocumentsChecked++
		report.ChunksChecked += len(chunks)
		if len(chunks) == 0 {
			continue
		}

		ids := make([]string, len(chunks))
		for i, c := range chunks {
			ids[i] = c.PointID
		}
		points, err := s.vectors.Get(ctx, s.collection, ids)
		if err != nil {
			return nil, nil, domain.StorageError(componentReconcile, "failed to look up vector points", err)
		}
		live := make(map[string]bool, len(points))
		for _, p := range points {
			live[p.ID] = true
		}

		for _, c := range chunks {
			if live[c.PointID] {
				continue
			}
			orphans = append(orphans, c)
			report.Orphans = append(report.Orphans, domain.OrphanedChunk{
				DocumentID: c.DocumentID,
				ChunkID:    c.ID,
				Position:   c.Position,
				PointID:    c.PointID,
			})
		}
	}
	logger.Debug("Checked %d chunks in %d documents, %d orphaned",
		report.ChunksChecked, report.DocumentsChecked, len(report.Orphans))
	return report, orphans, nil
}
