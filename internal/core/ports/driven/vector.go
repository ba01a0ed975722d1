package driven

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// VectorIndex stores (vector, payload) points in named collections and
// answers nearest-neighbour queries under cosine distance.
type VectorIndex interface {
	// EnsureCollection creates the collection if it does not exist.
	// It is a no-op for an existing collection.
	EnsureCollection(ctx context.Context, name string, dimensions int) error

	// Upsert writes points, overwriting any with the same ID. It creates the
	// collection on demand and rejects empty input, empty vectors, and
	// vectors whose length differs from the collection's dimensionality
	// with domain.ErrInvalidInput or domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error

	// Search returns up to topK points by descending similarity. An empty or
	// missing collection yields an empty result, not an error.
	Search(ctx context.Context, collection string, vector []float32, topK int, withPayload bool) ([]domain.ScoredPoint, error)

	// Get looks points up by ID. IDs with no live point are omitted.
	Get(ctx context.Context, collection string, ids []string) ([]domain.VectorPoint, error)

	// Close releases resources.
	Close() error
}
