// Package memory provides a process-local vector index.
// Contents are lost when the process exits; it backs tests and the
// "memory" backend.
package memory

import (
	"context"
	"fmt"
	"math"
	"maps"
	"sort"
	"sync"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type collection struct {
	dims   int
	points map[string]domain.VectorPoint
}

// Index is a brute-force cosine index. Safe for concurrent use.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{collections: make(map[string]*collection)}
}

// EnsureCollection creates the collection if it does not exist.
func (x *Index) EnsureCollection(_ context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection %q with %d dimensions", domain.ErrInvalidInput, name, dimensions)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.collections[name]; !ok {
		x.collections[name] = &collection{dims: dimensions, points: make(map[string]domain.VectorPoint)}
	}
	return nil
}

// Upsert writes points, overwriting any with the same ID.
func (x *Index) Upsert(_ context.Context, name string, points []domain.VectorPoint) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	c := x.collections[name]
	dims := 0
	if c != nil {
		dims = c.dims
	}
	dims, err := domain.ValidatePoints(points, dims)
	if err != nil {
		return err
	}
	if c == nil {
		c = &collection{dims: dims, points: make(map[string]domain.VectorPoint)}
		x.collections[name] = c
	}

	for _, p := range points {
		c.points[p.ID] = domain.VectorPoint{
			ID:      p.ID,
			Vector:  append([]float32(nil), p.Vector...),
			Payload: maps.Clone(p.Payload),
		}
	}
	return nil
}

// Search returns up to topK points by descending cosine similarity. Ties
// are broken by ID.
func (x *Index) Search(_ context.Context, name string, vector []float32, topK int, withPayload bool) ([]domain.ScoredPoint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	c := x.collections[name]
	if c == nil || len(c.points) == 0 || topK <= 0 {
		return []domain.ScoredPoint{}, nil
	}
	if len(vector) != c.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(vector), name, c.dims)
	}

	hits := make([]domain.ScoredPoint, 0, len(c.points))
	for _, p := range c.points {
		hit := domain.ScoredPoint{ID: p.ID, Score: Cosine(vector, p.Vector)}
		if withPayload {
			hit.Payload = maps.Clone(p.Payload)
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Get looks points up by ID, omitting unknown IDs.
func (x *Index) Get(_ context.Context, name string, ids []string) ([]domain.VectorPoint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]domain.VectorPoint, 0, len(ids))
	c := x.collections[name]
	if c == nil {
		return out, nil
	}
	for _, id := range ids {
		if p, ok := c.points[id]; ok {
			out = append(out, domain.VectorPoint{
				ID:      p.ID,
				Vector:  append([]float32(nil), p.Vector...),
				Payload: maps.Clone(p.Payload),
			})
		}
	}
	return out, nil
}

// Delete removes points by ID.
func (x *Index) Delete(_ context.Context, name string, ids []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if c := x.collections[name]; c != nil {
		for _, id := range ids {
			delete(c.points, id)
		}
	}
	return nil
}

// Count returns the number of points in a collection.
func (x *Index) Count(name string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if c := x.collections[name]; c != nil {
		return len(c.points)
	}
	return 0
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has
// zero magnitude.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
