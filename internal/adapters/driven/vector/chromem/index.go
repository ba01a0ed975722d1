// Package chromem provides an embedded, file-persisted vector index built
// on chromem-go.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// chromem stores string metadata only. Each collection carries one schema
// document recording its dimensionality; chunk points are tagged so
// queries can exclude it.
const (
	schemaID      = "__collection_schema__"
	metaKind      = "kind"
	kindChunk     = "chunk"
	kindSchema    = "schema"
	metaDims      = "dimensions"
	spaceCosine   = "cosine"
	metaHNSWSpace = "hnsw:space"
)

// Index is a chromem-go backed vector index.
type Index struct {
	db *chromem.DB

	mu   sync.Mutex
	dims map[string]int
}

// NewIndex opens (or creates) a persistent index under path. An empty path
// keeps everything in memory.
func NewIndex(path string) (*Index, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db at %s: %w", path, err)
		}
	}
	return &Index{db: db, dims: make(map[string]int)}, nil
}

// EnsureCollection creates the collection if it does not exist.
func (x *Index) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection %q with %d dimensions", domain.ErrInvalidInput, name, dimensions)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	existing, err := x.dimensionsLocked(ctx, name)
	if err != nil {
		return err
	}
	if existing != 0 {
		if existing != dimensions {
			return fmt.Errorf("%w: collection %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, name, existing, dimensions)
		}
		return nil
	}
	return x.createLocked(ctx, name, dimensions)
}

// Upsert writes points. chromem replaces documents with an existing ID.
func (x *Index) Upsert(ctx context.Context, name string, points []domain.VectorPoint) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	dims, err := x.dimensionsLocked(ctx, name)
	if err != nil {
		return err
	}
	validated, err := domain.ValidatePoints(points, dims)
	if err != nil {
		return err
	}
	if dims == 0 {
		if err := x.createLocked(ctx, name, validated); err != nil {
			return err
		}
	}

	c := x.db.GetCollection(name, nil)
	if c == nil {
		return fmt.Errorf("chromem: collection %s vanished", name)
	}

	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		if p.ID == schemaID {
			return fmt.Errorf("%w: reserved point id %s", domain.ErrInvalidInput, p.ID)
		}
		docs[i] = toDocument(p)
	}
	if err := c.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("chromem: add documents: %w", err)
	}
	return nil
}

// Search returns up to topK chunk points by descending cosine similarity.
func (x *Index) Search(ctx context.Context, name string, vector []float32, topK int, withPayload bool) ([]domain.ScoredPoint, error) {
	c := x.db.GetCollection(name, nil)
	if c == nil || topK <= 0 {
		return []domain.ScoredPoint{}, nil
	}

	// The schema document counts towards Count() but is filtered out.
	chunks := c.Count() - 1
	if chunks <= 0 {
		return []domain.ScoredPoint{}, nil
	}

	x.mu.Lock()
	dims, err := x.dimensionsLocked(ctx, name)
	x.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(vector), name, dims)
	}

	results, err := c.QueryEmbedding(ctx, vector, min(topK, chunks), map[string]string{metaKind: kindChunk}, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	hits := make([]domain.ScoredPoint, len(results))
	for i, r := range results {
		hits[i] = domain.ScoredPoint{ID: r.ID, Score: float64(r.Similarity)}
		if withPayload {
			hits[i].Payload = toPayload(r.Metadata, r.Content)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Get looks points up by ID, omitting unknown IDs.
func (x *Index) Get(ctx context.Context, name string, ids []string) ([]domain.VectorPoint, error) {
	out := make([]domain.VectorPoint, 0, len(ids))
	c := x.db.GetCollection(name, nil)
	if c == nil {
		return out, nil
	}

	for _, id := range ids {
		if id == schemaID {
			continue
		}
		doc, err := c.GetByID(ctx, id)
		if err != nil {
			// chromem reports a missing ID as an error.
			continue
		}
		out = append(out, domain.VectorPoint{
			ID:      doc.ID,
			Vector:  doc.Embedding,
			Payload: toPayload(doc.Metadata, doc.Content),
		})
	}
	return out, nil
}

// Count returns the number of chunk points in a collection.
func (x *Index) Count(name string) int {
	c := x.db.GetCollection(name, nil)
	if c == nil {
		return 0
	}
	return max(c.Count()-1, 0)
}

// Close releases resources. Persistent writes are flushed per call.
func (x *Index) Close() error {
	return nil
}

func (x *Index) dimensionsLocked(ctx context.Context, name string) (int, error) {
	if dims, ok := x.dims[name]; ok {
		return dims, nil
	}

	c := x.db.GetCollection(name, nil)
	if c == nil {
		return 0, nil
	}
	schema, err := c.GetByID(ctx, schemaID)
	if err != nil {
		return 0, fmt.Errorf("chromem: collection %s has no schema document: %w", name, err)
	}
	dims, err := strconv.Atoi(schema.Metadata[metaDims])
	if err != nil || dims <= 0 {
		return 0, fmt.Errorf("chromem: collection %s has invalid dimensions %q", name, schema.Metadata[metaDims])
	}
	x.dims[name] = dims
	return dims, nil
}

func (x *Index) createLocked(ctx context.Context, name string, dims int) error {
	c, err := x.db.GetOrCreateCollection(name, map[string]string{metaHNSWSpace: spaceCosine}, nil)
	if err != nil {
		return fmt.Errorf("chromem: create collection %s: %w", name, err)
	}

	// A unit vector keeps the schema document valid under normalisation.
	unit := make([]float32, dims)
	unit[0] = 1
	err = c.AddDocument(ctx, chromem.Document{
		ID:        schemaID,
		Metadata:  map[string]string{metaKind: kindSchema, metaDims: strconv.Itoa(dims)},
		Embedding: unit,
		Content:   kindSchema,
	})
	if err != nil {
		return fmt.Errorf("chromem: write schema for %s: %w", name, err)
	}
	x.dims[name] = dims
	return nil
}

func toDocument(p domain.VectorPoint) chromem.Document {
	meta := map[string]string{metaKind: kindChunk}
	content := ""
	for k, v := range p.Payload {
		if k == domain.PayloadText {
			content, _ = v.(string)
			continue
		}
		meta[k] = fmt.Sprint(v)
	}
	return chromem.Document{
		ID:        p.ID,
		Metadata:  meta,
		Embedding: p.Vector,
		Content:   content,
	}
}

// toPayload rebuilds a payload. Numeric fields come back as strings, which
// the domain accessors accept.
func toPayload(meta map[string]string, content string) map[string]any {
	payload := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		if k == metaKind {
			continue
		}
		payload[k] = v
	}
	payload[domain.PayloadText] = content
	return payload
}
