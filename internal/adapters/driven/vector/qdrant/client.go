// Package qdrant provides a vector index backed by a Qdrant server, spoken
// to over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/athena/internal/adapters/driven/upstream"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const provider = "qdrant"

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// errCollectionMissing is returned by describe for a 404.
var errCollectionMissing = errors.New("qdrant: collection does not exist")

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the server base URL (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when non-empty.
	APIKey string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Index talks to Qdrant. Collections use cosine distance. Dimensionality
// is cached per collection after the first lookup.
type Index struct {
	client  *http.Client
	baseURL string
	apiKey  string

	mu   sync.Mutex
	dims map[string]int
}

// NewIndex creates a Qdrant-backed index. No request is made until first use.
func NewIndex(cfg Config) *Index {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		dims:    make(map[string]int),
	}
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
		PointsCount int `json:"points_count"`
	} `json:"result"`
}

type wirePoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float64        `json:"score,omitempty"`
}

// EnsureCollection creates the collection if it does not exist.
func (x *Index) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection %q with %d dimensions", domain.ErrInvalidInput, name, dimensions)
	}

	existing, err := x.dimensions(ctx, name)
	switch {
	case err == nil:
		if existing != dimensions {
			return fmt.Errorf("%w: collection %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, name, existing, dimensions)
		}
		return nil
	case !errors.Is(err, errCollectionMissing):
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if err := x.do(ctx, http.MethodPut, collectionPath(name), body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	x.mu.Lock()
	x.dims[name] = dimensions
	x.mu.Unlock()
	return nil
}

// Upsert writes points and waits for them to be indexed.
func (x *Index) Upsert(ctx context.Context, name string, points []domain.VectorPoint) error {
	if _, err := domain.ValidatePoints(points, 0); err != nil {
		return err
	}

	dims, err := x.dimensions(ctx, name)
	switch {
	case errors.Is(err, errCollectionMissing):
		if err := x.EnsureCollection(ctx, name, len(points[0].Vector)); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if _, err := domain.ValidatePoints(points, dims); err != nil {
			return err
		}
	}

	wire := make([]wirePoint, len(points))
	for i, p := range points {
		wire[i] = wirePoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return x.do(ctx, http.MethodPut, collectionPath(name)+"/points?wait=true", map[string]any{"points": wire}, nil)
}

// Search returns up to topK points by descending cosine similarity. A
// missing collection yields no hits.
func (x *Index) Search(ctx context.Context, name string, vector []float32, topK int, withPayload bool) ([]domain.ScoredPoint, error) {
	if topK <= 0 {
		return []domain.ScoredPoint{}, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": withPayload,
	}
	var resp struct {
		Result []wirePoint `json:"result"`
	}
	err := x.do(ctx, http.MethodPost, collectionPath(name)+"/points/search", req, &resp)
	if isNotFound(err) {
		return []domain.ScoredPoint{}, nil
	}
	if err != nil {
		return nil, err
	}

	hits := make([]domain.ScoredPoint, len(resp.Result))
	for i, r := range resp.Result {
		hits[i] = domain.ScoredPoint{ID: r.ID, Score: r.Score}
		if withPayload {
			hits[i].Payload = r.Payload
		}
	}
	return hits, nil
}

// Get retrieves points by ID with their vectors and payloads.
func (x *Index) Get(ctx context.Context, name string, ids []string) ([]domain.VectorPoint, error) {
	if len(ids) == 0 {
		return []domain.VectorPoint{}, nil
	}

	req := map[string]any{
		"ids":          ids,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []wirePoint `json:"result"`
	}
	err := x.do(ctx, http.MethodPost, collectionPath(name)+"/points", req, &resp)
	if isNotFound(err) {
		return []domain.VectorPoint{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.VectorPoint, len(resp.Result))
	for i, r := range resp.Result {
		out[i] = domain.VectorPoint{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	}
	return out, nil
}

// Ping checks the server is reachable.
func (x *Index) Ping(ctx context.Context) error {
	return x.do(ctx, http.MethodGet, "/collections", nil, nil)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

func (x *Index) dimensions(ctx context.Context, name string) (int, error) {
	x.mu.Lock()
	dims, ok := x.dims[name]
	x.mu.Unlock()
	if ok {
		return dims, nil
	}

	var info collectionInfo
	err := x.do(ctx, http.MethodGet, collectionPath(name), nil, &info)
	if isNotFound(err) {
		return 0, errCollectionMissing
	}
	if err != nil {
		return 0, err
	}

	dims = info.Result.Config.Params.Vectors.Size
	x.mu.Lock()
	x.dims[name] = dims
	x.mu.Unlock()
	return dims, nil
}

func (x *Index) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return upstream.Transport(provider, err)
	}
	defer resp.Body.Close()

	if err := upstream.CheckResponse(provider, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func isNotFound(err error) bool {
	var se *upstream.StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
