package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLoader returns fixed units for one source type.
type mockLoader struct {
	t     domain.SourceType
	units []domain.TextUnit
	err   error
}

func (m *mockLoader) Type() domain.SourceType { return m.t }

func (m *mockLoader) Load(_ context.Context, _ string) ([]domain.TextUnit, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.units, nil
}

// mockLoaders implements driven.LoaderRegistry.
type mockLoaders map[domain.SourceType]driven.Loader

func (m mockLoaders) Get(t domain.SourceType) (driven.Loader, error) {
	l, ok := m[t]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return l, nil
}

// lineChunker splits every unit on newlines, keeping blank lines so the
// orchestrator's filtering is exercised.
type lineChunker struct {
	err error
}

func (c *lineChunker) Split(_ context.Context, units []domain.TextUnit) ([]domain.TextChunk, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []domain.TextChunk
	for _, u := range units {
		for _, line := range strings.Split(u.Text, "\n") {
			out = append(out, domain.TextChunk{Text: line, Metadata: u.Metadata})
		}
	}
	return out, nil
}

// mockEmbedder returns a deterministic vector derived from the text.
type mockEmbedder struct {
	mu       sync.Mutex
	calls    int
	err      error
	dropLast bool
	emptyAt  int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{emptyAt: -1}
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, 4)
	for i, r := range text {
		v[i%4] += float32(r % 17)
	}
	v[3]++
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: blank text", domain.ErrInvalidInput)
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		if i == m.emptyAt {
			v = nil
		}
		out = append(out, v)
	}
	if m.dropLast && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return 4 }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM echoes a fixed answer and records the last prompt.
type mockLLM struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

// mockVectorIndex keeps points per collection and can be made to fail.
type mockVectorIndex struct {
	mu          sync.Mutex
	points      map[string]map[string]domain.VectorPoint
	hits        []domain.ScoredPoint
	upsertErr   error
	searchErr   error
	searchCalls int
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{points: make(map[string]map[string]domain.VectorPoint)}
}

func (m *mockVectorIndex) EnsureCollection(_ context.Context, name string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.points[name] == nil {
		m.points[name] = make(map[string]domain.VectorPoint)
	}
	return nil
}

func (m *mockVectorIndex) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if len(points) == 0 {
		return domain.ErrInvalidInput
	}
	_ = m.EnsureCollection(ctx, collection, len(points[0].Vector))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.points[collection][p.ID] = p
	}
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ string, _ []float32, topK int, _ bool) ([]domain.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if topK < len(m.hits) {
		return m.hits[:topK], nil
	}
	return m.hits, nil
}

func (m *mockVectorIndex) Get(_ context.Context, collection string, ids []string) ([]domain.VectorPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.VectorPoint
	for _, id := range ids {
		if p, ok := m.points[collection][id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockVectorIndex) Close() error { return nil }

func (m *mockVectorIndex) count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points[collection])
}

func (m *mockVectorIndex) remove(collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.points[collection], id)
}

// mockStore is an in-memory MetadataStore with injectable failures.
type mockStore struct {
	mu        sync.Mutex
	nextID    int64
	nextChunk int64
	docs      map[int64]domain.Document
	chunks    map[int64][]domain.Chunk
	logs      []domain.QueryLog
	docErr    error
	chunkErr  error
	logErr    error
	logPanic  bool
	getErr    error
	getCalls  int
	deleted   []int64
}

func newMockStore() *mockStore {
	return &mockStore{
		docs:   make(map[int64]domain.Document),
		chunks: make(map[int64][]domain.Chunk),
	}
}

func (m *mockStore) InsertDocument(_ context.Context, doc *domain.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docErr != nil {
		return 0, m.docErr
	}
	m.nextID++
	d := *doc
	d.ID = m.nextID
	m.docs[d.ID] = d
	return d.ID, nil
}

func (m *mockStore) InsertChunks(_ context.Context, docID int64, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunkErr != nil {
		return m.chunkErr
	}
	for _, c := range chunks {
		m.nextChunk++
		c.ID = m.nextChunk
		c.DocumentID = docID
		m.chunks[docID] = append(m.chunks[docID], c)
	}
	return nil
}

func (m *mockStore) GetDocumentsByIDs(_ context.Context, ids []int64) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := []domain.Document{}
	// Reverse order so callers cannot rely on the store's ordering.
	for i := len(ids) - 1; i >= 0; i-- {
		if d, ok := m.docs[ids[i]]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	delete(m.chunks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) GetChunks(_ context.Context, docID int64) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Chunk(nil), m.chunks[docID]...), nil
}

func (m *mockStore) InsertQueryLog(_ context.Context, entry *domain.QueryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logPanic {
		panic("query log store gone")
	}
	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) chunkTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, cs := range m.chunks {
		n += len(cs)
	}
	return n
}

// --- Helpers ---

var errBoom = errors.New("boom")

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func txtLoaders(text string) mockLoaders {
	return mockLoaders{
		domain.SourceTypeTXT: &mockLoader{
			t:     domain.SourceTypeTXT,
			units: []domain.TextUnit{{Text: text, Metadata: map[string]string{"source": "test"}}},
		},
	}
}
