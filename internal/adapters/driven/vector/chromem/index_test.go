package chromem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func chunkPoint(id string, docID int64, pos int, text string, v ...float32) domain.VectorPoint {
	return domain.VectorPoint{ID: id, Vector: v, Payload: map[string]any{
		domain.PayloadDocID:    docID,
		domain.PayloadText:     text,
		domain.PayloadPosition: pos,
	}}
}

func TestEnsureCollection(t *testing.T) {
	x, err := NewIndex("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, x.EnsureCollection(ctx, "docs", 3))
	require.NoError(t, x.EnsureCollection(ctx, "docs", 3))
	assert.Zero(t, x.Count("docs"))
	assert.ErrorIs(t, x.EnsureCollection(ctx, "docs", 2), domain.ErrDimensionMismatch)
	assert.ErrorIs(t, x.EnsureCollection(ctx, "", 2), domain.ErrInvalidInput)
}

func TestUpsertSearchGet(t *testing.T) {
	x, err := NewIndex("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, "docs", []domain.VectorPoint{
		chunkPoint("p1", 7, 0, "alpha", 1, 0, 0),
		chunkPoint("p2", 7, 1, "beta", 0, 1, 0),
		chunkPoint("p3", 8, 0, "gamma", 0.9, 0.1, 0),
	}))
	assert.Equal(t, 3, x.Count("docs"))

	hits, err := x.Search(ctx, "docs", []float32{1, 0, 0}, 2, true)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "p1", hits[0].ID)
	assert.Equal(t, "p3", hits[1].ID)
	assert.Equal(t, "alpha", hits[0].Text())
	docID, ok := hits[0].DocID()
	require.True(t, ok)
	assert.Equal(t, int64(7), docID)
	pos, ok := hits[0].Position()
	require.True(t, ok)
	assert.Equal(t, 0, pos)
	assert.NotContains(t, hits[0].Payload, metaKind)

	got, err := x.Get(ctx, "docs", []string{"p2", "missing", schemaID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "beta", got[0].Payload[domain.PayloadText])
}

func TestSearch_TopKLargerThanCollection(t *testing.T) {
	x, err := NewIndex("")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, x.Upsert(ctx, "docs", []domain.VectorPoint{chunkPoint("p1", 1, 0, "only", 1, 0)}))

	hits, err := x.Search(ctx, "docs", []float32{1, 0}, 5, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].ID)
	assert.Nil(t, hits[0].Payload)
}

func TestSearch_EmptyOrMissing(t *testing.T) {
	x, err := NewIndex("")
	require.NoError(t, err)
	ctx := context.Background()

	hits, err := x.Search(ctx, "missing", []float32{1, 0}, 5, true)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, x.EnsureCollection(ctx, "docs", 2))
	hits, err = x.Search(ctx, "docs", []float32{1, 0}, 5, true)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpsert_OverwritesSameID(t *testing.T) {
	x, err := NewIndex("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, "docs", []domain.VectorPoint{chunkPoint("p1", 1, 0, "old", 1, 0)}))
	require.NoError(t, x.Upsert(ctx, "docs", []domain.VectorPoint{chunkPoint("p1", 1, 0, "new", 0, 1)}))
	assert.Equal(t, 1, x.Count("docs"))

	got, err := x.Get(ctx, "docs", []string{"p1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Payload[domain.PayloadText])
}

func TestUpsert_Rejects(t *testing.T) {
	x, err := NewIndex("")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, x.EnsureCollection(ctx, "docs", 2))

	assert.ErrorIs(t, x.Upsert(ctx, "docs", nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, x.Upsert(ctx, "docs", []domain.VectorPoint{chunkPoint("p", 1, 0, "t", 1, 2, 3)}), domain.ErrDimensionMismatch)
	assert.ErrorIs(t, x.Upsert(ctx, "docs", []domain.VectorPoint{chunkPoint(schemaID, 1, 0, "t", 1, 0)}), domain.ErrInvalidInput)

	_, err = x.Search(ctx, "docs", []float32{1, 0, 0}, 1, false)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestPersistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectors")
	ctx := context.Background()

	x, err := NewIndex(dir)
	require.NoError(t, err)
	require.NoError(t, x.Upsert(ctx, "docs", []domain.VectorPoint{chunkPoint("p1", 3, 0, "kept", 1, 0)}))
	require.NoError(t, x.Close())

	reopened, err := NewIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count("docs"))
	assert.ErrorIs(t, reopened.EnsureCollection(ctx, "docs", 5), domain.ErrDimensionMismatch)

	hits, err := reopened.Search(ctx, "docs", []float32{1, 0}, 1, true)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "kept", hits[0].Text())
}
