package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func orphanReport(repaired int) *domain.ReconcileReport {
	return &domain.ReconcileReport{
		DocumentsChecked: 2,
		ChunksChecked:    6,
		Orphans: []domain.OrphanedChunk{
			{DocumentID: 2, ChunkID: 11, Position: 0, PointID: "p-0"},
			{DocumentID: 2, ChunkID: 12, Position: 1, PointID: "p-1"},
		},
		Repaired: repaired,
	}
}

func TestVerifyCmd_Consistent(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "verify")

	require.NoError(t, err)
	assert.False(t, ts.reconcile.repaired)
	assert.Contains(t, out, "Checked 2 documents, 6 chunks")
	assert.Contains(t, out, "All chunks have vectors.")
}

func TestVerifyCmd_Orphans(t *testing.T) {
	ts := setupTestServices(t)
	ts.reconcile.verify = orphanReport(0)

	out, err := execute(t, "verify")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, err.Error(), "2 orphaned chunks")
	assert.Contains(t, out, "Orphaned chunks: 2")
	assert.Contains(t, out, "document 2  chunk 11  position 0  point p-0")
	assert.Contains(t, out, "athena verify --repair")
}

func TestVerifyCmd_Repair(t *testing.T) {
	ts := setupTestServices(t)
	ts.reconcile.repair = orphanReport(2)

	out, err := execute(t, "verify", "--repair")

	require.NoError(t, err)
	assert.True(t, ts.reconcile.repaired)
	assert.Contains(t, out, "Repaired: 2")
}

func TestVerifyCmd_PartialRepair(t *testing.T) {
	ts := setupTestServices(t)
	ts.reconcile.repair = orphanReport(1)

	_, err := execute(t, "verify", "--repair")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, err.Error(), "1 orphaned chunks")
}

func TestVerifyCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.reconcile.verify = orphanReport(0)

	out, err := execute(t, "verify", "--json")
	require.ErrorIs(t, err, ErrInconsistent)

	var report domain.ReconcileReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Orphans, 2)
	assert.Equal(t, 6, report.ChunksChecked)
}

func TestVerifyCmd_Failure(t *testing.T) {
	ts := setupTestServices(t)
	ts.reconcile.err = errors.New("qdrant unreachable")

	_, err := execute(t, "verify")

	assert.EqualError(t, err, "verify failed: qdrant unreachable")
}
