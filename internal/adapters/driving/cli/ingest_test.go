package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestIngestCmd_RequiresFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestCmd_InfersTypeAndTitle(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "ingest", "/docs/Employee Handbook.PDF", "--tenant", "acme", "--tags", "hr")

	require.NoError(t, err)
	assert.Contains(t, out, `Ingested "Employee Handbook" as document 1 (3 chunks)`)
	assert.Equal(t, "pdf", ts.ingest.req.SourceType)
	assert.Equal(t, "Employee Handbook", ts.ingest.req.Title)
	assert.Equal(t, "acme", ts.ingest.req.Tenant)
	assert.Equal(t, "hr", ts.ingest.req.Tags)
	assert.Equal(t, "/docs/Employee Handbook.PDF", ts.ingest.req.FilePath)
	assert.Equal(t, "Employee Handbook.PDF", ts.ingest.req.OriginalName)
}

func TestIngestCmd_FlagsOverrideInference(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, "ingest", "notes.md", "--type", "txt", "--title", "Meeting Notes", "-d", "weekly")

	require.NoError(t, err)
	assert.Equal(t, "txt", ts.ingest.req.SourceType)
	assert.Equal(t, "Meeting Notes", ts.ingest.req.Title)
	assert.Equal(t, "weekly", ts.ingest.req.Description)
}

func TestIngestCmd_UnknownExtensionLeavesTypeEmpty(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, "ingest", "slides.pptx")

	require.NoError(t, err)
	assert.Empty(t, ts.ingest.req.SourceType)
}

func TestIngestCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.result = &domain.IngestResult{DocumentID: 42, ChunkCount: 7}

	out, err := execute(t, "ingest", "a.txt", "--json")
	require.NoError(t, err)

	var got domain.IngestResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(42), got.DocumentID)
	assert.Equal(t, 7, got.ChunkCount)
}

func TestIngestCmd_Failure(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.err = domain.ValidationError("ingest.validate", "file not found: a.txt")

	_, err := execute(t, "ingest", "a.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngestCmd_ServiceError(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingest.err = errors.New("disk full")

	_, err := execute(t, "ingest", "a.txt")

	assert.EqualError(t, err, "ingest failed: disk full")
}
