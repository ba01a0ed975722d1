package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		wantID int64
		wantOK bool
	}{
		{"valid chunks URI", "athena://documents/42/chunks", 42, true},
		{"invalid prefix", "file://documents/42/chunks", 0, false},
		{"missing suffix", "athena://documents/42", 0, false},
		{"non-numeric id", "athena://documents/abc/chunks", 0, false},
		{"zero id", "athena://documents/0/chunks", 0, false},
		{"empty URI", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := extractDocumentID(tt.uri)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("athena://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists documents", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: 2, Title: "Handbook", SourceType: domain.SourceTypeDOCX, SourcePath: "handbook.docx"},
		}}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("athena://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got []domain.Document
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Handbook", got[0].Title)
	})

	t.Run("propagates errors", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("db closed")}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, makeReadResourceRequest("athena://documents"))

		assert.ErrorContains(t, err, "db closed")
	})
}

func TestServer_handleChunksResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chunks", func(t *testing.T) {
		docs := &mockDocumentService{chunks: []domain.Chunk{
			{DocumentID: 5, Position: 0, Text: "first"},
			{DocumentID: 5, Position: 1, Text: "second"},
		}}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: docs})
		require.NoError(t, err)

		result, err := server.handleChunksResource(ctx, makeReadResourceRequest("athena://documents/5/chunks"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"first"`)
		assert.Contains(t, result.Contents[0].Text, `"second"`)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("athena://documents/5/chunks"))

		assert.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("athena://documents/x/chunks"))

		assert.Error(t, err)
	})

	t.Run("nil document service is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("athena://documents/5/chunks"))

		assert.Error(t, err)
	})
}
