package mcp

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.Answer
	err    error
	query  string
	tenant string
}

func (m *mockQueryService) Answer(_ context.Context, query, tenant string) (*domain.Answer, error) {
	m.query = query
	m.tenant = tenant
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error
	got    *domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.got = &req
	return m.result, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	chunks    []domain.Chunk
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ int64) ([]domain.Chunk, error) {
	return m.chunks, m.err
}
