package httpapi

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// mockIngestService records the last request.
type mockIngestService struct {
	result *domain.IngestResult
	err    error
	got    *domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.got = &req
	return m.result, m.err
}

// mockQueryService records the last query.
type mockQueryService struct {
	answer *domain.Answer
	err    error
	query  string
	tenant string
	calls  int
}

func (m *mockQueryService) Answer(_ context.Context, query, tenant string) (*domain.Answer, error) {
	m.calls++
	m.query = query
	m.tenant = tenant
	return m.answer, m.err
}
