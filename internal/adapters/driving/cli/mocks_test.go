package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
)

type mockIngestService struct {
	req    domain.IngestRequest
	result *domain.IngestResult
	err    error
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.IngestResult{DocumentID: 1, ChunkCount: 3}, nil
}

type mockQueryService struct {
	query, tenant string
	answer        *domain.Answer
	err           error
}

func (m *mockQueryService) Answer(_ context.Context, query, tenant string) (*domain.Answer, error) {
	m.query, m.tenant = query, tenant
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{
		Answer: "Refunds are accepted within 30 days.",
		Sources: []domain.SourceRef{
			{ID: 4, Title: "Refund Policy", SourceType: domain.SourceTypePDF, SourcePath: "refunds.pdf"},
		},
	}, nil
}

type mockReconcileService struct {
	verify   *domain.ReconcileReport
	repair   *domain.ReconcileReport
	repaired bool
	err      error
}

func (m *mockReconcileService) Verify(context.Context) (*domain.ReconcileReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.verify != nil {
		return m.verify, nil
	}
	return &domain.ReconcileReport{DocumentsChecked: 2, ChunksChecked: 6}, nil
}

func (m *mockReconcileService) Repair(context.Context) (*domain.ReconcileReport, error) {
	m.repaired = true
	if m.err != nil {
		return nil, m.err
	}
	if m.repair != nil {
		return m.repair, nil
	}
	return &domain.ReconcileReport{DocumentsChecked: 2, ChunksChecked: 6}, nil
}

type mockDocumentService struct {
	docs   []domain.Document
	chunks map[int64][]domain.Chunk
	err    error
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, docID int64) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks[docID], nil
}

type testServices struct {
	ingest    *mockIngestService
	query     *mockQueryService
	reconcile *mockReconcileService
	documents *mockDocumentService
}

// setupTestServices installs mocks and returns them. Services, flag
// variables and hooks are restored when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		ingest:    &mockIngestService{},
		query:     &mockQueryService{},
		reconcile: &mockReconcileService{},
		documents: &mockDocumentService{
			docs: []domain.Document{
				{
					ID: 2, Title: "Refund Policy", SourceType: domain.SourceTypePDF,
					SourcePath: "refunds.pdf", Tenant: "acme",
					CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
				},
				{
					ID: 1, Title: "Changelog", SourceType: domain.SourceTypeTXT,
					SourcePath: "CHANGELOG.txt",
					CreatedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
				},
			},
			chunks: map[int64][]domain.Chunk{
				2: {
					{DocumentID: 2, Position: 0, PointID: "p-0", Text: "Refunds within 30 days."},
					{DocumentID: 2, Position: 1, PointID: "p-1", Text: "Receipts are required."},
				},
			},
		},
	}

	settings := domain.DefaultAppSettings()
	settings.Server.APIKey = "secret-key-123456"
	settings.Embedding.APIKey = "embed-key-abcdef"
	settings.Server.DocsPath = t.TempDir()
	settings.Storage.DataDir = t.TempDir()

	SetServices(Services{
		Settings:  settings,
		Ingest:    ts.ingest,
		Query:     ts.query,
		Reconcile: ts.reconcile,
		Documents: ts.documents,
	})

	origLoad, origBuild := loadSettings, buildApp
	origTerminal, origRunTUI := isTerminal, runTUIApp
	origEmbed, origLLM := checkEmbedding, checkLLM
	t.Cleanup(func() {
		loadSettings, buildApp = origLoad, origBuild
		isTerminal, runTUIApp = origTerminal, origRunTUI
		checkEmbedding, checkLLM = origEmbed, origLLM
		resetState()
	})
	return ts
}

// resetState clears services and every flag variable.
func resetState() {
	appSettings = domain.AppSettings{}
	ingestService, queryService, reconcileService, documentService = nil, nil, nil, nil
	servicesReady = false
	application = nil

	verbose, configPath = false, ""
	ingestTitle, ingestType, ingestDescription, ingestTags, ingestTenant, ingestJSON = "", "", "", "", "", false
	queryTenant, queryJSON = "", false
	askTenant = ""
	docsJSON = false
	verifyRepair, verifyJSON = false, false
	servePort = 0
	mcpPort, mcpReadOnly = 0, false
	watchTenant, watchExisting = "", false
	configForce = false
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
