package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/normalisers"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from ingested documents"`
	Tenant   string `json:"tenant_id,omitempty" jsonschema:"optional tenant tag recorded in the query log"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput describes a document that contributed to an answer.
type SourceOutput struct {
	DocumentID int64  `json:"document_id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	SourcePath string `json:"source_path"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path        string `json:"path" jsonschema:"absolute path of a pdf, docx or txt file on the server"`
	Title       string `json:"title,omitempty" jsonschema:"document title (default: derived from the file name)"`
	Type        string `json:"source_type,omitempty" jsonschema:"pdf, docx or txt (default: from the file extension)"`
	Description string `json:"description,omitempty" jsonschema:"optional description"`
	Tags        string `json:"tags,omitempty" jsonschema:"optional free-text tags"`
	Tenant      string `json:"tenant_id,omitempty" jsonschema:"optional tenant tag"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID int64 `json:"document_id"`
	ChunkCount int   `json:"chunk_count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the ingested documents, citing the source documents",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest a pdf, docx or txt file so it can be used to answer questions",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Answer(ctx, input.Question, input.Tenant)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Answer,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			DocumentID: src.ID,
			Title:      src.Title,
			SourceType: string(src.SourceType),
			SourcePath: src.SourcePath,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, fmt.Errorf("ingestion is not available")
	}

	req, err := ingestRequest(input)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	res, err := s.ports.Ingest.Ingest(ctx, req)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{DocumentID: res.DocumentID, ChunkCount: res.ChunkCount}, nil
}

// ingestRequest fills title and source type from the path where omitted.
func ingestRequest(input IngestInput) (domain.IngestRequest, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return domain.IngestRequest{}, domain.ValidationError("mcp.ingest", "path is required")
	}

	sourceType := strings.TrimSpace(input.Type)
	if sourceType == "" {
		t, ok := domain.SourceTypeFromExtension(filepath.Ext(path))
		if !ok {
			return domain.IngestRequest{}, domain.ValidationError("mcp.ingest",
				"cannot infer source_type from %q; pass pdf, docx or txt", filepath.Base(path))
		}
		sourceType = string(t)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = normalisers.TitleFromPath(path)
	}

	return domain.IngestRequest{
		SourceType:  sourceType,
		Title:       title,
		Description: input.Description,
		Tags:        input.Tags,
		Tenant:      input.Tenant,
		FilePath:    path,
	}, nil
}
