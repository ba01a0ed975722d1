// Package gemini provides an embedding service adapter using the Google
// Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/athena/internal/adapters/driven/upstream"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const provider = "gemini"

// Default configuration values.
const (
	DefaultModel = "gemini-embedding-001"

	// maxBatch is the API's per-request limit for batchEmbedContents.
	maxBatch = 100

	// Task types tell the model which side of a retrieval a text is on.
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// ErrBlankInput is returned for empty or whitespace-only text.
var ErrBlankInput = fmt.Errorf("%w: gemini: cannot embed blank text", domain.ErrInvalidInput)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model to use (default: gemini-embedding-001).
	Model string

	// Dimensions requests a reduced output size. Zero keeps the model default.
	Dimensions int

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string

	// HTTPClient overrides the transport. Nil uses the SDK default.
	HTTPClient *http.Client
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	client      *genai.Client
	model       string
	dimensions  int
	config      *genai.EmbedContentConfig
	queryConfig *genai.EmbedContentConfig
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := NewClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}

	embedConfig := &genai.EmbedContentConfig{TaskType: taskDocument}
	queryConfig := &genai.EmbedContentConfig{TaskType: taskQuery}
	dimensions := cfg.Dimensions
	if dimensions > 0 {
		embedConfig.OutputDimensionality = genai.Ptr(int32(dimensions))
		queryConfig.OutputDimensionality = genai.Ptr(int32(dimensions))
	} else {
		dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	return &EmbeddingService{
		client:      client,
		model:       cfg.Model,
		dimensions:  dimensions,
		config:      embedConfig,
		queryConfig: queryConfig,
	}, nil
}

// NewClient builds a genai client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// Embed generates a vector embedding for a search query. Documents go
// through EmbedBatch.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.embed(ctx, []string{text}, s.queryConfig)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds document texts in as few requests as the API allows.
// Results keep input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embed(ctx, texts, s.config)
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string, config *genai.EmbedContentConfig) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrBlankInput
		}
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(contents); start += maxBatch {
		end := min(start+maxBatch, len(contents))

		resp, err := s.client.Models.EmbedContent(ctx, s.model, contents[start:end], config)
		if err != nil {
			return nil, ClassifyError(err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", end-start, len(resp.Embeddings))
		}
		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, errors.New("gemini: empty embedding returned")
			}
			embeddings = append(embeddings, e.Values)
		}
	}

	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short probe string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// ClassifyError maps genai API errors onto upstream status errors so rate
// limits and outages are transient.
func ClassifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Status
		}
		return upstream.Classify(provider, apiErr.Code, msg)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return upstream.Transport(provider, err)
}
