// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/athena/internal/adapters/driven/embedding"
	geminiembed "github.com/custodia-labs/athena/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/athena/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/athena/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/athena/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/athena/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/athena/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/athena/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ErrNotConfigured is returned when a provider lacks a required API key or
// names an unknown provider.
var ErrNotConfigured = errors.New("provider not configured")

// Services bundles the AI adapters the pipeline needs.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// CreateServices builds both adapters. The embedding service is wrapped
// with pacing and retries as configured.
func CreateServices(ctx context.Context, settings domain.AppSettings) (*Services, error) {
	emb, err := CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	llm, err := CreateLLMService(ctx, &settings.LLM)
	if err != nil {
		emb.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	return &Services{Embedding: emb, LLM: llm}, nil
}

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, ErrNotConfigured
	}
	if !settings.IsConfigured() {
		return nil, notConfigured("embedding", settings.Provider)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, errors.New("anthropic does not support embeddings, use gemini, ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return embedding.NewPaced(svc, embedding.PacedConfig{
		RequestsPerMinute: settings.RequestsPerMinute,
		MaxRetries:        settings.MaxRetries,
	}), nil
}

// CreateLLMService creates the LLM service selected by settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, ErrNotConfigured
	}
	if !settings.IsConfigured() {
		return nil, notConfigured("llm", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

func notConfigured(kind string, provider domain.AIProvider) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown %s provider %q", ErrNotConfigured, kind, provider)
	}
	return fmt.Errorf("%w: %s provider %s requires an API key", ErrNotConfigured, kind, provider)
}
