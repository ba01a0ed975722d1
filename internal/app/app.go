// Package app wires settings into a running pipeline: metadata store,
// vector index, AI adapters, loaders, chunker and the core services.
// Every driving adapter (HTTP, CLI, MCP, TUI, watcher) is built on an App.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/athena/internal/adapters/driven/ai"
	"github.com/custodia-labs/athena/internal/adapters/driven/config/file"
	"github.com/custodia-labs/athena/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/athena/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/athena/internal/adapters/driven/vector"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/services"
	"github.com/custodia-labs/athena/internal/logger"
	"github.com/custodia-labs/athena/internal/normalisers"
	"github.com/custodia-labs/athena/internal/postprocessors/chunker"
)

// App holds the constructed dependencies. Close releases them.
type App struct {
	Settings domain.AppSettings

	Store   driven.MetadataStore
	Vectors driven.VectorIndex
	AI      *ai.Services

	Ingest    *services.IngestService
	Query     *services.QueryService
	Reconcile *services.ReconcileService
	Documents *services.DocumentService
}

// LoadSettings reads settings from configPath, or from ~/.athena/config.toml
// when configPath is empty.
func LoadSettings(configPath string) (domain.AppSettings, error) {
	var store driven.SettingsStore
	if configPath != "" {
		store = file.NewSettingsStoreAt(configPath)
	} else {
		s, err := file.NewSettingsStore("")
		if err != nil {
			return domain.AppSettings{}, fmt.Errorf("opening settings: %w", err)
		}
		store = s
	}

	return LoadSettingsFrom(store)
}

// LoadSettingsFrom reads settings from store.
func LoadSettingsFrom(store driven.SettingsStore) (domain.AppSettings, error) {
	settings, err := store.Load()
	if err != nil {
		return settings, fmt.Errorf("loading settings from %s: %w", store.Path(), err)
	}
	logger.Debug("Settings loaded from %s", store.Path())
	return settings, nil
}

// New constructs every dependency from settings. On failure anything
// already opened is closed again.
func New(ctx context.Context, settings domain.AppSettings) (*App, error) {
	if settings.MemoryStorageMismatch() {
		return nil, fmt.Errorf("%w: storage backend memory requires vector_index backend memory, got %q",
			domain.ErrInvalidInput, settings.VectorIndex.Backend)
	}

	a := &App{Settings: settings}

	store, err := newMetadataStore(settings.Storage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	a.Store = store

	vectors, err := vector.New(settings.VectorIndex)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Vectors = vectors
	logger.Debug("Vector index: %s", settings.VectorIndex.Backend)

	aiServices, err := ai.CreateServices(ctx, settings)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.AI = aiServices
	logger.Debug("Embedding: %s/%s, LLM: %s/%s",
		settings.Embedding.Provider, aiServices.Embedding.ModelName(),
		settings.LLM.Provider, aiServices.LLM.ModelName())

	collection := settings.VectorIndex.Collection
	loaders := normalisers.NewRegistry(settings.Loader.PDFLicenseKey)
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	a.Ingest = services.NewIngestService(loaders, splitter, aiServices.Embedding, vectors, store, collection)
	generator := services.NewAnswerGenerator(aiServices.LLM, settings.LLM.MaxTokens)
	if prompts, err := file.NewPromptStore(promptDir(settings.Storage)); err == nil {
		applyPrompt(generator, prompts)
	} else {
		logger.Warn("prompt store unavailable, using built-in prompt: %v", err)
	}

	a.Query = services.NewQueryService(aiServices.Embedding, vectors, store, generator, collection)
	a.Reconcile = services.NewReconcileService(store, vectors, aiServices.Embedding, collection)
	a.Documents = services.NewDocumentService(store)

	return a, nil
}

// promptDir is where editable prompt templates live. Empty means the
// prompt store default.
func promptDir(s domain.StorageSettings) string {
	if s.DataDir == "" {
		return ""
	}
	return filepath.Join(s.DataDir, "prompts")
}

// applyPrompt installs the stored answer template. Problems are logged and
// the built-in template stays in place.
func applyPrompt(g *services.AnswerGenerator, prompts driven.PromptStore) {
	template, err := prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("loading answer prompt: %v", err)
		return
	}
	if err := g.SetTemplate(template); err != nil {
		logger.Warn("ignoring answer prompt: %v", err)
	}
}

// newMetadataStore opens the configured metadata store.
func newMetadataStore(s domain.StorageSettings) (driven.MetadataStore, error) {
	switch s.Backend {
	case domain.StorageBackendMemory:
		logger.Debug("Metadata store: in memory")
		return memory.NewMetadataStore(), nil
	case "", domain.StorageBackendSQLite:
		store, err := sqlite.NewStore(s.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Metadata store: %s", store.Path())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// Close releases every dependency and joins any errors.
func (a *App) Close() error {
	var errs []error
	if a.AI != nil {
		a.AI.Close()
	}
	if a.Vectors != nil {
		errs = append(errs, a.Vectors.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
