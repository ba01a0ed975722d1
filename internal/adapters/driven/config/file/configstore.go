package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// ConfigFile is the settings file name inside the config directory.
const ConfigFile = "config.toml"

// Environment variables that override file settings.
const (
	EnvPort          = "API_PORT"
	EnvAPIKey        = "API_KEY"
	EnvDocsPath      = "DOCS_PATH"
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvQdrantURL     = "QDRANT_URL"
	EnvQdrantKey     = "QDRANT_API_KEY"
	EnvDataDir       = "ATHENA_DATA_DIR"
	EnvPDFLicenseKey = "UNIDOC_LICENSE_API_KEY"
)

// SettingsStore loads AppSettings from a TOML file, then applies values from
// .env files and the process environment. Precedence, highest first:
// process environment, .env files, config.toml, built-in defaults.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
	envFiles []string
	lookup   func(string) (string, bool)
}

// NewSettingsStore creates a store for configDir/config.toml.
// If configDir is empty, defaults to ~/.athena.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".athena")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, ConfigFile),
		envFiles: []string{filepath.Join(configDir, ".env"), ".env"},
		lookup:   os.LookupEnv,
	}, nil
}

// NewSettingsStoreAt creates a store for an explicit settings file path.
// A .env file next to it and in the working directory is also read.
func NewSettingsStoreAt(path string) *SettingsStore {
	return &SettingsStore{
		filePath: path,
		envFiles: []string{filepath.Join(filepath.Dir(path), ".env"), ".env"},
		lookup:   os.LookupEnv,
	}
}

// SetEnvFiles replaces the .env files consulted by Load.
func (s *SettingsStore) SetEnvFiles(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envFiles = paths
}

// SetLookup replaces the process environment lookup, for tests.
func (s *SettingsStore) SetLookup(lookup func(string) (string, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookup = lookup
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Load reads settings. A missing config file is not an error.
func (s *SettingsStore) Load() (domain.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultAppSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parsing %s: %w", s.filePath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// No config file yet, defaults apply.
	default:
		return settings, fmt.Errorf("reading %s: %w", s.filePath, err)
	}

	dotenv, err := s.readEnvFiles()
	if err != nil {
		return settings, err
	}
	env := func(key string) (string, bool) {
		if v, ok := s.lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if err := applyEnv(&settings, env); err != nil {
		return settings, err
	}
	if err := applyDefaults(&settings); err != nil {
		return settings, err
	}
	if err := Validate(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Save writes settings to the TOML file.
func (s *SettingsStore) Save(settings domain.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}

	// Restricted permissions: the file may hold API keys.
	return os.WriteFile(s.filePath, data, 0600)
}

// readEnvFiles merges the configured .env files; earlier files win.
func (s *SettingsStore) readEnvFiles() (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range s.envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for k, v := range values {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

func applyEnv(s *domain.AppSettings, env func(string) (string, bool)) error {
	if v, ok := env(EnvPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port number", domain.ErrInvalidInput, EnvPort, v)
		}
		s.Server.Port = port
	}
	if v, ok := env(EnvAPIKey); ok {
		s.Server.APIKey = v
	}
	if v, ok := env(EnvDocsPath); ok {
		s.Server.DocsPath = v
	}
	if v, ok := env(EnvDataDir); ok {
		s.Storage.DataDir = v
	}
	if v, ok := env(EnvQdrantURL); ok {
		s.VectorIndex.URL = v
	}
	if v, ok := env(EnvQdrantKey); ok {
		s.VectorIndex.APIKey = v
	}
	if v, ok := env(EnvPDFLicenseKey); ok {
		s.Loader.PDFLicenseKey = v
	}

	if key, ok := providerKey(s.Embedding.Provider, env); ok && s.Embedding.APIKey == "" {
		s.Embedding.APIKey = key
	}
	if key, ok := providerKey(s.LLM.Provider, env); ok && s.LLM.APIKey == "" {
		s.LLM.APIKey = key
	}
	return nil
}

// providerKey returns the environment API key for a cloud provider.
func providerKey(p domain.AIProvider, env func(string) (string, bool)) (string, bool) {
	switch p {
	case domain.AIProviderGemini:
		return env(EnvGeminiKey)
	case domain.AIProviderOpenAI:
		return env(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return env(EnvAnthropicKey)
	default:
		return "", false
	}
}

// applyDefaults fills values derived from other settings.
func applyDefaults(s *domain.AppSettings) error {
	if s.Storage.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		s.Storage.DataDir = filepath.Join(home, ".athena", "data")
	}
	if s.Server.DocsPath == "" {
		s.Server.DocsPath = filepath.Join(s.Storage.DataDir, "docs")
	}
	if s.VectorIndex.Path == "" {
		s.VectorIndex.Path = filepath.Join(s.Storage.DataDir, "vectors")
	}
	if s.VectorIndex.Collection == "" {
		s.VectorIndex.Collection = domain.DefaultCollection
	}
	if s.Embedding.Model == "" {
		s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
	}
	if s.LLM.Model == "" {
		s.LLM.Model = domain.DefaultLLMModels()[s.LLM.Provider]
	}
	if s.Server.MaxUploadMB <= 0 {
		s.Server.MaxUploadMB = domain.DefaultMaxUploadMB
	}
	if s.Chunking.Size <= 0 {
		s.Chunking.Size = domain.DefaultChunkSize
	}
	if s.Chunking.Overlap < 0 {
		s.Chunking.Overlap = 0
	}
	return nil
}

// Validate checks settings for values no component can work with.
// Missing API keys are not checked here; the AI factory reports those
// when a provider is actually constructed.
func Validate(s domain.AppSettings) error {
	var problems []string

	if s.Server.Port < 1 || s.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", s.Server.Port))
	}
	if !s.Embedding.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", s.Embedding.Provider))
	} else if s.Embedding.Provider == domain.AIProviderAnthropic {
		problems = append(problems, "anthropic does not provide embeddings")
	}
	if !s.LLM.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown llm provider %q", s.LLM.Provider))
	}
	if !s.VectorIndex.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown vector_index backend %q", s.VectorIndex.Backend))
	}
	if !s.Storage.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown storage backend %q", s.Storage.Backend))
	}
	if s.MemoryStorageMismatch() {
		problems = append(problems, fmt.Sprintf("storage backend memory requires vector_index backend memory, got %q",
			s.VectorIndex.Backend))
	}
	if s.Chunking.Overlap >= s.Chunking.Size {
		problems = append(problems, fmt.Sprintf("chunking.overlap %d must be smaller than chunking.size %d",
			s.Chunking.Overlap, s.Chunking.Size))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
