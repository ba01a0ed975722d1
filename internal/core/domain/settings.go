package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible APIs).
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey is the API key for cloud providers.
	APIKey string `toml:"api_key,omitempty"`

	// Dimensions requests a specific output size where the model supports it.
	// Zero uses the model default.
	Dimensions int `toml:"dimensions,omitempty"`

	// RequestsPerMinute paces embedding calls. Zero disables pacing.
	RequestsPerMinute int `toml:"requests_per_minute,omitempty"`

	// MaxRetries bounds retries of transient failures.
	MaxRetries int `toml:"max_retries,omitempty"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the LLM model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible APIs).
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey is the API key for cloud providers.
	APIKey string `toml:"api_key,omitempty"`

	// MaxTokens caps the answer length. Zero uses the provider default.
	MaxTokens int `toml:"max_tokens,omitempty"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendQdrant talks to a Qdrant server over REST.
	VectorBackendQdrant VectorBackend = "qdrant"

	// VectorBackendChromem is an embedded, file-persisted index.
	VectorBackendChromem VectorBackend = "chromem"

	// VectorBackendMemory is a process-local index. Contents are lost on exit.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendQdrant, VectorBackendChromem, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend `toml:"backend"`

	// URL is the Qdrant base URL.
	URL string `toml:"url,omitempty"`

	// APIKey is the Qdrant API key.
	APIKey string `toml:"api_key,omitempty"`

	// Collection is the single collection all chunks are written to.
	Collection string `toml:"collection"`

	// Path is the chromem persistence directory. Defaults under the data dir.
	Path string `toml:"path,omitempty"`
}

// StorageBackend selects the metadata store implementation.
type StorageBackend string

// Available metadata store backends.
const (
	// StorageBackendSQLite is a database file under the data dir.
	StorageBackendSQLite StorageBackend = "sqlite"

	// StorageBackendMemory keeps metadata in process. Contents are lost on exit.
	StorageBackendMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised. Empty means SQLite.
func (b StorageBackend) IsValid() bool {
	switch b {
	case "", StorageBackendSQLite, StorageBackendMemory:
		return true
	default:
		return false
	}
}

// MemoryStorageMismatch reports whether in-memory metadata is paired with
// a persistent vector index. Document IDs restart at 1 on every run, so
// the index would keep points that new documents overwrite or collide with.
func (s AppSettings) MemoryStorageMismatch() bool {
	return s.Storage.Backend == StorageBackendMemory && s.VectorIndex.Backend != VectorBackendMemory
}

// StorageSettings holds metadata store configuration.
type StorageSettings struct {
	// Backend selects the implementation. Defaults to sqlite.
	Backend StorageBackend `toml:"backend,omitempty"`

	// DataDir holds the SQLite database. Defaults to ~/.athena/data.
	DataDir string `toml:"data_dir,omitempty"`
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	// Port is the listen port.
	Port int `toml:"port"`

	// APIKey gates both API endpoints via the x-api-key header.
	APIKey string `toml:"api_key,omitempty"`

	// DocsPath is where uploads are written before ingestion.
	DocsPath string `toml:"docs_path,omitempty"`

	// MaxUploadMB caps multipart upload size.
	MaxUploadMB int `toml:"max_upload_mb"`
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// Size is the target chunk length in characters.
	Size int `toml:"size"`

	// Overlap is the overlap between consecutive chunks in characters.
	Overlap int `toml:"overlap"`
}

// LoaderSettings configures document loaders.
type LoaderSettings struct {
	// PDFLicenseKey is the UniDoc metered license key used for PDF extraction.
	PDFLicenseKey string `toml:"pdf_license_key,omitempty"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server      ServerSettings      `toml:"server"`
	Embedding   EmbeddingSettings   `toml:"embedding"`
	LLM         LLMSettings         `toml:"llm"`
	VectorIndex VectorIndexSettings `toml:"vector_index"`
	Storage     StorageSettings     `toml:"storage"`
	Chunking    ChunkingSettings    `toml:"chunking"`
	Loader      LoaderSettings      `toml:"loader"`
}

// Defaults used by DefaultAppSettings.
const (
	DefaultCollection   = "athena_docs"
	DefaultPort         = 8000
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	DefaultTopK         = 5
	DefaultMaxUploadMB  = 50
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty and must come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Port:        DefaultPort,
			MaxUploadMB: DefaultMaxUploadMB,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderGemini,
			Model:      DefaultEmbeddingModels()[AIProviderGemini],
			MaxRetries: 3,
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    DefaultLLMModels()[AIProviderGemini],
		},
		VectorIndex: VectorIndexSettings{
			Backend:    VectorBackendChromem,
			URL:        "http://localhost:6333",
			Collection: DefaultCollection,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-2.5-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
