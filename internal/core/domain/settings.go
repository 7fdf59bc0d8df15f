package domain

import (
	"errors"
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Generative Language REST API.
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
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if this provider offers an embedding endpoint.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderGemini || p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Gemini (cloud)"
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
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the provider API key.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
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
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the provider API key.
	APIKey string
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

// StoreBackend selects the document and chunk store.
type StoreBackend string

// Available store backends.
const (
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendMemory   StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendPostgres, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// StoreSettings holds persistence configuration.
type StoreSettings struct {
	Backend StoreBackend

	// DataDir holds the SQLite database. Empty means ~/.aksara/data.
	DataDir string

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string
}

// RetrievalSettings bounds the retrieval engine.
type RetrievalSettings struct {
	// CandidateLimit caps each retrieval branch.
	CandidateLimit int

	// FinalLimit caps the reranked result.
	FinalLimit int
}

// ChunkingSettings controls the word-window chunker.
type ChunkingSettings struct {
	WindowSize int
	Overlap    int
}

// TimeoutSettings controls per-call timeouts and retries.
type TimeoutSettings struct {
	// Request bounds each source fetch attempt.
	Request time.Duration

	// LLM bounds each embedding or generation attempt.
	LLM time.Duration

	// MaxRetries is the number of attempts for transient failures.
	MaxRetries int
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Port int

	// APIKey enables bearer authentication when set.
	APIKey string

	// RateLimitCapacity is the per-user token bucket size.
	RateLimitCapacity int

	// RateLimitRefill is the per-user refill rate in tokens per second.
	RateLimitRefill float64
}

// Settings is the explicit configuration object built once at startup and
// passed to constructors.
type Settings struct {
	// Env names the deployment environment.
	Env string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// VectorDim is the embedding dimensionality of the whole corpus.
	VectorDim int

	// IngestConcurrency bounds parallel sources in a batch ingest.
	IngestConcurrency int

	Store     StoreSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Chunking  ChunkingSettings
	Timeouts  TimeoutSettings
	Server    ServerSettings
}

// Defaults for Settings.
const (
	DefaultVectorDim         = 1536
	DefaultRetrievalTopK     = 24
	DefaultRerankTopK        = 8
	DefaultWindowSize        = 700
	DefaultOverlap           = 120
	DefaultRequestTimeout    = 15 * time.Second
	DefaultLLMTimeout        = 20 * time.Second
	DefaultMaxRetries        = 3
	DefaultPort              = 7700
	DefaultRateLimitCapacity = 30
	DefaultRateLimitRefill   = 0.5
)

// DefaultSettings returns settings with sensible defaults.
// Gemini is the default provider; an API key must still be supplied.
func DefaultSettings() Settings {
	return Settings{
		Env:               "development",
		LogLevel:          "info",
		VectorDim:         DefaultVectorDim,
		IngestConcurrency: 1,
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderGemini,
			Model:    DefaultEmbeddingModels()[AIProviderGemini],
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    DefaultLLMModels()[AIProviderGemini],
		},
		Retrieval: RetrievalSettings{
			CandidateLimit: DefaultRetrievalTopK,
			FinalLimit:     DefaultRerankTopK,
		},
		Chunking: ChunkingSettings{
			WindowSize: DefaultWindowSize,
			Overlap:    DefaultOverlap,
		},
		Timeouts: TimeoutSettings{
			Request:    DefaultRequestTimeout,
			LLM:        DefaultLLMTimeout,
			MaxRetries: DefaultMaxRetries,
		},
		Server: ServerSettings{
			Port:              DefaultPort,
			RateLimitCapacity: DefaultRateLimitCapacity,
			RateLimitRefill:   DefaultRateLimitRefill,
		},
	}
}

// Validate rejects inconsistent settings. All problems are reported together.
func (s Settings) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...))
	}

	if s.VectorDim <= 0 {
		invalid("vector_dim must be positive, got %d", s.VectorDim)
	}
	if s.Retrieval.CandidateLimit <= 0 {
		invalid("retrieval_topk must be positive, got %d", s.Retrieval.CandidateLimit)
	}
	if s.Retrieval.FinalLimit <= 0 {
		invalid("rerank_topk must be positive, got %d", s.Retrieval.FinalLimit)
	}
	if s.Chunking.WindowSize <= 0 {
		invalid("chunk window must be positive, got %d", s.Chunking.WindowSize)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.WindowSize {
		invalid("chunk overlap %d must be in [0, %d)", s.Chunking.Overlap, s.Chunking.WindowSize)
	}
	if s.Timeouts.MaxRetries < 1 {
		invalid("llm_max_retries must be at least 1, got %d", s.Timeouts.MaxRetries)
	}
	if s.IngestConcurrency < 1 {
		invalid("ingest concurrency must be at least 1, got %d", s.IngestConcurrency)
	}
	if !s.Store.Backend.IsValid() {
		invalid("unknown store backend %q", s.Store.Backend)
	}
	if s.Store.Backend == StoreBackendPostgres && s.Store.DatabaseURL == "" {
		invalid("postgres backend requires DATABASE_URL")
	}
	if !s.Embedding.Provider.IsValid() || !s.Embedding.Provider.SupportsEmbeddings() {
		invalid("unsupported embedding provider %q", s.Embedding.Provider)
	} else if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		invalid("embedding provider %s requires an API key", s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		invalid("unsupported LLM provider %q", s.LLM.Provider)
	} else if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		invalid("LLM provider %s requires an API key", s.LLM.Provider)
	}
	if s.Server.RateLimitCapacity <= 0 || s.Server.RateLimitRefill <= 0 {
		invalid("rate limit capacity and refill must be positive")
	}

	return errors.Join(errs...)
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
		AIProviderGemini: "text-embedding-004",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-2.5-pro",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"text-embedding-004": 768,
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
