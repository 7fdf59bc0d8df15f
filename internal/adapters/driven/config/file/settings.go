package file

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Keys read from config.toml. Tables flatten to dotted keys.
const (
	KeyEnv               = "env"
	KeyLogLevel          = "log_level"
	KeyVectorDim         = "vector_dim"
	KeyIngestConcurrency = "ingest_concurrency"

	KeyStoreBackend     = "store.backend"
	KeyStoreDataDir     = "store.data_dir"
	KeyStoreDatabaseURL = "store.database_url"

	KeyEmbeddingProvider = "embedding.provider"
	KeyEmbeddingModel    = "embedding.model"
	KeyEmbeddingBaseURL  = "embedding.base_url"
	KeyEmbeddingAPIKey   = "embedding.api_key"

	KeyLLMProvider = "llm.provider"
	KeyLLMModel    = "llm.model"
	KeyLLMBaseURL  = "llm.base_url"
	KeyLLMAPIKey   = "llm.api_key"

	KeyRetrievalTopK = "retrieval.retrieval_topk"
	KeyRerankTopK    = "retrieval.rerank_topk"

	KeyChunkWindow  = "chunking.window"
	KeyChunkOverlap = "chunking.overlap"

	KeyRequestTimeout = "timeouts.request"
	KeyLLMTimeout     = "timeouts.llm"
	KeyLLMMaxRetries  = "timeouts.llm_max_retries"

	KeyServerPort        = "server.port"
	KeyServerAPIKey      = "server.api_key"
	KeyRateLimitCapacity = "server.rate_limit_capacity"
	KeyRateLimitRefill   = "server.rate_limit_refill"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none)
// into the process environment. Existing variables win; missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadSettings builds Settings from defaults, then the config store, then
// the environment. A nil store or lookup skips that layer.
//
// VectorDim follows the embedding model's known dimension unless it was set
// explicitly. The result is not validated.
func LoadSettings(store driven.ConfigStore, lookup LookupEnv) (domain.Settings, error) {
	s := domain.DefaultSettings()
	l := &layer{store: store, lookup: lookup}

	l.str(&s.Env, KeyEnv, "AKSARA_ENV", "APP_ENV")
	l.str(&s.LogLevel, KeyLogLevel, "AKSARA_LOG_LEVEL", "LOG_LEVEL")
	dimSet := l.int(&s.VectorDim, KeyVectorDim, "AKSARA_VECTOR_DIM", "VECTOR_DIM")
	l.int(&s.IngestConcurrency, KeyIngestConcurrency, "AKSARA_INGEST_CONCURRENCY")

	var backend string
	backendSet := l.str(&backend, KeyStoreBackend, "AKSARA_STORE")
	l.str(&s.Store.DataDir, KeyStoreDataDir, "AKSARA_DATA_DIR")
	l.str(&s.Store.DatabaseURL, KeyStoreDatabaseURL, "AKSARA_DATABASE_URL", "DATABASE_URL")
	switch {
	case backendSet:
		s.Store.Backend = domain.StoreBackend(strings.ToLower(backend))
	case isPostgresURL(s.Store.DatabaseURL):
		s.Store.Backend = domain.StoreBackendPostgres
	}

	var embedProvider, llmProvider string
	if l.str(&embedProvider, KeyEmbeddingProvider, "AKSARA_EMBEDDING_PROVIDER") {
		s.Embedding.Provider = domain.AIProvider(strings.ToLower(embedProvider))
		s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
	}
	l.str(&s.Embedding.Model, KeyEmbeddingModel, "AKSARA_EMBEDDING_MODEL")
	l.str(&s.Embedding.BaseURL, KeyEmbeddingBaseURL, "AKSARA_EMBEDDING_BASE_URL")
	l.str(&s.Embedding.APIKey, KeyEmbeddingAPIKey, "AKSARA_EMBEDDING_API_KEY")

	if l.str(&llmProvider, KeyLLMProvider, "AKSARA_LLM_PROVIDER") {
		s.LLM.Provider = domain.AIProvider(strings.ToLower(llmProvider))
		s.LLM.Model = domain.DefaultLLMModels()[s.LLM.Provider]
	}
	l.str(&s.LLM.Model, KeyLLMModel, "AKSARA_LLM_MODEL")
	l.str(&s.LLM.BaseURL, KeyLLMBaseURL, "AKSARA_LLM_BASE_URL")
	l.str(&s.LLM.APIKey, KeyLLMAPIKey, "AKSARA_LLM_API_KEY")

	l.providerDefaults(&s.Embedding.APIKey, &s.Embedding.BaseURL, s.Embedding.Provider)
	l.providerDefaults(&s.LLM.APIKey, &s.LLM.BaseURL, s.LLM.Provider)

	l.int(&s.Retrieval.CandidateLimit, KeyRetrievalTopK, "AKSARA_RETRIEVAL_TOPK", "RETRIEVAL_TOPK")
	l.int(&s.Retrieval.FinalLimit, KeyRerankTopK, "AKSARA_RERANK_TOPK", "RERANK_TOPK")
	l.int(&s.Chunking.WindowSize, KeyChunkWindow, "AKSARA_CHUNK_WINDOW")
	l.int(&s.Chunking.Overlap, KeyChunkOverlap, "AKSARA_CHUNK_OVERLAP")

	l.duration(&s.Timeouts.Request, KeyRequestTimeout, "AKSARA_REQUEST_TIMEOUT")
	l.duration(&s.Timeouts.LLM, KeyLLMTimeout, "AKSARA_LLM_TIMEOUT")
	l.int(&s.Timeouts.MaxRetries, KeyLLMMaxRetries, "AKSARA_LLM_MAX_RETRIES")

	l.int(&s.Server.Port, KeyServerPort, "AKSARA_PORT", "PORT")
	l.str(&s.Server.APIKey, KeyServerAPIKey, "AKSARA_API_KEY")
	l.int(&s.Server.RateLimitCapacity, KeyRateLimitCapacity, "AKSARA_RATE_LIMIT_CAPACITY")
	l.float(&s.Server.RateLimitRefill, KeyRateLimitRefill, "AKSARA_RATE_LIMIT_REFILL")

	if len(l.errs) > 0 {
		return s, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(l.errs, "; "))
	}

	if !dimSet {
		if dim, ok := domain.EmbeddingDimensions()[s.Embedding.Model]; ok {
			s.VectorDim = dim
		}
	}

	return s, nil
}

func isPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// layer applies config-store then environment values. Each setter reports
// whether any source provided a value.
type layer struct {
	store  driven.ConfigStore
	lookup LookupEnv
	errs   []string
}

func (l *layer) fromStore(key string) (any, bool) {
	if l.store == nil {
		return nil, false
	}
	return l.store.Get(key)
}

func (l *layer) fromEnv(names []string) (string, string, bool) {
	if l.lookup == nil {
		return "", "", false
	}
	for _, name := range names {
		if v, ok := l.lookup(name); ok && strings.TrimSpace(v) != "" {
			return name, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

func (l *layer) str(dst *string, key string, env ...string) bool {
	set := false
	if _, ok := l.fromStore(key); ok {
		if v := l.store.GetString(key); v != "" {
			*dst = v
			set = true
		}
	}
	if _, v, ok := l.fromEnv(env); ok {
		*dst = v
		set = true
	}
	return set
}

func (l *layer) int(dst *int, key string, env ...string) bool {
	set := false
	if _, ok := l.fromStore(key); ok {
		*dst = l.store.GetInt(key)
		set = true
	}
	if name, v, ok := l.fromEnv(env); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			l.errs = append(l.errs, fmt.Sprintf("%s=%q is not an integer", name, v))
			return set
		}
		*dst = n
		set = true
	}
	return set
}

func (l *layer) float(dst *float64, key string, env ...string) {
	if _, ok := l.fromStore(key); ok {
		*dst = l.store.GetFloat(key)
	}
	if name, v, ok := l.fromEnv(env); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			l.errs = append(l.errs, fmt.Sprintf("%s=%q is not a number", name, v))
			return
		}
		*dst = f
	}
}

// duration accepts Go duration strings or plain seconds.
func (l *layer) duration(dst *time.Duration, key string, env ...string) {
	if _, ok := l.fromStore(key); ok {
		if d := l.store.GetDuration(key); d > 0 {
			*dst = d
		}
	}
	if name, v, ok := l.fromEnv(env); ok {
		d, err := parseDuration(v)
		if err != nil {
			l.errs = append(l.errs, fmt.Sprintf("%s=%q is not a duration", name, v))
			return
		}
		*dst = d
	}
}

func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// providerDefaults fills the API key and base URL from the provider's
// conventional environment variables when nothing more specific was set.
func (l *layer) providerDefaults(apiKey, baseURL *string, provider domain.AIProvider) {
	var keyEnv, urlEnv string
	switch provider {
	case domain.AIProviderGemini:
		keyEnv = "GEMINI_API_KEY"
	case domain.AIProviderOpenAI:
		keyEnv = "OPENAI_API_KEY"
	case domain.AIProviderAnthropic:
		keyEnv = "ANTHROPIC_API_KEY"
	case domain.AIProviderOllama:
		urlEnv = "OLLAMA_HOST"
	}
	if *apiKey == "" && keyEnv != "" {
		if _, v, ok := l.fromEnv([]string{keyEnv}); ok {
			*apiKey = v
		}
	}
	if *baseURL == "" && urlEnv != "" {
		if _, v, ok := l.fromEnv([]string{urlEnv}); ok {
			if !strings.Contains(v, "://") {
				v = "http://" + v
			}
			*baseURL = v
		}
	}
}
