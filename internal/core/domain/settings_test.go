package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSettings() Settings {
	s := DefaultSettings()
	s.Embedding.APIKey = "key"
	s.LLM.APIKey = "key"
	return s
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 1536, s.VectorDim)
	assert.Equal(t, 24, s.Retrieval.CandidateLimit)
	assert.Equal(t, 8, s.Retrieval.FinalLimit)
	assert.Equal(t, 700, s.Chunking.WindowSize)
	assert.Equal(t, 120, s.Chunking.Overlap)
	assert.Equal(t, 7700, s.Server.Port)
	assert.Equal(t, AIProviderGemini, s.LLM.Provider)
	assert.Equal(t, "gemini-2.5-pro", s.LLM.Model)
	assert.Equal(t, "text-embedding-004", s.Embedding.Model)
	assert.Equal(t, StoreBackendSQLite, s.Store.Backend)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"defaults with keys", func(*Settings) {}, true},
		{"missing gemini key", func(s *Settings) { s.LLM.APIKey = "" }, false},
		{"overlap equals window", func(s *Settings) { s.Chunking.Overlap = s.Chunking.WindowSize }, false},
		{"zero topk", func(s *Settings) { s.Retrieval.FinalLimit = 0 }, false},
		{"anthropic embeddings", func(s *Settings) { s.Embedding.Provider = AIProviderAnthropic }, false},
		{"ollama needs no key", func(s *Settings) {
			s.Embedding = EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text"}
			s.LLM = LLMSettings{Provider: AIProviderOllama, Model: "llama3.2"}
		}, true},
		{"postgres without url", func(s *Settings) { s.Store.Backend = StoreBackendPostgres }, false},
		{"unknown backend", func(s *Settings) { s.Store.Backend = "mongo" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}

func TestAIProvider(t *testing.T) {
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
	assert.Equal(t, "Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.SupportsEmbeddings(), p)
		assert.Contains(t, DefaultEmbeddingModels(), p)
	}
	for _, p := range AllLLMProviders() {
		assert.Contains(t, DefaultLLMModels(), p)
	}
}
