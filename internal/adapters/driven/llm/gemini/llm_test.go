package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/retry"
)

type stubPrompts struct {
	prompts map[string]string
}

func (p *stubPrompts) Load(name string) (string, error) {
	if v, ok := p.prompts[name]; ok {
		return v, nil
	}
	return "", errors.New("unknown prompt")
}

func (p *stubPrompts) Reload() {}

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{
		APIKey:  "key",
		BaseURL: server.URL,
		Retry:   retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)

	svc, err := NewLLMService(Config{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be precise", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 3)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)
		require.Len(t, req.SafetySettings, 1)
		assert.Equal(t, "HARM_CATEGORY_DANGEROUS_CONTENT", req.SafetySettings[0].Category)
		assert.Equal(t, "BLOCK_LOW_AND_ABOVE", req.SafetySettings[0].Threshold)

		w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":"Jawaban "},{"text":"lengkap"}]}}],
			"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":5}
		}`))
	})

	gen, err := svc.Generate(context.Background(), driven.GenerateRequest{
		System: "be precise",
		Messages: []driven.ChatMessage{
			{Role: driven.RoleUser, Content: "q1"},
			{Role: driven.RoleAssistant, Content: "a1"},
			{Role: driven.RoleUser, Content: "q2"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Jawaban lengkap", gen.Text)
	assert.Equal(t, "gemini-2.5-pro", gen.Model)
	require.NotNil(t, gen.PromptTokens)
	require.NotNil(t, gen.ResponseTokens)
	assert.Equal(t, 12, *gen.PromptTokens)
	assert.Equal(t, 5, *gen.ResponseTokens)
}

func TestGenerate_NoUsage(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	gen, err := svc.Generate(context.Background(), driven.GenerateRequest{
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}},
	})

	require.NoError(t, err)
	assert.Nil(t, gen.PromptTokens)
	assert.Nil(t, gen.ResponseTokens)
}

func TestGenerate_NoCandidates(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := svc.Generate(context.Background(), driven.GenerateRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerate_JSONMode(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
		require.NotNil(t, req.GenerationConfig.Temperature)
		assert.Zero(t, *req.GenerationConfig.Temperature)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	})

	_, err := svc.Generate(context.Background(), driven.GenerateRequest{JSON: true})
	require.NoError(t, err)
}

func TestRerank(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "custom rerank", req.SystemInstruction.Parts[0].Text)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"order\":[1,0]}"}]}}]}`))
	})
	svc.SetPromptStore(&stubPrompts{prompts: map[string]string{driven.PromptRerankSystem: "custom rerank"}})

	order, err := svc.Rerank(context.Background(), "q", []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}

func TestRerank_Malformed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"passage two"}]}}]}`))
	})

	_, err := svc.Rerank(context.Background(), "q", []string{"a", "b"})
	assert.Error(t, err)
}

func TestLoadPrompt_Fallback(t *testing.T) {
	svc, err := NewLLMService(Config{APIKey: "key"})
	require.NoError(t, err)

	assert.Equal(t, "fallback", svc.loadPrompt("missing", "fallback"))

	svc.SetPromptStore(&stubPrompts{})
	assert.Equal(t, "fallback", svc.loadPrompt("missing", "fallback"))
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping failed")
}
