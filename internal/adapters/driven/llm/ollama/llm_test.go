package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/retry"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{
		BaseURL: server.URL,
		Retry:   retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return svc
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultLLMModel, req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"Halo"},"done":true,"prompt_eval_count":11,"eval_count":2}` + "\n"))
	})

	gen, err := svc.Generate(context.Background(), driven.GenerateRequest{
		System:   "sys",
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: "hai"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Halo", gen.Text)
	assert.Equal(t, "llama3.2", gen.Model)
	require.NotNil(t, gen.PromptTokens)
	assert.Equal(t, 11, *gen.PromptTokens)
	assert.Equal(t, 2, *gen.ResponseTokens)
}

func TestGenerate_ServerError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	})

	_, err := svc.Generate(context.Background(), driven.GenerateRequest{})
	assert.Error(t, err)
}

func TestRerank_JSONFormat(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json", req["format"])

		w.Write([]byte(`{"message":{"role":"assistant","content":"{\"order\":[1,0]}"},"done":true}` + "\n"))
	})

	order, err := svc.Rerank(context.Background(), "q", []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}
