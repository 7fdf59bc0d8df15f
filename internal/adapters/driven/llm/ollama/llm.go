// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/aksara-legal/aksara/internal/adapters/driven/ai/ollamaclient"
	"github.com/aksara-legal/aksara/internal/adapters/driven/llm/rerank"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/retry"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = ollamaclient.DefaultBaseURL
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// jsonFormat asks Ollama to constrain output to JSON.
var jsonFormat = json.RawMessage(`"json"`)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout bounds each attempt (default: 120s).
	Timeout time.Duration

	// Retry is the policy for transient failures.
	Retry retry.Policy
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	client      *api.Client
	policy      retry.Policy
	model       string
	promptStore driven.PromptStore
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	client, err := ollamaclient.New(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	policy.AttemptTimeout = cfg.Timeout

	return &LLMService{
		client: client,
		policy: policy,
		model:  cfg.Model,
	}, nil
}

// Generate produces a completion for a system prompt and conversation.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.Generation, error) {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if req.Temperature > 0 || req.JSON {
		options["temperature"] = req.Temperature
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    s.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	if req.JSON {
		chatReq.Format = jsonFormat
	}

	gen, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*driven.Generation, error) {
		var text strings.Builder
		var last api.ChatResponse
		err := s.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			text.WriteString(resp.Message.Content)
			last = resp
			return nil
		})
		if err != nil {
			return nil, ollamaclient.Classify(err)
		}

		gen := &driven.Generation{Text: text.String(), Model: s.model}
		if last.Model != "" {
			gen.Model = last.Model
		}
		if last.Done {
			prompt, eval := last.PromptEvalCount, last.EvalCount
			gen.PromptTokens = &prompt
			gen.ResponseTokens = &eval
		}
		return gen, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: chat: %w", ollamaclient.Unwrap(err))
	}
	return gen, nil
}

// Rerank orders candidates by relevance to query.
func (s *LLMService) Rerank(ctx context.Context, query string, candidates []string) ([]int, error) {
	system := s.loadPrompt(driven.PromptRerankSystem, rerank.DefaultSystemPrompt)
	return rerank.Rerank(ctx, s, system, query, candidates)
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *LLMService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the service uses hardcoded default prompts.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ping checks that the Ollama server is up.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
