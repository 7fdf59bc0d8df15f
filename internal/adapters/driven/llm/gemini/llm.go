// Package gemini provides an LLM service adapter using the Google Generative
// Language REST API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aksara-legal/aksara/internal/adapters/driven/ai/apiclient"
	"github.com/aksara-legal/aksara/internal/adapters/driven/llm/rerank"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/retry"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-pro"
	DefaultTimeout = 20 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://generativelanguage.googleapis.com/v1beta).
	BaseURL string

	// Model is the generation model to use (default: gemini-2.5-pro).
	Model string

	// Timeout bounds each attempt (default: 20s).
	Timeout time.Duration

	// Retry is the policy for transient failures.
	Retry retry.Policy
}

// LLMService provides generation and reranking using the Gemini API.
type LLMService struct {
	client      *apiclient.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

// generateContentRequest is the models/{m}:generateContent request format.
type generateContentRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	SafetySettings    []safetySetting  `json:"safetySettings"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// generateContentResponse is the models/{m}:generateContent response format.
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     *int `json:"promptTokenCount"`
		CandidatesTokenCount *int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// legalSafety blocks dangerous content at a low threshold.
var legalSafety = []safetySetting{
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_LOW_AND_ABOVE"},
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client: apiclient.New(apiclient.Config{
			Provider: "gemini",
			Timeout:  cfg.Timeout,
			Retry:    cfg.Retry,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   strings.TrimPrefix(cfg.Model, "models/"),
	}, nil
}

// Generate produces a completion for a system prompt and conversation.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.Generation, error) {
	body := generateContentRequest{
		Contents:       make([]content, len(req.Messages)),
		SafetySettings: legalSafety,
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	for i, msg := range req.Messages {
		role := "user"
		if msg.Role == driven.RoleAssistant {
			role = "model"
		}
		body.Contents[i] = content{Role: role, Parts: []part{{Text: msg.Content}}}
	}
	if req.Temperature > 0 || req.JSON {
		temp := req.Temperature
		body.GenerationConfig.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		body.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}
	if req.JSON {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}

	var resp generateContentResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)
	if err := s.client.PostJSON(ctx, url, s.headers(), body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("gemini: no candidates returned")
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	gen := &driven.Generation{Text: text.String(), Model: s.model}
	if resp.UsageMetadata != nil {
		gen.PromptTokens = resp.UsageMetadata.PromptTokenCount
		gen.ResponseTokens = resp.UsageMetadata.CandidatesTokenCount
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

func (s *LLMService) headers() map[string]string {
	return map[string]string{"x-goog-api-key": s.apiKey}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ping validates the API key by fetching the model description.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, fmt.Sprintf("%s/models/%s", s.baseURL, s.model), s.headers()); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
