// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/aksara-legal/aksara/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/aksara-legal/aksara/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/aksara-legal/aksara/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/aksara-legal/aksara/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/aksara-legal/aksara/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/aksara-legal/aksara/internal/adapters/driven/llm/ollama"
	openaillm "github.com/aksara-legal/aksara/internal/adapters/driven/llm/openai"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/retry"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Options carries the call policy shared by every adapter.
type Options struct {
	// Timeout bounds each model call attempt.
	Timeout time.Duration

	// Retry is the policy for transient failures.
	Retry retry.Policy
}

// OptionsFromSettings derives adapter options from the timeout settings.
func OptionsFromSettings(t domain.TimeoutSettings) Options {
	policy := retry.DefaultPolicy()
	if t.MaxRetries > 0 {
		policy.MaxAttempts = t.MaxRetries
	}
	return Options{Timeout: t.LLM, Retry: policy}
}

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	PromptStore      driven.PromptStore // User-customisable prompt templates.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates both services from settings and injects the prompt store
// into any service that accepts one. Connectivity is not checked.
//
// A service that cannot be created is left nil and the reason is returned
// in a joined error, so callers can keep running with what is available.
func Init(settings domain.Settings, prompts driven.PromptStore) (*InitResult, error) {
	opts := OptionsFromSettings(settings.Timeouts)
	result := &InitResult{PromptStore: prompts}
	var errs []error

	embedding, err := CreateEmbeddingService(&settings.Embedding, opts)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err))
	case embedding == nil:
		errs = append(errs, fmt.Errorf("%w: provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider))
	default:
		result.EmbeddingService = embedding
	}

	llm, err := CreateLLMService(&settings.LLM, opts)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err))
	case llm == nil:
		errs = append(errs, fmt.Errorf("%w: provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider))
	default:
		if aware, ok := llm.(driven.PromptStoreAware); ok && prompts != nil {
			aware.SetPromptStore(prompts)
		}
		result.LLMService = llm
	}

	return result, errors.Join(errs...)
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings, opts Options,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [embedding] section of config.toml",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(
	ctx context.Context, settings *domain.LLMSettings, opts Options,
) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [llm] section of config.toml",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, domain.ErrLLMUnavailable
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, opts Options) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use gemini, ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
			Timeout:    opts.Timeout,
			Retry:      opts.Retry,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
			Timeout:    opts.Timeout,
			Retry:      opts.Retry,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
			Timeout:    opts.Timeout,
			Retry:      opts.Retry,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings, opts Options) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: opts.Timeout,
			Retry:   opts.Retry,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: opts.Timeout,
			Retry:   opts.Retry,
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: opts.Timeout,
			Retry:   opts.Retry,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: opts.Timeout,
			Retry:   opts.Retry,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
