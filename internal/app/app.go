// Package app assembles adapters and core services from settings.
package app

import (
	"context"
	"fmt"

	"github.com/aksara-legal/aksara/internal/adapters/driven/ai"
	"github.com/aksara-legal/aksara/internal/adapters/driven/config/file"
	"github.com/aksara-legal/aksara/internal/adapters/driven/fetch"
	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/memory"
	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/postgres"
	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/sqlite"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/services"
	"github.com/aksara-legal/aksara/internal/logger"
	"github.com/aksara-legal/aksara/internal/normalisers"
	"github.com/aksara-legal/aksara/internal/postprocessors/chunker"
	"github.com/aksara-legal/aksara/internal/retry"
)

// App holds the wired services. Embedder and LLM are nil when their
// provider is not configured; the services degrade accordingly.
type App struct {
	Settings domain.Settings
	Config   driven.ConfigStore
	Prompts  *file.PromptStore
	Store    driven.Store
	Embedder driven.EmbeddingService
	LLM      driven.LLMService

	Answer    *services.AnswerService
	Retrieval *services.RetrievalService
	Ingestion *services.IngestionService
	Documents *services.DocumentService
	Health    *services.HealthService

	ai *ai.InitResult
}

// Options overrides parts of the wiring.
type Options struct {
	// PromptDir is the prompt directory. Empty means ~/.aksara/prompts.
	PromptDir string

	// Store replaces the store selected by settings.
	Store driven.Store

	// Fetcher replaces the HTTP fetcher.
	Fetcher driven.Fetcher
}

// New wires every service for settings. Missing AI providers are logged,
// not fatal, so document management works without API keys.
func New(ctx context.Context, settings domain.Settings, config driven.ConfigStore, opts Options) (*App, error) {
	prompts, err := file.NewPromptStore(opts.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("prompt store: %w", err)
	}

	store := opts.Store
	if store == nil {
		store, err = OpenStore(ctx, settings)
		if err != nil {
			return nil, err
		}
	}

	models, err := ai.Init(settings, prompts)
	if err != nil {
		logger.Warn("AI providers partially unavailable: %v", err)
	}

	a := &App{
		Settings: settings,
		Config:   config,
		Prompts:  prompts,
		Store:    store,
		Embedder: models.EmbeddingService,
		LLM:      models.LLMService,
		ai:       models,
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		policy := retry.DefaultPolicy()
		if settings.Timeouts.MaxRetries > 0 {
			policy.MaxAttempts = settings.Timeouts.MaxRetries
		}
		fetcher = fetch.New(fetch.Config{
			Timeout: settings.Timeouts.Request,
			Retry:   policy,
		})
	}

	a.Retrieval = services.NewRetrievalService(store, a.Embedder, a.LLM, settings.Retrieval)
	a.Answer = services.NewAnswerService(a.Retrieval, a.LLM)
	a.Answer.SetPromptStore(prompts)
	a.Ingestion = services.NewIngestionService(
		store,
		fetcher,
		normalisers.NewDefaultRegistry(),
		chunker.New(
			chunker.WithWindowSize(settings.Chunking.WindowSize),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
		a.Embedder,
		services.IngestionConfig{
			VectorDim:   settings.VectorDim,
			Concurrency: settings.IngestConcurrency,
		},
	)
	a.Documents = services.NewDocumentService(store)
	a.Health = services.NewHealthService(store, a.Embedder, a.LLM)

	return a, nil
}

// OpenStore opens the store backend named in settings.
func OpenStore(ctx context.Context, settings domain.Settings) (driven.Store, error) {
	switch settings.Store.Backend {
	case domain.StoreBackendSQLite, "":
		store, err := sqlite.NewStore(settings.Store.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case domain.StoreBackendPostgres:
		store, err := postgres.NewStore(ctx, settings.Store.DatabaseURL, settings.VectorDim)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case domain.StoreBackendMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: store backend %q", domain.ErrUnsupportedType, settings.Store.Backend)
	}
}

// Close releases the store and the AI clients.
func (a *App) Close() error {
	if a.ai != nil {
		a.ai.Close()
	}
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
