// Command aksara answers questions about Indonesian business permits from
// ingested regulatory sources.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aksara-legal/aksara/internal/adapters/driven/ai"
	"github.com/aksara-legal/aksara/internal/adapters/driven/config/file"
	"github.com/aksara-legal/aksara/internal/adapters/driving/cli"
	"github.com/aksara-legal/aksara/internal/app"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cli.SetVersion(version)

	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("%v", err)
	}

	cli.SetServiceLoader(loadServices)
	return cli.Execute(ctx)
}

// loadServices reads settings and wires the application on first use.
func loadServices(ctx context.Context) (*cli.Services, error) {
	store, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settings, err := file.LoadSettings(store, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevel(settings.LogLevel); err != nil {
		logger.Warn("%v", err)
	}
	if err := settings.Validate(); err != nil {
		logger.Debug("settings: %v", err)
	}

	a, err := app.New(ctx, settings, store, app.Options{})
	if err != nil {
		return nil, err
	}

	opts := ai.OptionsFromSettings(settings.Timeouts)
	return &cli.Services{
		Answer:    a.Answer,
		Retrieval: a.Retrieval,
		Ingestion: a.Ingestion,
		Documents: a.Documents,
		Health:    a.Health,
		Prompts:   a.Prompts,
		Config:    store,
		Settings:  settings,
		ValidateEmbedding: func(ctx context.Context, s domain.EmbeddingSettings) error {
			svc, err := ai.CreateAndValidateEmbeddingService(ctx, &s, opts)
			if err != nil {
				return err
			}
			return svc.Close()
		},
		ValidateLLM: func(ctx context.Context, s domain.LLMSettings) error {
			svc, err := ai.CreateAndValidateLLMService(ctx, &s, opts)
			if err != nil {
				return err
			}
			return svc.Close()
		},
		Close: a.Close,
	}, nil
}
