// Package cli implements the aksara command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
	"github.com/aksara-legal/aksara/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// annotationNoServices marks commands that run without the service graph.
const annotationNoServices = "aksara/no-services"

// PromptManager is the prompt store surface the CLI needs.
type PromptManager interface {
	driven.PromptStore
	Dir() string
	Names() []string
	Watch(ctx context.Context) error
}

// Services holds everything commands call into.
type Services struct {
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Health    driving.HealthService
	Prompts   PromptManager
	Config    driven.ConfigStore
	Settings  domain.Settings

	// ValidateEmbedding and ValidateLLM check candidate provider settings
	// before they are saved. Optional.
	ValidateEmbedding func(ctx context.Context, s domain.EmbeddingSettings) error
	ValidateLLM       func(ctx context.Context, s domain.LLMSettings) error

	// Close releases the services. Optional.
	Close func() error
}

// ServiceLoader builds the services on first use.
type ServiceLoader func(ctx context.Context) (*Services, error)

var (
	loader ServiceLoader
	loaded *Services

	answerService    driving.AnswerService
	retrievalService driving.RetrievalService
	ingestionService driving.IngestionService
	documentService  driving.DocumentService
	healthService    driving.HealthService
	promptManager    PromptManager
	configStore      driven.ConfigStore
	settings         = domain.DefaultSettings()

	validateEmbedding func(ctx context.Context, s domain.EmbeddingSettings) error
	validateLLM       func(ctx context.Context, s domain.LLMSettings) error
)

// Persistent flags.
var (
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "aksara",
	Short: "Grounded answers about Indonesian business permits",
	Long: `Aksara ingests regulatory sources and answers questions about business
permits (PIRT, halal certification, BPOM) with citations to those sources.

Every answer is grounded in retrieved evidence. When no source supports an
answer, aksara refuses instead of guessing.`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logger.FormatText), "log format: text or json")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServiceLoader registers the function that wires services. It runs
// before any command that needs them.
func SetServiceLoader(l ServiceLoader) {
	loader = l
}

// SetServices installs services directly.
func SetServices(s *Services) {
	loaded = s
	if s == nil {
		s = &Services{Settings: domain.DefaultSettings()}
	}
	answerService = s.Answer
	retrievalService = s.Retrieval
	ingestionService = s.Ingestion
	documentService = s.Documents
	healthService = s.Health
	promptManager = s.Prompts
	configStore = s.Config
	settings = s.Settings
	validateEmbedding = s.ValidateEmbedding
	validateLLM = s.ValidateLLM
}

// Execute runs the root command and releases loaded services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if loaded != nil && loaded.Close != nil {
			if err := loaded.Close(); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	switch logger.Format(logFormat) {
	case logger.FormatText, logger.FormatJSON:
		logger.SetFormat(logger.Format(logFormat))
	default:
		return fmt.Errorf("%w: log format %q", domain.ErrInvalidInput, logFormat)
	}

	if cmd.Annotations[annotationNoServices] == "true" || loader == nil || loaded != nil {
		return nil
	}

	s, err := loader(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(s)
	return nil
}

// errNotConfigured reports a service that the loader did not provide.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}

// ctxOf returns the command context, or Background when run outside Execute.
func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
