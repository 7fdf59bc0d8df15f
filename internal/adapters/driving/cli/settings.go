package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aksara-legal/aksara/internal/adapters/driven/config/file"
	"github.com/aksara-legal/aksara/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and configure settings",
	Long: `Shows the effective settings after merging config.toml, .env and the
environment, and configures the AI providers interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long:  `Configure the provider used to embed chunks and queries for semantic retrieval.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider",
	Long:  `Configure the provider used to rerank evidence and draft answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s := settings

	cmd.Println("Current Settings")
	cmd.Println("================")
	if configStore != nil {
		cmd.Printf("Config file: %s\n", configStore.Path())
	}
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", s.Store.Backend)
	if s.Store.Backend == domain.StoreBackendPostgres {
		cmd.Printf("  Database URL: %s\n", maskDSN(s.Store.DatabaseURL))
	} else {
		cmd.Printf("  Data dir: %s\n", s.Store.DataDir)
	}
	cmd.Printf("  Vector dim: %d\n", s.VectorDim)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey,
		s.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Candidates per branch: %d\n", s.Retrieval.CandidateLimit)
	cmd.Printf("  Final evidence: %d\n", s.Retrieval.FinalLimit)
	cmd.Printf("  Chunk window/overlap: %d/%d words\n", s.Chunking.WindowSize, s.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Timeouts]")
	cmd.Printf("  Request: %s\n", s.Timeouts.Request)
	cmd.Printf("  LLM: %s\n", s.Timeouts.LLM)
	cmd.Printf("  Max retries: %d\n", s.Timeouts.MaxRetries)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Port: %d\n", s.Server.Port)
	if s.Server.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.Server.APIKey))
	} else {
		cmd.Println("  API Key: (not set, API is open)")
	}
	cmd.Printf("  Rate limit: %d burst, %.2f/s\n", s.Server.RateLimitCapacity, s.Server.RateLimitRefill)

	if err := s.Validate(); err != nil {
		cmd.Printf("\nProblems:\n  %s\n", strings.ReplaceAll(err.Error(), "\n", "\n  "))
	}
	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errNotConfigured("config")
	}
	reader := bufio.NewReader(cmd.InOrStdin())

	provider, model, apiKey, err := chooseProvider(cmd, reader, "Embedding",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}

	candidate := domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	if validateEmbedding != nil {
		cmd.Print("Validating configuration... ")
		if err := validateEmbedding(ctxOf(cmd), candidate); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	if err := setAll(map[string]any{
		file.KeyEmbeddingProvider: provider.String(),
		file.KeyEmbeddingModel:    model,
		file.KeyEmbeddingAPIKey:   apiKey,
	}); err != nil {
		return fmt.Errorf("failed to save embedding provider: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	if dim, ok := domain.EmbeddingDimensions()[model]; ok && dim != settings.VectorDim {
		cmd.Printf("Vector dimension changes from %d to %d; re-ingest sources to rebuild embeddings.\n",
			settings.VectorDim, dim)
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errNotConfigured("config")
	}
	reader := bufio.NewReader(cmd.InOrStdin())

	provider, model, apiKey, err := chooseProvider(cmd, reader, "LLM",
		domain.AllLLMProviders(), domain.DefaultLLMModels())
	if err != nil {
		return err
	}

	candidate := domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	if validateLLM != nil {
		cmd.Print("Validating configuration... ")
		if err := validateLLM(ctxOf(cmd), candidate); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	if err := setAll(map[string]any{
		file.KeyLLMProvider: provider.String(),
		file.KeyLLMModel:    model,
		file.KeyLLMAPIKey:   apiKey,
	}); err != nil {
		return fmt.Errorf("failed to save LLM provider: %w", err)
	}

	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

// chooseProvider prompts for a provider, model and, when needed, an API key.
func chooseProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	label string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, string, error) {
	cmd.Printf("Select %s Provider\n", label)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}
	return provider, model, apiKey, nil
}

func setAll(values map[string]any) error {
	for key, v := range values {
		if err := configStore.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when input is the terminal, otherwise from reader.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a database URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return dsn[:scheme+3] + user + ":****" + dsn[at:]
	}
	return dsn
}
