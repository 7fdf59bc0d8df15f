package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aksara-legal/aksara/internal/adapters/driving/httpapi"
	"github.com/aksara-legal/aksara/internal/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the question answering, ingestion and document endpoints over HTTP.

Routes:
  GET    /v1/health
  POST   /v1/qa/query
  POST   /v1/ingest/upsert
  GET    /v1/documents
  GET    /v1/documents/{id}
  DELETE /v1/documents/{id}

When server.api_key is configured every route except /v1/health requires
"Authorization: Bearer <key>". Logs default to JSON unless --log-format is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("log-format") {
		logger.SetFormat(logger.FormatJSON)
	}

	server, err := httpapi.NewServer(httpapi.Ports{
		Answer:    answerService,
		Ingestion: ingestionService,
		Documents: documentService,
		Health:    healthService,
	}, httpapi.ConfigFromSettings(settings.Server), logger.Slog())
	if err != nil {
		return err
	}

	ctx := ctxOf(cmd)
	if promptManager != nil {
		go func() {
			if err := promptManager.Watch(ctx); err != nil {
				logger.Warn("prompt watcher stopped: %v", err)
			}
		}()
	}

	port := settings.Server.Port
	if servePort > 0 {
		port = servePort
	}
	return server.Run(ctx, fmt.Sprintf(":%d", port))
}
