package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the store and AI providers",
	Long: `Reports whether the store is reachable and holds chunks, and whether the
embedding and LLM providers answer. Exits non-zero unless everything is ok.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	Status    string            `json:"status"`
	DB        string            `json:"db"`
	RAG       string            `json:"rag"`
	Embedding string            `json:"embedding"`
	LLM       string            `json:"llm"`
	Chunks    int               `json:"chunks"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return errNotConfigured("health")
	}

	report := healthService.Check(ctxOf(cmd))

	if statusJSON {
		data, err := json.MarshalIndent(statusOutput(report), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Printf("Status:    %s\n", report.Status)
		cmd.Printf("  Store:     %s\n", report.DB)
		cmd.Printf("  Corpus:    %s (%d chunks)\n", report.RAG, report.Chunks)
		cmd.Printf("  Embedding: %s\n", report.Embedding)
		cmd.Printf("  LLM:       %s\n", report.LLM)
		for _, name := range slices.Sorted(maps.Keys(report.Errors)) {
			cmd.Printf("  %s error: %s\n", name, report.Errors[name])
		}
	}

	if report.Status != driving.StatusOK {
		return fmt.Errorf("status %s", report.Status)
	}
	return nil
}
