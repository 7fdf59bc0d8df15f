package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

var (
	searchPermitType string
	searchRegion     string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored regulatory text",
	Long: `Performs hybrid retrieval across all ingested sources.
Combines substring matching with semantic (vector) search, then reranks the
candidates with the language model when one is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchPermitType, "permit-type", "", "restrict results to a permit type")
	searchCmd.Flags().StringVar(&searchRegion, "region", domain.DefaultRegion, "restrict results to a region (empty for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResultJSON is the JSON shape of one retrieved chunk.
type searchResultJSON struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Section    string  `json:"section"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNotConfigured("retrieval")
	}

	filters := domain.Filters{PermitType: searchPermitType, Region: searchRegion}
	results, err := retrievalService.Search(ctxOf(cmd), args[0], filters)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			URL:        r.Metadata.SourceURL,
			Title:      r.Metadata.Title(),
			Section:    r.Metadata.Section,
			Score:      r.Score,
			Text:       r.Text,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.Metadata.Title(), r.Score)
		if r.Metadata.Section != "" {
			cmd.Printf("      Section: %s\n", r.Metadata.Section)
		}
		cmd.Printf("      %s\n", snippet(r.Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
