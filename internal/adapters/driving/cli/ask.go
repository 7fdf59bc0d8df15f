package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aksara-legal/aksara/internal/adapters/driving/httpapi"
	"github.com/aksara-legal/aksara/internal/core/domain"
)

var (
	askPermitType string
	askRegion     string
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and get a cited answer",
	Long: `Retrieves evidence for the question, drafts an answer from it and lists
the sources it relied on.

If nothing relevant is stored, or the draft cannot be tied to a source, the
answer is a fixed refusal with no citations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askPermitType, "permit-type", "", "restrict evidence to a permit type")
	askCmd.Flags().StringVar(&askRegion, "region", domain.DefaultRegion, "restrict evidence to a region (empty for all)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errNotConfigured("answer")
	}

	question := domain.Question{
		Text: strings.Join(args, " "),
		Filters: domain.Filters{
			PermitType: askPermitType,
			Region:     askRegion,
		},
	}

	answer, err := answerService.Answer(ctxOf(cmd), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(httpapi.NewAnswerResponse(answer), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Markdown)
	if answer.Refused() {
		return nil
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, c := range answer.Citations {
		cmd.Printf("  [%d] %s", i+1, c.Title)
		if c.Section != "" {
			cmd.Printf(" (%s)", c.Section)
		}
		cmd.Printf("\n      %s\n", c.URL)
	}
	if answer.Retrieval.LatestVersionDate != "" {
		cmd.Printf("\nLatest regulation version: %s\n", answer.Retrieval.LatestVersionDate)
	}
	return nil
}
