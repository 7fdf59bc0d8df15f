package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and reload LLM prompts",
	Long: `Prompts live as editable files in the prompt directory. A PROMPTS.md file
with "## name" sections takes precedence over the individual .txt files, and
built-in defaults fill any gaps.`,
}

var promptsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the prompt directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if promptManager == nil {
			return errNotConfigured("prompt")
		}
		cmd.Println(promptManager.Dir())
		return nil
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print the effective prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptManager == nil {
			return errNotConfigured("prompt")
		}
		prompt, err := promptManager.Load(args[0])
		if err != nil {
			return fmt.Errorf("load prompt: %w", err)
		}
		cmd.Println(prompt)
		return nil
	},
}

var promptsReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload prompts from disk and report what was loaded",
	Args:  cobra.NoArgs,
	RunE:  runPromptsReload,
}

func init() {
	promptsCmd.AddCommand(promptsPathCmd)
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsReloadCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsReload(cmd *cobra.Command, _ []string) error {
	if promptManager == nil {
		return errNotConfigured("prompt")
	}

	promptManager.Reload()
	for _, name := range promptManager.Names() {
		prompt, err := promptManager.Load(name)
		if err != nil {
			return fmt.Errorf("load prompt %s: %w", name, err)
		}
		cmd.Printf("  %-16s %d chars\n", name, utf8.RuneCountInString(prompt))
	}
	cmd.Printf("Reloaded prompts from %s\n", promptManager.Dir())
	return nil
}
