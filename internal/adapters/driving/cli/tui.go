package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aksara-legal/aksara/internal/adapters/driving/tui"
)

var errNoTerminal = errors.New("tui requires an interactive terminal")

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

The TUI lets you ask grounded questions, browse ranked evidence and manage
ingested documents with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate or scroll
  Enter    - Submit / Select
  Ctrl+R   - Toggle region filter
  Esc      - Back
  Ctrl+C   - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("tui panic: %v", r)
		}
	}()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	app, err := tui.NewApp(&tui.Ports{
		Answer:    answerService,
		Retrieval: retrievalService,
		Documents: documentService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(ctxOf(cmd)).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
