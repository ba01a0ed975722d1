package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui"
)

var askTenant string

// runTUIApp runs the program. Replaced in tests.
var runTUIApp = (*tui.App).Run

var askCmd = &cobra.Command{
	Use:     "ask",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for asking questions and
browsing ingested documents.

Controls:
  Enter    - Ask / Select
  n        - New question
  ↑/k, ↓/j - Move through sources and documents
  Esc      - Back
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return launchTUI(cmd, false)
	},
}

func init() {
	askCmd.Flags().StringVar(&askTenant, "tenant", "", "tenant tag recorded in the query log")
	rootCmd.AddCommand(askCmd)
}

// launchTUI opens the TUI, directly on the ask view when startInAsk is set.
func launchTUI(cmd *cobra.Command, startInAsk bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if err := ensureServices(cmd); err != nil {
		return err
	}

	ports := tui.NewPorts(queryService, documentService)
	ports.Tenant = askTenant
	if queryTenant != "" {
		ports.Tenant = queryTenant
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(commandContext(cmd))
	if startInAsk {
		app.StartInAsk()
	}

	if err := runTUIApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
