package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/athena/internal/core/domain"
)

var (
	queryTenant string
	queryJSON   bool
)

// isTerminal reports whether stdin is interactive. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var queryCmd = &cobra.Command{
	Use:     "query [question...]",
	Aliases: []string{"q"},
	Short:   "Answer a question from ingested documents",
	Long: `Embeds the question, retrieves the most similar chunks and asks the
language model to answer using only that context.

With no question on an interactive terminal the ask TUI opens instead.`,
	Example: `  athena query "What is the refund window?"
  athena query --json what changed in release 2.3`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryTenant, "tenant", "", "tenant tag recorded in the query log")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		if !queryJSON && isTerminal() {
			return launchTUI(cmd, true)
		}
		return errors.New("a question is required")
	}

	if err := ensureServices(cmd); err != nil {
		return err
	}
	if queryService == nil {
		return errNotConfigured("query")
	}

	answer, err := queryService.Answer(commandContext(cmd), question, queryTenant)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return writeJSON(cmd, answer)
	}
	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Answer)
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for i, s := range answer.Sources {
		fmt.Fprintf(out, "  [%d] %s (%s, %s)\n", i+1, s.Title, s.SourceType, s.SourcePath)
	}
}
