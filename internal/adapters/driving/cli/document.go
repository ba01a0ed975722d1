package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:     "docs",
	Aliases: []string{"documents", "document"},
	Short:   "List ingested documents",
	Long:    `List ingested documents, newest first.`,
	Args:    cobra.NoArgs,
	RunE:    runDocsList,
}

var docsChunksCmd = &cobra.Command{
	Use:   "chunks <doc-id>",
	Short: "Print a document's chunks",
	Long:  `Print the stored chunks of one document in position order.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsChunks,
}

func init() {
	docsCmd.PersistentFlags().BoolVar(&docsJSON, "json", false, "output as JSON")
	docsCmd.AddCommand(docsChunksCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if documentService == nil {
		return errNotConfigured("document")
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsJSON {
		return writeJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPATH\tTENANT\tCREATED")
	for i := range docs {
		d := &docs[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Title, d.SourceType, d.SourcePath, d.Tenant, d.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocsChunks(cmd *cobra.Command, args []string) error {
	docID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || docID <= 0 {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	if err := ensureServices(cmd); err != nil {
		return err
	}
	if documentService == nil {
		return errNotConfigured("document")
	}

	chunks, err := documentService.Chunks(commandContext(cmd), docID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if docsJSON {
		return writeJSON(cmd, chunks)
	}
	if len(chunks) == 0 {
		cmd.Printf("Document %d has no chunks.\n", docID)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, c := range chunks {
		fmt.Fprintf(out, "--- chunk %d (%s)\n%s\n\n", c.Position, c.PointID, c.Text)
	}
	return nil
}
