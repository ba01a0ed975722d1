package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/normalisers"
)

var (
	ingestTitle       string
	ingestType        string
	ingestDescription string
	ingestTags        string
	ingestTenant      string
	ingestJSON        bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document",
	Long: `Extracts text from a PDF, DOCX or TXT file, splits it into chunks,
embeds each chunk and stores the document for question answering.

The type defaults to the file extension and the title to the file name.`,
	Example: `  athena ingest handbook.pdf --title "Employee Handbook"
  athena ingest notes.md --type txt --tags meeting,q3`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (default: file name)")
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "source type: pdf, docx or txt (default: from extension)")
	ingestCmd.Flags().StringVarP(&ingestDescription, "description", "d", "", "free-text description")
	ingestCmd.Flags().StringVar(&ingestTags, "tags", "", "free-text tags")
	ingestCmd.Flags().StringVar(&ingestTenant, "tenant", "", "tenant tag stored with the document")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	req := ingestRequest(args[0])
	result, err := ingestService.Ingest(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return writeJSON(cmd, result)
	}
	cmd.Printf("Ingested %q as document %d (%d chunks)\n", req.Title, result.DocumentID, result.ChunkCount)
	return nil
}

// ingestRequest fills in the type and title the flags left empty.
func ingestRequest(path string) domain.IngestRequest {
	sourceType := strings.TrimSpace(ingestType)
	if sourceType == "" {
		if t, ok := domain.SourceTypeFromExtension(filepath.Ext(path)); ok {
			sourceType = string(t)
		}
	}
	title := strings.TrimSpace(ingestTitle)
	if title == "" {
		title = normalisers.TitleFromPath(path)
	}

	return domain.IngestRequest{
		SourceType:   sourceType,
		Title:        title,
		Description:  ingestDescription,
		Tags:         ingestTags,
		Tenant:       ingestTenant,
		FilePath:     path,
		OriginalName: filepath.Base(path),
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
