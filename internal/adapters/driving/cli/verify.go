package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// ErrInconsistent is returned by verify when orphaned chunks were found
// and not repaired.
var ErrInconsistent = errors.New("metadata and vector index are inconsistent")

var (
	verifyRepair bool
	verifyJSON   bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every chunk has a vector",
	Long: `Compares chunk rows in the metadata store with points in the vector index
and lists chunks whose vector is missing, for example after an ingestion
whose vector write failed.

With --repair the orphaned chunks are re-embedded and written back under
their original point IDs.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyRepair, "repair", false, "re-embed and restore missing vectors")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if reconcileService == nil {
		return errNotConfigured("reconcile")
	}

	ctx := commandContext(cmd)
	var (
		report *domain.ReconcileReport
		err    error
	)
	if verifyRepair {
		report, err = reconcileService.Repair(ctx)
	} else {
		report, err = reconcileService.Verify(ctx)
	}
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if verifyJSON {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printReport(cmd, report)
	}

	if !report.Consistent() && report.Repaired < len(report.Orphans) {
		return fmt.Errorf("%w: %d orphaned chunks", ErrInconsistent, len(report.Orphans)-report.Repaired)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.ReconcileReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checked %d documents, %d chunks\n", report.DocumentsChecked, report.ChunksChecked)

	if report.Consistent() {
		fmt.Fprintln(out, "All chunks have vectors.")
		return
	}

	fmt.Fprintf(out, "Orphaned chunks: %d\n", len(report.Orphans))
	for _, o := range report.Orphans {
		fmt.Fprintf(out, "  document %d  chunk %d  position %d  point %s\n",
			o.DocumentID, o.ChunkID, o.Position, o.PointID)
	}
	if report.Repaired > 0 {
		fmt.Fprintf(out, "Repaired: %d\n", report.Repaired)
	} else {
		fmt.Fprintln(out, "Run 'athena verify --repair' to restore them.")
	}
}
