package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/adapters/driving/watch"
)

var (
	watchTenant   string
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest files as they appear in a directory",
	Long: `Watch a directory and ingest every new or changed .pdf, .docx and .txt
file once it stops changing. The title is the file name without its
extension. Hidden and editor temporary files are ignored.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchTenant, "tenant", "", "tenant tag stored with each document")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the directory")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	out := cmd.OutOrStdout()
	w := watch.New(args[0], ingestService,
		watch.WithTenant(watchTenant),
		watch.WithSettle(watchSettle),
		watch.WithExisting(watchExisting),
		watch.WithResults(func(r watch.Result) {
			switch {
			case r.Err == nil:
				fmt.Fprintf(out, "ingested %s -> document %d (%d chunks)\n", r.Path, r.DocumentID, r.ChunkCount)
			case errors.Is(r.Err, watch.ErrUnchanged):
			default:
				fmt.Fprintf(out, "failed %s: %v\n", r.Path, r.Err)
			}
		}),
	)

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(commandContext(cmd))
}
