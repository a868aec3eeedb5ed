package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/store"
)

var (
	batchesIndustry string
	batchesLimit    int
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Inspect saved batch reports",
}

var batchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved batches, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		batches, err := st.ListBatches(ctx, store.BatchFilter{
			Industry: batchesIndustry,
			Limit:    batchesLimit,
		})
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Println("No batches found.")
			return nil
		}
		formatBatchesList(os.Stdout, batches)
		return nil
	},
}

var batchesShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Print a saved batch report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := st.GetBatch(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON("", report)
	},
}

func formatBatchesList(out io.Writer, batches []store.BatchSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BATCH\tINDUSTRY\tPRODUCTS\tOK\tFAILED\tSECONDS\tSTARTED")
	for _, b := range batches {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.2f\t%s\n",
			truncateID(b.BatchID),
			b.Industry,
			b.TotalProducts,
			b.Successful,
			b.Failed,
			b.ProcessingTimeSeconds,
			b.StartedAt.Format("2006-01-02 15:04:05"),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	batchesListCmd.Flags().StringVar(&batchesIndustry, "industry", "", "filter by industry")
	batchesListCmd.Flags().IntVar(&batchesLimit, "limit", 20, "max batches to list (0 for all)")
	batchesCmd.AddCommand(batchesListCmd, batchesShowCmd)
	rootCmd.AddCommand(batchesCmd)
}
