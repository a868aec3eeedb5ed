package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/batch"
	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/ingest"
	"github.com/sells-group/lca-cli/internal/model"
)

var (
	runOutput      string
	runConcurrency int
	runTimeout     time.Duration
	runNoSave      bool
	runMethod      string
)

var runCmd = &cobra.Command{
	Use:   "run <industry> <file>",
	Short: "Validate a batch and calculate impacts for every valid product",
	Long: `Reads a CSV or XLSX batch, validates every row, then builds inventories
and calculates impacts concurrently. The batch report is written as JSON and
saved to the report database unless --no-save is set.`,
	Example: `  lca run textile products.csv --output report.json
  lca run battery packs.xlsx --concurrency 4 --timeout 10s
  lca run footwear shoes.csv --method recipe`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		method, err := runMethodFor(runMethod, cfg.Batch.Method)
		if err != nil {
			return err
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		tbl, err := ingest.ReadFile(args[1])
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		src, closeSrc, err := buildSource(ctx, cfg.Factors, st)
		if err != nil {
			return err
		}
		defer closeSrc()

		bc := batch.Config{
			MaxConcurrentProducts: cfg.Batch.MaxConcurrentProducts,
			ProductTimeout:        time.Duration(cfg.Batch.ProductTimeoutSecs) * time.Second,
			Prewarm:               cfg.Batch.Prewarm,
			PrewarmConcurrency:    cfg.Batch.PrewarmConcurrency,
			Method:                method,
		}
		if runConcurrency > 0 {
			bc.MaxConcurrentProducts = runConcurrency
		}
		if runTimeout > 0 {
			bc.ProductTimeout = runTimeout
		}

		var opts []batch.Option
		if !runNoSave {
			opts = append(opts, batch.WithRecorder(st))
		}
		cache := factor.NewCache(src)
		runner := batch.NewRunner(reg, cache, bc, opts...)

		report, err := runner.Run(ctx, args[0], tbl.Headers, tbl.Records)
		if report == nil {
			return err
		}
		if err != nil {
			zap.L().Error("run: report not saved", zap.Error(err))
		}

		stats := cache.Stats()
		zap.L().Info("run: factor cache",
			zap.Int("entries", stats.Entries),
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int64("fallbacks", stats.Fallbacks),
		)

		if werr := writeJSON(runOutput, report); werr != nil {
			return werr
		}
		printRunSummary(report)
		return err
	},
}

// runMethodFor prefers the --method flag over the configured method.
func runMethodFor(flag, configured string) (model.Method, error) {
	if flag != "" {
		return model.ParseMethod(flag)
	}
	return model.ParseMethod(configured)
}

func printRunSummary(r *model.BatchReport) {
	fmt.Fprintf(os.Stderr, "batch %s (%s, %s): %d products, %d succeeded, %d failed in %.2fs\n",
		r.BatchID, r.Industry, r.Method, r.TotalProducts, r.Successful, r.Failed, r.ProcessingTimeSeconds)
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the JSON report to this file")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "max products calculated at once (default from config)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-product deadline (default from config)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "do not store the report")
	runCmd.Flags().StringVar(&runMethod, "method", "", "impact assessment method, EF3.1 or ReCiPe (default from config)")
	rootCmd.AddCommand(runCmd)
}
