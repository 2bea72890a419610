package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Veraticus/listwise/internal/candidate"
	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/metrics"
	"github.com/Veraticus/listwise/internal/strategy"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <items.yaml>",
		Short: "Decide listings for a file of items",
		Long: `Evaluate every item in a YAML or JSON list concurrently. Each decision is
appended to the decision log under one run ID. A failing item is reported and
the batch continues; Ctrl-C stops starting new items.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().Int("workers", 0, "concurrent evaluations (default: batch.workers)")
	cmd.Flags().Float64("rate", 0, "max items started per second (default: batch.rate_per_second)")
	cmd.Flags().Bool("json", false, "print the summary as JSON")
	cmd.Flags().Bool("no-log", false, "do not write decisions to the decision log")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")
	_ = viper.BindPFlag("metrics.textfile", cmd.Flags().Lookup("metrics-file"))

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	items, err := loadItems(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		cmd.Println(cli.FormatInfo("No items to evaluate"))
		return nil
	}

	src, err := openReference(cmd.Context())
	if err != nil {
		return err
	}
	defer src.Close()

	recorder := metrics.NewRecorder()
	engine, err := newEngine(cmd.Context(), src, recorder)
	if err != nil {
		return err
	}

	opts := strategy.DefaultBatchOptions()
	opts.Workers = viper.GetInt("batch.workers")
	opts.RatePerSecond = viper.GetFloat64("batch.rate_per_second")
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		opts.Workers = w
	}
	if r, _ := cmd.Flags().GetFloat64("rate"); r > 0 {
		opts.RatePerSecond = r
	}
	opts.RunID = uuid.NewString()

	noLog, _ := cmd.Flags().GetBool("no-log")
	logDecisions := src.store != nil && !noLog

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), opts.RunID)

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Evaluating"),
		progressbar.OptionClearOnFinish(),
	)

	var (
		mu       sync.Mutex
		logFails int
	)
	opts.Progress = func(res strategy.BatchItemResult) {
		if logDecisions && res.Result != nil {
			if err := src.store.SaveDecision(cmd.Context(), opts.RunID, res.Result); err != nil {
				slog.Warn("failed to log decision", "sku", res.SKU, "error", err)
				mu.Lock()
				logFails++
				mu.Unlock()
			}
		}
		_ = bar.Add(1)
	}

	summary, batchErr := engine.EvaluateBatch(ctx, items, candidate.NewGenerator(src.accounts), opts)
	_ = bar.Finish()
	writeMetrics(recorder)

	if summary == nil {
		return batchErr
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		cmd.Println(summary.GetDisplay())
	} else {
		for _, it := range summary.Items {
			if it.Status == strategy.StatusFailed {
				cmd.Println(cli.FormatError(fmt.Sprintf("%s: %s", it.SKU, it.Reason)))
			}
		}
		if err := cli.RenderBatch(cmd.OutOrStdout(), summary.RunID, summary.Listed, summary.Skipped, summary.Failed); err != nil {
			return err
		}
	}

	if logFails > 0 {
		cmd.Println(cli.FormatWarning(fmt.Sprintf("%d decisions could not be logged", logFails)))
	}
	if handler.WasInterrupted() {
		return nil
	}
	return batchErr
}
