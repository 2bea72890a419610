package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/spf13/cobra"
)

func decisionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show logged listing decisions",
		Long: `Show decisions from the decision log, either every decision of one batch
run (--run) or the most recent decisions for one SKU (--sku).`,
		RunE: runDecisions,
	}

	cmd.Flags().String("run", "", "batch run ID")
	cmd.Flags().String("sku", "", "item SKU")
	cmd.Flags().Int("limit", 20, "max decisions to show for --sku")
	cmd.Flags().Bool("json", false, "print decisions as JSON")

	return cmd
}

func runDecisions(cmd *cobra.Command, _ []string) error {
	runID, _ := cmd.Flags().GetString("run")
	sku, _ := cmd.Flags().GetString("sku")
	limit, _ := cmd.Flags().GetInt("limit")
	if (runID == "") == (sku == "") {
		return common.NewUserError("Pass exactly one of --run or --sku", common.ErrValidation)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var records []model.DecisionRecord
	if runID != "" {
		records, err = store.ListDecisions(ctx, runID)
	} else {
		records, err = store.DecisionHistory(ctx, sku, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to load decisions: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println(cli.FormatInfo("No decisions logged"))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if err := cli.TableHeader(w, "DECIDED", "SKU", "TARGET", "REASON", "RUN"); err != nil {
		return err
	}
	for _, r := range records {
		target := cli.StyleWarning(cli.SkipIcon + " not listed")
		if r.ShouldList && r.Target != nil {
			target = cli.StyleSuccess(r.Target.Key())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.DecidedAt.Local().Format(time.DateTime), r.SKU, target, r.Reason, r.RunID)
	}
	return w.Flush()
}
