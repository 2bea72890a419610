package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/metrics"
	"github.com/Veraticus/listwise/internal/pricing"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func breakevenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakeven",
		Short: "Compute the DDP break-even sale price",
		Long: `Solve for the sale price at which revenue exactly covers product cost,
shipping, import duty, processing fees and marketplace fees.

Pass one item with --cost and friends, or a YAML list with --inputs to price a
variant group. The exchange rate comes from --rate or the configured provider.`,
		RunE: runBreakeven,
	}

	cmd.Flags().String("sku", "", "item SKU")
	cmd.Flags().Float64("cost", 0, "product cost in the origin currency")
	cmd.Flags().String("hs", "", "HS code")
	cmd.Flags().String("origin", "", "origin country code")
	cmd.Flags().Float64("weight", 0, "parcel weight in grams")
	cmd.Flags().Float64("fvf", -1, "marketplace fee rate override")
	cmd.Flags().Float64("service-fee", -1, "fixed service fee override")
	cmd.Flags().String("store-tier", "", "store subscription tier")
	cmd.Flags().Float64("rate", 0, "exchange rate (origin currency per target unit); skips the provider")
	cmd.Flags().Float64("round-step", 0, "round the displayed price up to this step")
	cmd.Flags().String("inputs", "", "YAML list of inputs to solve as one variant group")
	cmd.Flags().Bool("json", false, "print the result as JSON")

	return cmd
}

func runBreakeven(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	constants, err := config.LoadPricingConstants()
	if err != nil {
		return common.NewUserError("Invalid pricing constants", err)
	}

	src, err := openReference(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	tables, err := src.pricingTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pricing tables: %w", err)
	}

	recorder := metrics.NewRecorder()
	defer writeMetrics(recorder)
	solver := tables.NewSolver(constants).WithRecorder(recorder)

	staticRate, _ := cmd.Flags().GetFloat64("rate")
	rates, err := newRateProvider(staticRate)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	step, _ := cmd.Flags().GetFloat64("round-step")

	if path, _ := cmd.Flags().GetString("inputs"); path != "" {
		inputs, err := loadPricingInputs(path)
		if err != nil {
			return err
		}
		rate, err := rates.GetRate(ctx)
		if err != nil {
			return common.NewUserError("Could not fetch the exchange rate", common.NewDependencyError("exchange rate", err))
		}
		for i := range inputs {
			if inputs[i].ExchangeRate == 0 {
				inputs[i].ExchangeRate = rate
			}
		}

		opts := pricing.DefaultBatchOptions()
		opts.Workers = viper.GetInt("batch.workers")
		batch, err := solver.ComputeBatch(ctx, inputs, opts)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd, batch)
		}
		return renderPricingBatch(cmd, batch, step)
	}

	in, err := pricingInputFromFlags(cmd)
	if err != nil {
		return err
	}
	res, err := solver.Quote(ctx, rates, in)
	if err != nil {
		return err
	}
	if step > 0 {
		res.RoundedPrice = pricing.RoundUp(res.BreakEvenPrice, step)
	}
	if asJSON {
		return writeJSON(cmd, res)
	}
	return cli.RenderBreakEven(cmd.OutOrStdout(), res)
}

func pricingInputFromFlags(cmd *cobra.Command) (pricing.Input, error) {
	f := cmd.Flags()
	in := pricing.Input{}
	in.SKU, _ = f.GetString("sku")
	in.CostOrigin, _ = f.GetFloat64("cost")
	in.StoreTier, _ = f.GetString("store-tier")

	if in.CostOrigin <= 0 {
		return in, common.NewUserError("--cost must be greater than zero", common.NewValidationError("cost", "must be positive"))
	}
	if hs, _ := f.GetString("hs"); hs != "" {
		in.HSCode = &hs
	}
	if origin, _ := f.GetString("origin"); origin != "" {
		in.OriginCountry = &origin
	}
	if w, _ := f.GetFloat64("weight"); w > 0 {
		in.WeightGrams = &w
	}
	if fvf, _ := f.GetFloat64("fvf"); fvf >= 0 {
		in.FVFRate = &fvf
	}
	if fee, _ := f.GetFloat64("service-fee"); fee >= 0 {
		in.FixedServiceFee = &fee
	}
	return in, nil
}

func loadPricingInputs(path string) ([]pricing.Input, error) {
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	var inputs []pricing.Input
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, common.NewUserError("Inputs file is not a valid YAML list", err)
	}
	if len(inputs) == 0 {
		return nil, common.NewUserError("Inputs file is empty", nil)
	}
	return inputs, nil
}

func renderPricingBatch(cmd *cobra.Command, batch *pricing.BatchResult, step float64) error {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := cli.TableHeader(w, "SKU", "BREAK-EVEN", "STATUS"); err != nil {
		return err
	}
	for _, it := range batch.Items {
		if it.Skipped {
			fmt.Fprintf(w, "%s\t-\t%s\n", it.SKU, cli.StyleWarning("skipped"))
			continue
		}
		if it.Err != nil {
			fmt.Fprintf(w, "%s\t-\t%s\n", it.SKU, cli.StyleError(it.Error))
			continue
		}
		status := cli.StyleSuccess("complete")
		if !it.Result.HasCompleteData {
			status = cli.StyleWarning("incomplete data")
		}
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", it.SKU, pricing.RoundUp(it.Result.BreakEvenPrice, step), status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if batch.Succeeded == 0 {
		fmt.Fprintln(out, cli.FormatError("No input could be priced"))
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Priced: %d  Failed: %d  Skipped: %d\n", batch.Succeeded, batch.Failed, batch.Skipped)
	fmt.Fprintf(out, "Min: %.2f  Max: %.2f  Average: %.2f\n", batch.Min, batch.Max, batch.Average)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Variant group floor: %.2f", pricing.RoundUp(batch.VariantGroupFloor(), step))))
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
