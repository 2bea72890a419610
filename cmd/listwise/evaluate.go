package main

import (
	"fmt"

	"github.com/Veraticus/listwise/internal/candidate"
	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/spf13/cobra"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Decide where one item should be listed",
		Long: `Run one item through the listing pipeline: platform rules and locks,
user strategy, then scoring. Prints the recommendation and why every other
candidate was excluded.

Example:
  listwise evaluate --sku W-1 --category Watches --condition new \
    --hs 9102.11 --price 30000 --score 80 --stock 3`,
		RunE: runEvaluate,
	}

	cmd.Flags().String("sku", "", "item SKU (required)")
	cmd.Flags().String("category", "", "item category")
	cmd.Flags().String("condition", "New", "item condition (new, used, refurbished)")
	cmd.Flags().String("hs", "", "HS code")
	cmd.Flags().Float64("price", 0, "item price in JPY")
	cmd.Flags().Float64("score", 0, "global score")
	cmd.Flags().Int("stock", 0, "stock quantity")
	cmd.Flags().StringSlice("channels", nil, "restrict to these sales channels")
	cmd.Flags().Bool("json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("sku")

	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	item, err := itemFromFlags(cmd)
	if err != nil {
		return err
	}

	src, err := openReference(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	engine, err := newEngine(ctx, src, nil)
	if err != nil {
		return err
	}

	cands, err := candidate.NewGenerator(src.accounts).Generate(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to generate candidates: %w", err)
	}
	if len(cands) == 0 {
		return common.NewUserError("No active accounts match this item; run 'listwise seed' first", nil)
	}

	result, err := engine.EvaluateListingStrategy(ctx, item, cands)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, result)
	}
	return cli.RenderDecision(cmd.OutOrStdout(), result)
}

func itemFromFlags(cmd *cobra.Command) (model.Item, error) {
	f := cmd.Flags()
	sku, _ := f.GetString("sku")
	category, _ := f.GetString("category")
	condition, _ := f.GetString("condition")
	hs, _ := f.GetString("hs")
	price, _ := f.GetFloat64("price")
	score, _ := f.GetFloat64("score")
	stock, _ := f.GetInt("stock")
	channels, _ := f.GetStringSlice("channels")

	item := model.Item{
		SKU:           sku,
		Category:      category,
		Condition:     model.ParseCondition(condition),
		Price:         price,
		GlobalScore:   score,
		StockQuantity: stock,
		Channels:      channels,
	}
	if hs != "" {
		item.HSCode = &hs
	}
	if err := common.ValidateStruct(item); err != nil {
		return item, common.NewUserError("Invalid item", err)
	}
	return item, nil
}
