package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/profit"
	"github.com/spf13/cobra"
)

func profitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profit",
		Short: "Compare profit across marketplaces",
		Long: `Compute revenue, fees, profit and margin of selling one item on every
configured marketplace. Give a price with --price, or let a pricing strategy
choose one per marketplace with --strategy (fixed, percentage, competitor,
dynamic). Strategies never go below the --min-profit floor.`,
		RunE: runProfit,
	}

	cmd.Flags().Float64("price", 0, "sale price")
	cmd.Flags().String("strategy", "", "pricing strategy to choose the price")
	cmd.Flags().Float64("cost", 0, "landed cost of the item")
	cmd.Flags().Float64("weight", 0, "parcel weight in kg")
	cmd.Flags().StringSlice("marketplace", nil, "only these marketplaces")
	cmd.Flags().Float64Slice("competitor", nil, "competitor prices")
	cmd.Flags().Float64("min-profit", 0, "minimum absolute profit")
	cmd.Flags().Float64("fixed-price", 0, "price for the fixed strategy")
	cmd.Flags().Float64("markup", 0, "markup rate for the percentage strategy")
	cmd.Flags().Float64("undercut", 0, "amount below the lowest competitor")
	cmd.Flags().Float64("target-margin", 0, "target margin for the dynamic strategy")
	cmd.Flags().Bool("json", false, "print results as JSON")

	return cmd
}

func runProfit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()

	price, _ := f.GetFloat64("price")
	strategyName, _ := f.GetString("strategy")
	if (price > 0) == (strategyName != "") {
		return common.NewUserError("Pass exactly one of --price or --strategy", common.ErrValidation)
	}

	src, err := openReference(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	markets, err := src.marketplaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load marketplaces: %w", err)
	}
	only, _ := f.GetStringSlice("marketplace")
	markets = filterMarketplaces(markets, only)
	if len(markets) == 0 {
		return common.NewUserError("No marketplace fee tables configured", nil)
	}

	cost, _ := f.GetFloat64("cost")
	weight, _ := f.GetFloat64("weight")

	var results []profit.Result
	if strategyName != "" {
		results, err = strategyProfits(cmd, strategyName, cost, weight, markets)
	} else {
		results, err = profit.CompareMarketplaces(price, cost, weight, markets)
	}
	if err != nil {
		return err
	}

	if asJSON, _ := f.GetBool("json"); asJSON {
		return writeJSON(cmd, results)
	}
	return cli.RenderProfit(cmd.OutOrStdout(), results)
}

// strategyProfits prices each marketplace with the named strategy, then
// ranks like CompareMarketplaces.
func strategyProfits(cmd *cobra.Command, name string, cost, weight float64, markets []model.MarketplaceFees) ([]profit.Result, error) {
	strat, err := profit.Lookup(name)
	if err != nil {
		return nil, common.NewUserError(err.Error(), err)
	}

	f := cmd.Flags()
	base := profit.StrategyInput{Cost: cost, WeightKg: weight}
	base.CompetitorPrices, _ = f.GetFloat64Slice("competitor")
	base.MinProfit, _ = f.GetFloat64("min-profit")
	base.FixedPrice, _ = f.GetFloat64("fixed-price")
	base.MarkupRate, _ = f.GetFloat64("markup")
	base.Undercut, _ = f.GetFloat64("undercut")
	base.TargetMargin, _ = f.GetFloat64("target-margin")

	out := make([]profit.Result, 0, len(markets))
	for _, m := range markets {
		in := base
		in.Fees = m
		price, err := strat(in)
		if err != nil {
			return nil, fmt.Errorf("marketplace %s: %w", m.Marketplace, err)
		}
		res, err := profit.ComputeProfit(price, cost, weight, m)
		if err != nil {
			return nil, fmt.Errorf("marketplace %s: %w", m.Marketplace, err)
		}
		out = append(out, *res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].Marketplace < out[j].Marketplace
	})
	return out, nil
}

func filterMarketplaces(markets []model.MarketplaceFees, only []string) []model.MarketplaceFees {
	if len(only) == 0 {
		return markets
	}
	var out []model.MarketplaceFees
	for _, m := range markets {
		for _, name := range only {
			if strings.EqualFold(m.Marketplace, name) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
