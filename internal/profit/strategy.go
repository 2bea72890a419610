package profit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/shopspring/decimal"
)

// Strategy names.
const (
	StrategyFixed      = "fixed"
	StrategyPercentage = "percentage"
	StrategyCompetitor = "competitor"
	StrategyDynamic    = "dynamic"
)

// StrategyInput carries everything a pricing strategy may look at.
// Each strategy reads only the parameters it needs.
type StrategyInput struct {
	Fees             model.MarketplaceFees
	CompetitorPrices []float64
	Cost             float64 `validate:"gte=0"`
	WeightKg         float64 `validate:"gte=0"`
	// MinProfit is the absolute profit every strategy must leave.
	MinProfit    float64 `validate:"gte=0"`
	FixedPrice   float64 `validate:"gte=0"`
	MarkupRate   float64 `validate:"gte=0"`
	Undercut     float64 `validate:"gte=0"`
	TargetMargin float64 `validate:"gte=0,lt=1"`
}

// Strategy is a pure pricing rule. Its price is never below the minimum-profit floor.
type Strategy func(StrategyInput) (float64, error)

// Strategies returns the named strategy set.
func Strategies() map[string]Strategy {
	return map[string]Strategy{
		StrategyFixed:      Fixed,
		StrategyPercentage: Percentage,
		StrategyCompetitor: Competitor,
		StrategyDynamic:    Dynamic,
	}
}

// Lookup returns the strategy registered under name.
func Lookup(name string) (Strategy, error) {
	s, ok := Strategies()[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, 4)
		for n := range Strategies() {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, common.NewValidationError("strategy", fmt.Sprintf("unknown strategy %q (want one of %s)", name, strings.Join(names, ", ")))
	}
	return s, nil
}

// Fixed prices at FixedPrice.
func Fixed(in StrategyInput) (float64, error) {
	return clamp(in, in.FixedPrice)
}

// Percentage prices at cost plus MarkupRate.
func Percentage(in StrategyInput) (float64, error) {
	return clamp(in, in.Cost*(1+in.MarkupRate))
}

// Competitor follows the lowest competitor price less Undercut.
func Competitor(in StrategyInput) (float64, error) {
	lowest, ok := lowestCompetitor(in.CompetitorPrices)
	if !ok {
		return 0, common.NewValidationError("competitor_prices", "competitor strategy needs at least one competitor price")
	}
	return clamp(in, lowest-in.Undercut)
}

// Dynamic targets TargetMargin, then moves up to just under the lowest
// competitor when the market leaves headroom.
func Dynamic(in StrategyInput) (float64, error) {
	price, err := priceForProfit(in, 0, in.TargetMargin)
	if err != nil {
		return 0, err
	}
	if lowest, ok := lowestCompetitor(in.CompetitorPrices); ok && lowest*0.98 > price {
		price = lowest * 0.98
	}
	return clamp(in, price)
}

// Floor is the lowest price that still leaves MinProfit after fees.
func Floor(in StrategyInput) (float64, error) {
	return priceForProfit(in, in.MinProfit, 0)
}

// priceForProfit solves price·(1 − c − p − margin) = cost + ship + fixed + profit.
func priceForProfit(in StrategyInput, profit, margin float64) (float64, error) {
	ship, _ := shippingFor(in.Fees.Shipping, in.WeightKg)
	denom := 1 - in.Fees.CommissionRate - in.Fees.PaymentRate - margin
	if denom <= 0 {
		return 0, &common.InfeasibleError{
			Reason:      fmt.Sprintf("fees and margin on %s consume the whole price", in.Fees.Marketplace),
			Denominator: denom,
		}
	}
	num := decimal.NewFromFloat(in.Cost).
		Add(decimal.NewFromFloat(ship)).
		Add(decimal.NewFromFloat(in.Fees.PaymentFixed)).
		Add(decimal.NewFromFloat(profit))
	price, _ := num.Div(decimal.NewFromFloat(denom)).RoundCeil(2).Float64()
	return price, nil
}

func clamp(in StrategyInput, price float64) (float64, error) {
	if err := common.ValidateStruct(in); err != nil {
		return 0, err
	}
	floor, err := Floor(in)
	if err != nil {
		return 0, err
	}
	if price < floor {
		return floor, nil
	}
	p, _ := decimal.NewFromFloat(price).Round(2).Float64()
	return p, nil
}

// lowestCompetitor ignores non-positive prices.
func lowestCompetitor(prices []float64) (float64, bool) {
	lowest, ok := 0.0, false
	for _, p := range prices {
		if p > 0 && (!ok || p < lowest) {
			lowest, ok = p, true
		}
	}
	return lowest, ok
}
