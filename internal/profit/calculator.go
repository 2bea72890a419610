// Package profit computes realized profit for an already-chosen price and
// provides the named pricing strategies that choose that price.
package profit

import (
	"fmt"
	"sort"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/shopspring/decimal"
)

// Margin thresholds for warnings.
const (
	RedFlagMargin = 0.05
	CautionMargin = 0.10
)

// Result is the forward profit of one sale on one marketplace.
// Money values are rounded to the cent.
type Result struct {
	Marketplace string   `json:"marketplace"`
	Warnings    []string `json:"warnings,omitempty"`
	Revenue     float64  `json:"revenue"`
	Commission  float64  `json:"commission"`
	Shipping    float64  `json:"shipping"`
	Payment     float64  `json:"payment"`
	Profit      float64  `json:"profit"`
	Margin      float64  `json:"margin"`
	RedFlag     bool     `json:"red_flag"`
}

// ComputeProfit returns revenue, fees, profit and margin for selling at price.
// Shipping is the smallest tier of the fee table covering weightKg.
func ComputeProfit(price, cost, weightKg float64, fees model.MarketplaceFees) (*Result, error) {
	if err := common.ValidateStruct(fees); err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, common.NewValidationError("price", "must not be negative")
	}
	if cost < 0 {
		return nil, common.NewValidationError("cost", "must not be negative")
	}

	res := &Result{Marketplace: fees.Marketplace}

	shipping, warn := shippingFor(fees.Shipping, weightKg)
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}

	p := decimal.NewFromFloat(price)
	commission := p.Mul(decimal.NewFromFloat(fees.CommissionRate))
	payment := p.Mul(decimal.NewFromFloat(fees.PaymentRate)).Add(decimal.NewFromFloat(fees.PaymentFixed))
	ship := decimal.NewFromFloat(shipping)
	profit := p.Sub(decimal.NewFromFloat(cost)).Sub(commission).Sub(ship).Sub(payment)

	res.Revenue = money(p)
	res.Commission = money(commission)
	res.Shipping = money(ship)
	res.Payment = money(payment)
	res.Profit = money(profit)
	if !p.IsZero() {
		res.Margin, _ = profit.Div(p).Round(4).Float64()
	}

	switch {
	case res.Margin < RedFlagMargin:
		res.RedFlag = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("red flag: margin %.1f%% below %.0f%%", res.Margin*100, RedFlagMargin*100))
	case res.Margin < CautionMargin:
		res.Warnings = append(res.Warnings, fmt.Sprintf("caution: margin %.1f%% below %.0f%%", res.Margin*100, CautionMargin*100))
	}
	return res, nil
}

// CompareMarketplaces computes profit on every marketplace and ranks them by
// profit descending, then by name. Marketplaces whose fee table is invalid are skipped.
func CompareMarketplaces(price, cost, weightKg float64, markets []model.MarketplaceFees) ([]Result, error) {
	out := make([]Result, 0, len(markets))
	var firstErr error
	for _, m := range markets {
		res, err := ComputeProfit(price, cost, weightKg, m)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("marketplace %s: %w", m.Marketplace, err)
			}
			continue
		}
		out = append(out, *res)
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].Marketplace < out[j].Marketplace
	})
	return out, nil
}

// shippingFor picks the smallest tier covering weightKg. Past the last tier
// it charges the last tier's rate and says so.
func shippingFor(tiers []model.WeightTier, weightKg float64) (float64, string) {
	if len(tiers) == 0 {
		return 0, ""
	}
	sorted := append([]model.WeightTier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MaxWeightKg < sorted[j].MaxWeightKg })
	for _, t := range sorted {
		if t.MaxWeightKg >= weightKg {
			return t.FlatRate, ""
		}
	}
	last := sorted[len(sorted)-1]
	return last.FlatRate, fmt.Sprintf("weight %.3fkg exceeds shipping schedule; charged %.3fkg tier", weightKg, last.MaxWeightKg)
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
