package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundUp rounds price up to the next multiple of step, so a rounded
// break-even price is never below the exact one. A non-positive step
// returns price unchanged, as does a non-finite price or step.
func RoundUp(price, step float64) float64 {
	if step <= 0 || !isFinite(price) || !isFinite(step) {
		return price
	}
	p := decimal.NewFromFloat(price)
	st := decimal.NewFromFloat(step)
	out, _ := p.Div(st).Ceil().Mul(st).Float64()
	// Div rounds to DivisionPrecision places, which can land one step short.
	if out < price {
		out, _ = p.Div(st).Ceil().Add(decimal.NewFromInt(1)).Mul(st).Float64()
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
