// Package pricing solves for the break-even (DDP) sale price of an item whose
// fees are themselves percentages of that price.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/metrics"
	"github.com/Veraticus/listwise/internal/model"
)

// Input is one break-even request. Optional fields are pointers; nil means unknown.
type Input struct {
	HSCode        *string  `json:"hs_code,omitempty" yaml:"hs_code,omitempty"`
	OriginCountry *string  `json:"origin_country,omitempty" yaml:"origin_country,omitempty"`
	WeightGrams   *float64 `json:"weight_g,omitempty" yaml:"weight_g,omitempty" validate:"omitempty,gt=0"`
	// FVFRate overrides the default marketplace fee rate.
	FVFRate *float64 `json:"fvf_rate,omitempty" yaml:"fvf_rate,omitempty" validate:"omitempty,gte=0,lt=1"`
	// FixedServiceFee overrides the default per-order service fee.
	FixedServiceFee *float64 `json:"fixed_service_fee,omitempty" yaml:"fixed_service_fee,omitempty" validate:"omitempty,gte=0"`
	SKU             string   `json:"sku,omitempty" yaml:"sku,omitempty"`
	StoreTier       string   `json:"store_tier,omitempty" yaml:"store_tier,omitempty"`
	CostOrigin      float64  `json:"cost_origin" yaml:"cost_origin" validate:"gt=0"`
	ExchangeRate    float64  `json:"exchange_rate" yaml:"exchange_rate" validate:"gt=0"`
}

// Result is a solved break-even price with everything needed to audit it.
type Result struct {
	SKU              string              `json:"sku,omitempty"`
	ConstantsVersion string              `json:"constants_version"`
	Warnings         []string            `json:"warnings,omitempty"`
	Breakdown        model.CostBreakdown `json:"breakdown"`
	Tariff           model.TariffInfo    `json:"tariff"`
	ShippingTier     model.WeightTier    `json:"shipping_tier"`
	BreakEvenPrice   float64             `json:"break_even_price"`
	// RoundedPrice is BreakEvenPrice rounded up to the cent.
	RoundedPrice    float64 `json:"rounded_price"`
	FVFRate         float64 `json:"fvf_rate"`
	Denominator     float64 `json:"denominator"`
	HasCompleteData bool    `json:"has_complete_data"`
}

// Revenue is the buyer-paid DDP price.
func (r *Result) Revenue() float64 {
	return r.BreakEvenPrice
}

// Solver computes break-even prices against injected reference tables.
type Solver struct {
	tariffs    TariffTable
	surcharges SurchargeTable
	shipping   ShippingTable
	recorder   *metrics.Recorder
	constants  config.PricingConstants
}

// NewSolver creates a solver. The constants are copied.
func NewSolver(tariffs TariffTable, surcharges SurchargeTable, shipping ShippingTable, constants config.PricingConstants) *Solver {
	return &Solver{
		tariffs:    tariffs,
		surcharges: surcharges,
		shipping:   shipping,
		constants:  constants,
	}
}

// WithRecorder attaches a metrics recorder.
func (s *Solver) WithRecorder(r *metrics.Recorder) *Solver {
	s.recorder = r
	return s
}

// Constants returns the rate set the solver uses.
func (s *Solver) Constants() config.PricingConstants {
	return s.constants
}

// ComputeBreakEvenPrice solves
//
//	P = (baseCost + S + fixedServiceFee + S·fvf) / (1 − D − fvf)
//
// where D is the effective duty rate. Missing lookup data produces warnings
// and clears HasCompleteData; it never fails the request. A denominator at or
// below epsilon fails with ErrInfeasible.
func (s *Solver) ComputeBreakEvenPrice(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	res, err := s.compute(ctx, in)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, common.ErrInfeasible):
		outcome = metrics.OutcomeInfeasible
	case err != nil:
		outcome = metrics.OutcomeError
	}
	s.recorder.ObserveBreakEven(outcome, res != nil && res.HasCompleteData, time.Since(start))

	return res, err
}

func (s *Solver) compute(ctx context.Context, in Input) (*Result, error) {
	if err := common.ValidateStruct(in); err != nil {
		return nil, err
	}

	res := &Result{
		SKU:              in.SKU,
		ConstantsVersion: s.constants.Version,
		HasCompleteData:  true,
	}

	baseCost := in.CostOrigin / in.ExchangeRate

	tariff, err := s.resolveTariff(ctx, in, res)
	if err != nil {
		return nil, err
	}

	weightKg, err := s.resolveWeight(in, res)
	if err != nil {
		return nil, err
	}
	tier, err := s.resolveShipping(ctx, weightKg, res)
	if err != nil {
		return nil, err
	}

	fvf := s.effectiveFVF(in)
	fee := s.constants.FixedServiceFee
	if in.FixedServiceFee != nil {
		fee = *in.FixedServiceFee
	}

	shipping := tier.FlatRate
	d := tariff.EffectiveFeeRate
	denominator := 1 - d - fvf
	if denominator <= s.constants.Epsilon {
		return nil, &common.InfeasibleError{
			Reason:      fmt.Sprintf("effective fee rate %.4f plus FVF %.4f leaves no margin", d, fvf),
			Denominator: denominator,
		}
	}

	price := (baseCost + shipping + fee + shipping*fvf) / denominator
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return nil, common.NewValidationError("exchange_rate",
			fmt.Sprintf("break-even price is not finite (cost %.4g at rate %.4g, shipping %.4g)", in.CostOrigin, in.ExchangeRate, shipping))
	}

	res.BreakEvenPrice = price
	res.RoundedPrice = RoundUp(price, 0.01)
	res.FVFRate = fvf
	res.Denominator = denominator
	res.Tariff = tariff
	res.ShippingTier = tier
	res.Breakdown = breakdownAt(price, baseCost, shipping, d, fee, fvf)

	if !res.HasCompleteData {
		slog.Debug("Break-even computed with fallback data", "sku", in.SKU, "warnings", len(res.Warnings))
	}
	return res, nil
}

// breakdownAt itemizes Cost(P) = baseCost + S + (P·D + fee) + (P+S)·fvf.
func breakdownAt(price, baseCost, shipping, d, fee, fvf float64) model.CostBreakdown {
	duty := price*d + fee
	marketplace := (price + shipping) * fvf
	return model.CostBreakdown{
		BaseCost:          baseCost,
		ShippingCost:      shipping,
		DutyAndServiceFee: duty,
		MarketplaceFee:    marketplace,
		TotalCost:         baseCost + shipping + duty + marketplace,
	}
}

func (s *Solver) resolveTariff(ctx context.Context, in Input, res *Result) (model.TariffInfo, error) {
	info := model.TariffInfo{}

	hs := ""
	if in.HSCode != nil {
		hs = strings.TrimSpace(*in.HSCode)
	}
	switch {
	case hs == "":
		info.BaseRate = s.constants.FallbackTariffRate
		res.warn("missing HS code: applied fallback base tariff rate %.2f%%", s.constants.FallbackTariffRate*100)
	default:
		info.HSCode = hs
		row, err := s.tariffs.Lookup(ctx, hs)
		switch {
		case err == nil:
			info.BaseRate = row.BaseRate
		case errors.Is(err, common.ErrLookupMiss):
			info.BaseRate = s.constants.FallbackTariffRate
			res.warn("HS code %s not found: applied fallback base tariff rate %.2f%%", hs, s.constants.FallbackTariffRate*100)
		default:
			return info, common.NewDependencyError("tariff table", err)
		}
	}

	origin := ""
	if in.OriginCountry != nil {
		origin = strings.ToUpper(strings.TrimSpace(*in.OriginCountry))
	}
	switch {
	case origin == "":
		res.warn("missing origin country: additional tariff set to 0")
	default:
		info.OriginCountry = origin
		row, err := s.surcharges.Lookup(ctx, origin)
		switch {
		case err == nil:
			info.AdditionalRate = row.AdditionalRate
		case errors.Is(err, common.ErrLookupMiss):
			res.warn("origin country %s not found: additional tariff set to 0", origin)
		default:
			return info, common.NewDependencyError("surcharge table", err)
		}
	}

	info.TotalRate = info.BaseRate + info.AdditionalRate
	info.EffectiveFeeRate = info.TotalRate + s.constants.ProcessingFeeRate + s.constants.RefundOffsetRate
	return info, nil
}

func (s *Solver) resolveWeight(in Input, res *Result) (float64, error) {
	if in.WeightGrams != nil {
		return *in.WeightGrams / 1000, nil
	}
	if s.constants.FallbackWeightGrams <= 0 {
		return 0, common.NewValidationError("weight_g", "weight is required")
	}
	res.warn("missing weight: assumed %.0fg", s.constants.FallbackWeightGrams)
	return s.constants.FallbackWeightGrams / 1000, nil
}

func (s *Solver) resolveShipping(ctx context.Context, weightKg float64, res *Result) (model.WeightTier, error) {
	tier, err := s.shipping.Lookup(ctx, weightKg)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrLookupMiss):
		h, ok := s.shipping.(interface{ Heaviest() (model.WeightTier, bool) })
		if !ok {
			return tier, fmt.Errorf("%w: no weight tier covers %.3fkg", common.ErrMissingConfig, weightKg)
		}
		heaviest, ok := h.Heaviest()
		if !ok {
			return tier, fmt.Errorf("%w: weight tier table is empty", common.ErrMissingConfig)
		}
		if heaviest.MaxWeightKg <= 0 {
			return tier, fmt.Errorf("%w: weight tier %q has non-positive bound %.3fkg", common.ErrInvalidConfig, heaviest.Name, heaviest.MaxWeightKg)
		}
		tier = extrapolateTier(heaviest, weightKg)
		res.warn("weight %.3fkg exceeds every tier: extrapolated to %.3fkg", weightKg, tier.MaxWeightKg)
	default:
		return tier, common.NewDependencyError("shipping table", err)
	}

	if weightKg > 0 && tier.MaxWeightKg > weightKg*s.constants.TierOvershootRatio {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"weight tier %.3fkg exceeds actual weight %.3fkg by more than %.0f%%",
			tier.MaxWeightKg, weightKg, (s.constants.TierOvershootRatio-1)*100))
	}
	return tier, nil
}

func (s *Solver) effectiveFVF(in Input) float64 {
	fvf := s.constants.DefaultFVFRate
	if in.FVFRate != nil {
		fvf = *in.FVFRate
	}
	fvf -= s.constants.StoreDiscount(in.StoreTier)
	if fvf < 0 {
		fvf = 0
	}
	return fvf
}

// warn records a lookup fallback; every such warning marks the result incomplete.
func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	r.HasCompleteData = false
}
