package config

import (
	"fmt"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/spf13/viper"
)

// PricingConstantsVersion identifies the default rate set. Bump it whenever a default changes.
const PricingConstantsVersion = "2025.10-1"

// PricingConstants holds every fallback and fixed rate used by the pricing solver.
// Rates are fractions (0.05 == 5%).
type PricingConstants struct {
	StoreTierDiscounts  map[string]float64 `mapstructure:"store_tier_discounts" yaml:"store_tier_discounts"`
	Version             string             `mapstructure:"version" yaml:"version"`
	FallbackTariffRate  float64            `mapstructure:"fallback_tariff_rate" yaml:"fallback_tariff_rate"`
	ProcessingFeeRate   float64            `mapstructure:"processing_fee_rate" yaml:"processing_fee_rate"`
	RefundOffsetRate    float64            `mapstructure:"refund_offset_rate" yaml:"refund_offset_rate"`
	DefaultFVFRate      float64            `mapstructure:"default_fvf_rate" yaml:"default_fvf_rate"`
	FixedServiceFee     float64            `mapstructure:"fixed_service_fee" yaml:"fixed_service_fee"`
	Epsilon             float64            `mapstructure:"epsilon" yaml:"epsilon"`
	TierOvershootRatio  float64            `mapstructure:"tier_overshoot_ratio" yaml:"tier_overshoot_ratio"`
	// FallbackWeightGrams is used when an item has no weight. Zero makes weight required.
	FallbackWeightGrams float64            `mapstructure:"fallback_weight_grams" yaml:"fallback_weight_grams"`
}

// DefaultPricingConstants returns the current default rate set.
func DefaultPricingConstants() PricingConstants {
	return PricingConstants{
		Version:            PricingConstantsVersion,
		FallbackTariffRate: 0.05,
		ProcessingFeeRate:  0.003464,
		RefundOffsetRate:   0.08,
		DefaultFVFRate:     0.1315,
		FixedServiceFee:    15,
		Epsilon:            0.001,
		TierOvershootRatio: 1.5,
		StoreTierDiscounts: map[string]float64{
			"none":    0,
			"basic":   0.04,
			"premium": 0.06,
			"anchor":  0.08,
		},
	}
}

// Validate checks that every rate is in a usable range.
func (c PricingConstants) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: pricing.version is required", common.ErrInvalidConfig)
	}
	rates := map[string]float64{
		"fallback_tariff_rate": c.FallbackTariffRate,
		"processing_fee_rate":  c.ProcessingFeeRate,
		"refund_offset_rate":   c.RefundOffsetRate,
		"default_fvf_rate":     c.DefaultFVFRate,
	}
	for name, r := range rates {
		if r < 0 || r >= 1 {
			return fmt.Errorf("%w: pricing.%s must be in [0,1), got %v", common.ErrInvalidConfig, name, r)
		}
	}
	if c.FixedServiceFee < 0 {
		return fmt.Errorf("%w: pricing.fixed_service_fee must not be negative", common.ErrInvalidConfig)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("%w: pricing.epsilon must be positive", common.ErrInvalidConfig)
	}
	if c.FallbackWeightGrams < 0 {
		return fmt.Errorf("%w: pricing.fallback_weight_grams must not be negative", common.ErrInvalidConfig)
	}
	if c.TierOvershootRatio < 1 {
		return fmt.Errorf("%w: pricing.tier_overshoot_ratio must be >= 1", common.ErrInvalidConfig)
	}
	return nil
}

// StoreDiscount returns the FVF discount for a store tier. Unknown tiers get none.
func (c PricingConstants) StoreDiscount(tier string) float64 {
	if tier == "" {
		return 0
	}
	return c.StoreTierDiscounts[tier]
}

// LoadPricingConstants loads pricing constants from Viper, falling back to defaults
// for every key that is not set.
func LoadPricingConstants() (PricingConstants, error) {
	c := DefaultPricingConstants()

	if viper.IsSet("pricing.version") {
		c.Version = viper.GetString("pricing.version")
	}
	if viper.IsSet("pricing.fallback_tariff_rate") {
		c.FallbackTariffRate = viper.GetFloat64("pricing.fallback_tariff_rate")
	}
	if viper.IsSet("pricing.processing_fee_rate") {
		c.ProcessingFeeRate = viper.GetFloat64("pricing.processing_fee_rate")
	}
	if viper.IsSet("pricing.refund_offset_rate") {
		c.RefundOffsetRate = viper.GetFloat64("pricing.refund_offset_rate")
	}
	if viper.IsSet("pricing.default_fvf_rate") {
		c.DefaultFVFRate = viper.GetFloat64("pricing.default_fvf_rate")
	}
	if viper.IsSet("pricing.fixed_service_fee") {
		c.FixedServiceFee = viper.GetFloat64("pricing.fixed_service_fee")
	}
	if viper.IsSet("pricing.epsilon") {
		c.Epsilon = viper.GetFloat64("pricing.epsilon")
	}
	if viper.IsSet("pricing.tier_overshoot_ratio") {
		c.TierOvershootRatio = viper.GetFloat64("pricing.tier_overshoot_ratio")
	}
	if viper.IsSet("pricing.fallback_weight_grams") {
		c.FallbackWeightGrams = viper.GetFloat64("pricing.fallback_weight_grams")
	}
	if viper.IsSet("pricing.store_tier_discounts") {
		discounts := make(map[string]float64)
		for k, v := range viper.GetStringMap("pricing.store_tier_discounts") {
			f, ok := toFloat(v)
			if !ok {
				return c, fmt.Errorf("%w: pricing.store_tier_discounts.%s is not a number", common.ErrInvalidConfig, k)
			}
			discounts[k] = f
		}
		c.StoreTierDiscounts = discounts
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
