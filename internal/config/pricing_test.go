package config

import (
	"testing"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPricingConstants(t *testing.T) {
	c := DefaultPricingConstants()
	require.NoError(t, c.Validate())
	assert.Equal(t, PricingConstantsVersion, c.Version)
	assert.InDelta(t, 0.04, c.StoreDiscount("basic"), 1e-9)
	assert.Zero(t, c.StoreDiscount("unknown"))
	assert.Zero(t, c.StoreDiscount(""))
}

func TestPricingConstants_Validate(t *testing.T) {
	tests := []struct {
		mutate func(*PricingConstants)
		name   string
	}{
		{name: "missing version", mutate: func(c *PricingConstants) { c.Version = "" }},
		{name: "negative fallback", mutate: func(c *PricingConstants) { c.FallbackTariffRate = -0.1 }},
		{name: "fvf at 100%", mutate: func(c *PricingConstants) { c.DefaultFVFRate = 1 }},
		{name: "zero epsilon", mutate: func(c *PricingConstants) { c.Epsilon = 0 }},
		{name: "negative service fee", mutate: func(c *PricingConstants) { c.FixedServiceFee = -1 }},
		{name: "overshoot below one", mutate: func(c *PricingConstants) { c.TierOvershootRatio = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultPricingConstants()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), common.ErrInvalidConfig)
		})
	}
}

func TestLoadPricingConstants(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("pricing.version", "test-1")
	viper.Set("pricing.fallback_tariff_rate", 0.07)
	viper.Set("pricing.store_tier_discounts", map[string]any{"gold": 0.05})

	c, err := LoadPricingConstants()
	require.NoError(t, err)
	assert.Equal(t, "test-1", c.Version)
	assert.InDelta(t, 0.07, c.FallbackTariffRate, 1e-9)
	assert.InDelta(t, 0.003464, c.ProcessingFeeRate, 1e-9)
	assert.InDelta(t, 0.05, c.StoreDiscount("gold"), 1e-9)
}

func TestLoadPricingConstants_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("pricing.default_fvf_rate", 1.2)
	_, err := LoadPricingConstants()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
