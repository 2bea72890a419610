package pricing

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func testTiers() []model.WeightTier {
	return []model.WeightTier{
		{Name: "2kg", MaxWeightKg: 2.0, FlatRate: 40},
		{Name: "500g", MaxWeightKg: 0.5, FlatRate: 20},
		{Name: "1kg", MaxWeightKg: 1.0, FlatRate: 28},
		{Name: "5kg", MaxWeightKg: 5.0, FlatRate: 75},
	}
}

func newTestSolver(constants config.PricingConstants) *Solver {
	return NewSolver(
		NewMemoryTariffs([]model.HSTariff{
			{HSCode: "9504.40", BaseRate: 0.0},
			{HSCode: "8525.89", BaseRate: 0.021},
			{HSCode: "9999", BaseRate: 0.60},
		}),
		NewMemorySurcharges([]model.CountrySurcharge{
			{CountryCode: "CN", AdditionalRate: 0.25},
			{CountryCode: "JP", AdditionalRate: 0.15},
		}),
		NewTierTable(testTiers()),
		constants,
	)
}

func TestComputeBreakEvenPrice_MissingHSCode(t *testing.T) {
	solver := newTestSolver(config.DefaultPricingConstants())

	res, err := solver.ComputeBreakEvenPrice(context.Background(), Input{
		CostOrigin:    3000,
		WeightGrams:   floatPtr(500),
		OriginCountry: strPtr("CN"),
		ExchangeRate:  150,
		FVFRate:       floatPtr(0.1319),
	})
	require.NoError(t, err)

	assert.False(t, res.HasCompleteData)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "missing HS code")
	assert.InDelta(t, 0.05, res.Tariff.BaseRate, 1e-12)
	assert.InDelta(t, 0.25, res.Tariff.AdditionalRate, 1e-12)

	assert.False(t, math.IsInf(res.BreakEvenPrice, 0) || math.IsNaN(res.BreakEvenPrice))
	assert.Greater(t, res.BreakEvenPrice, 0.0)

	// (20 + 20 + 15 + 20·0.1319) / (1 − 0.383464 − 0.1319)
	assert.InDelta(t, 57.638/0.484636, res.BreakEvenPrice, 1e-9)
	assert.InDelta(t, 0.5, res.ShippingTier.MaxWeightKg, 1e-12)
	assert.Equal(t, config.PricingConstantsVersion, res.ConstantsVersion)
}

func TestComputeBreakEvenPrice_Infeasible(t *testing.T) {
	constants := config.DefaultPricingConstants()
	constants.ProcessingFeeRate = 0
	constants.RefundOffsetRate = 0
	solver := newTestSolver(constants)

	res, err := solver.ComputeBreakEvenPrice(context.Background(), Input{
		CostOrigin:   3000,
		WeightGrams:  floatPtr(500),
		HSCode:       strPtr("9999"),
		ExchangeRate: 150,
		FVFRate:      floatPtr(0.50),
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, common.ErrInfeasible)

	var infeasible *common.InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	assert.InDelta(t, -0.10, infeasible.Denominator, 1e-9)
}

func TestComputeBreakEvenPrice_InfeasibleWheneverFeesReachOne(t *testing.T) {
	constants := config.DefaultPricingConstants()
	constants.ProcessingFeeRate = 0
	constants.RefundOffsetRate = 0
	solver := newTestSolver(constants)

	// D is 0.60 from HS 9999 with no origin.
	for _, fvf := range []float64{0.40, 0.45, 0.5, 0.99} {
		_, err := solver.ComputeBreakEvenPrice(context.Background(), Input{
			CostOrigin:   1000,
			WeightGrams:  floatPtr(100),
			HSCode:       strPtr("9999"),
			ExchangeRate: 1,
			FVFRate:      floatPtr(fvf),
		})
		assert.ErrorIs(t, err, common.ErrInfeasible, "fvf %v", fvf)
	}
}

func TestComputeBreakEvenPrice_RevenueEqualsCost(t *testing.T) {
	solver := newTestSolver(config.DefaultPricingConstants())

	inputs := []Input{
		{CostOrigin: 3000, WeightGrams: floatPtr(500), ExchangeRate: 150, FVFRate: floatPtr(0.1319)},
		{CostOrigin: 12000, WeightGrams: floatPtr(1800), HSCode: strPtr("8525.89.30"), OriginCountry: strPtr("JP"), ExchangeRate: 148.2},
		{CostOrigin: 500, WeightGrams: floatPtr(50), HSCode: strPtr("950440"), OriginCountry: strPtr("US"), ExchangeRate: 1, StoreTier: "anchor"},
		{CostOrigin: 80000, WeightGrams: floatPtr(12000), HSCode: strPtr("8525.89"), OriginCountry: strPtr("CN"), ExchangeRate: 150, FixedServiceFee: floatPtr(0)},
	}

	for _, in := range inputs {
		res, err := solver.ComputeBreakEvenPrice(context.Background(), in)
		require.NoError(t, err)
		assert.InDelta(t, 0, res.Revenue()-res.Breakdown.TotalCost, 1e-6)
		assert.GreaterOrEqual(t, res.RoundedPrice, res.BreakEvenPrice)
		assert.GreaterOrEqual(t, res.ShippingTier.MaxWeightKg, *in.WeightGrams/1000)
	}
}

func TestComputeBreakEvenPrice_CompleteData(t *testing.T) {
	solver := newTestSolver(config.DefaultPricingConstants())

	res, err := solver.ComputeBreakEvenPrice(context.Background(), Input{
		CostOrigin:    15000,
		WeightGrams:   floatPtr(900),
		HSCode:        strPtr("8525.89.30"),
		OriginCountry: strPtr("jp"),
		ExchangeRate:  150,
	})
	require.NoError(t, err)

	assert.True(t, res.HasCompleteData)
	assert.Empty(t, res.Warnings)
	assert.InDelta(t, 0.021, res.Tariff.BaseRate, 1e-12)
	assert.InDelta(t, 0.171, res.Tariff.TotalRate, 1e-12)
	assert.InDelta(t, 0.171+0.003464+0.08, res.Tariff.EffectiveFeeRate, 1e-12)
	assert.Equal(t, "JP", res.Tariff.OriginCountry)
	assert.InDelta(t, 0.1315, res.FVFRate, 1e-12)
}

func TestComputeBreakEvenPrice_Warnings(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		wantWarning  string
		wantComplete bool
	}{
		{
			name:        "unknown HS code",
			in:          Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(400), HSCode: strPtr("0101"), OriginCountry: strPtr("JP")},
			wantWarning: "HS code 0101 not found",
		},
		{
			name:        "missing origin",
			in:          Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(400), HSCode: strPtr("9504.40")},
			wantWarning: "missing origin country",
		},
		{
			name:        "unknown origin",
			in:          Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(400), HSCode: strPtr("9504.40"), OriginCountry: strPtr("ZZ")},
			wantWarning: "origin country ZZ not found",
		},
		{
			name:         "tier overshoot keeps data complete",
			in:           Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(1100), HSCode: strPtr("9504.40"), OriginCountry: strPtr("JP")},
			wantWarning:  "exceeds actual weight",
			wantComplete: true,
		},
		{
			name:        "heavier than every tier",
			in:          Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(12000), HSCode: strPtr("9504.40"), OriginCountry: strPtr("JP")},
			wantWarning: "exceeds every tier",
		},
	}

	solver := newTestSolver(config.DefaultPricingConstants())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := solver.ComputeBreakEvenPrice(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantComplete, res.HasCompleteData)

			found := false
			for _, w := range res.Warnings {
				if strings.Contains(w, tt.wantWarning) {
					found = true
				}
			}
			assert.True(t, found, "warnings %v", res.Warnings)
		})
	}
}

func TestComputeBreakEvenPrice_Weight(t *testing.T) {
	t.Run("required by default", func(t *testing.T) {
		solver := newTestSolver(config.DefaultPricingConstants())
		_, err := solver.ComputeBreakEvenPrice(context.Background(), Input{CostOrigin: 100, ExchangeRate: 1})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("fallback weight marks result incomplete", func(t *testing.T) {
		constants := config.DefaultPricingConstants()
		constants.FallbackWeightGrams = 1000
		solver := newTestSolver(constants)

		res, err := solver.ComputeBreakEvenPrice(context.Background(), Input{
			CostOrigin: 100, ExchangeRate: 1, HSCode: strPtr("9504.40"), OriginCountry: strPtr("JP"),
		})
		require.NoError(t, err)
		assert.False(t, res.HasCompleteData)
		assert.InDelta(t, 1.0, res.ShippingTier.MaxWeightKg, 1e-12)
	})
}

func TestComputeBreakEvenPrice_Validation(t *testing.T) {
	solver := newTestSolver(config.DefaultPricingConstants())

	tests := []struct {
		name string
		in   Input
	}{
		{"zero cost", Input{CostOrigin: 0, ExchangeRate: 150, WeightGrams: floatPtr(100)}},
		{"zero exchange rate", Input{CostOrigin: 100, ExchangeRate: 0, WeightGrams: floatPtr(100)}},
		{"negative weight", Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(-5)}},
		{"fvf of one", Input{CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(100), FVFRate: floatPtr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := solver.ComputeBreakEvenPrice(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestComputeBreakEvenPrice_StoreTierDiscount(t *testing.T) {
	solver := newTestSolver(config.DefaultPricingConstants())
	base := Input{CostOrigin: 3000, ExchangeRate: 150, WeightGrams: floatPtr(500), HSCode: strPtr("9504.40"), OriginCountry: strPtr("JP")}

	plain, err := solver.ComputeBreakEvenPrice(context.Background(), base)
	require.NoError(t, err)

	base.StoreTier = "anchor"
	anchor, err := solver.ComputeBreakEvenPrice(context.Background(), base)
	require.NoError(t, err)

	assert.InDelta(t, 0.1315-0.08, anchor.FVFRate, 1e-12)
	assert.Less(t, anchor.BreakEvenPrice, plain.BreakEvenPrice)
}

func TestTierTable_CeilingSelection(t *testing.T) {
	table := NewTierTable(testTiers())
	ctx := context.Background()

	for _, w := range []float64{0.001, 0.1, 0.5, 0.5001, 0.99, 1.0, 1.5, 2.0, 4.99, 5.0} {
		tier, err := table.Lookup(ctx, w)
		require.NoError(t, err, "weight %v", w)
		assert.GreaterOrEqual(t, tier.MaxWeightKg, w)
	}

	tier, err := table.Lookup(ctx, 0.5001)
	require.NoError(t, err)
	assert.Equal(t, "1kg", tier.Name)

	_, err = table.Lookup(ctx, 5.01)
	assert.ErrorIs(t, err, common.ErrLookupMiss)
}

func TestMemoryTariffs_HeadingFallback(t *testing.T) {
	tariffs := NewMemoryTariffs([]model.HSTariff{{HSCode: "8525.89", BaseRate: 0.021}})

	row, err := tariffs.Lookup(context.Background(), "8525.89.3000")
	require.NoError(t, err)
	assert.InDelta(t, 0.021, row.BaseRate, 1e-12)

	_, err = tariffs.Lookup(context.Background(), "85")
	assert.ErrorIs(t, err, common.ErrLookupMiss)
}

type brokenTariffs struct{}

func (brokenTariffs) Lookup(context.Context, string) (model.HSTariff, error) {
	return model.HSTariff{}, errors.New("connection refused")
}

func TestComputeBreakEvenPrice_TableFailureIsFatal(t *testing.T) {
	solver := NewSolver(brokenTariffs{}, NewMemorySurcharges(nil), NewTierTable(testTiers()), config.DefaultPricingConstants())
	_, err := solver.ComputeBreakEvenPrice(context.Background(), Input{
		CostOrigin: 100, ExchangeRate: 1, WeightGrams: floatPtr(100), HSCode: strPtr("9504"),
	})
	assert.ErrorIs(t, err, common.ErrExternalDependency)
}

func TestComputeBreakEvenPrice_NonFinitePrice(t *testing.T) {
	zeroTier := NewSolver(
		NewMemoryTariffs(nil),
		NewMemorySurcharges(nil),
		NewTierTable([]model.WeightTier{{Name: "broken", MaxWeightKg: 0, FlatRate: 10}}),
		config.DefaultPricingConstants(),
	)

	tests := []struct {
		name    string
		solver  *Solver
		in      Input
		wantErr error
	}{
		{
			name:    "tiny exchange rate overflows base cost",
			solver:  newTestSolver(config.DefaultPricingConstants()),
			in:      Input{CostOrigin: 3000, ExchangeRate: 5e-324, WeightGrams: floatPtr(500)},
			wantErr: common.ErrValidation,
		},
		{
			name:    "zero-bound tier cannot be extrapolated",
			solver:  zeroTier,
			in:      Input{CostOrigin: 3000, ExchangeRate: 150, WeightGrams: floatPtr(500)},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res *Result
			var err error
			require.NotPanics(t, func() {
				res, err = tt.solver.ComputeBreakEvenPrice(context.Background(), tt.in)
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

func TestRoundUp_NonFinite(t *testing.T) {
	require.NotPanics(t, func() {
		assert.True(t, math.IsInf(RoundUp(math.Inf(1), 0.01), 1))
		assert.True(t, math.IsNaN(RoundUp(math.NaN(), 0.5)))
	})
}
