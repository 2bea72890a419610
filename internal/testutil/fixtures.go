package testutil

import (
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/rules"
)

// Fixture is a named, versioned reference data set.
type Fixture struct {
	Build       func() *config.ReferenceData
	Name        string
	Description string
	Version     int
}

// Predefined fixtures for common test scenarios.
var (
	// FixtureEmpty has no reference data at all.
	FixtureEmpty = Fixture{
		Name:        "Empty",
		Description: "No rules, accounts or tables",
		Version:     1,
		Build:       func() *config.ReferenceData { return &config.ReferenceData{} },
	}

	// FixtureStandard has the default platform rules, one or two accounts per
	// platform, a small tariff table and three shipping tiers.
	FixtureStandard = Fixture{
		Name:        "Standard",
		Description: "Default rules with accounts on ebay, amazon_us, qoo10 and shopify",
		Version:     1,
		Build:       standardReference,
	}
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func standardReference() *config.ReferenceData {
	return &config.ReferenceData{
		Rules: rules.DefaultRules(),
		Accounts: []model.Account{
			{Platform: "ebay", ID: "us-main", Name: "eBay US Main", Country: "US", Active: true},
			{Platform: "ebay", ID: "us-sub", Name: "eBay US Sub", Country: "US", Active: true},
			{Platform: "amazon_us", ID: "main", Name: "Amazon US", Country: "US", Active: true},
			{Platform: "qoo10", ID: "jp", Name: "Qoo10 JP", Country: "JP", Active: true},
			{Platform: "shopify", ID: "store", Name: "Shopify Store", Country: "US", Active: true, Channels: []string{"online"}},
			{Platform: "shopify", ID: "legacy", Name: "Shopify Legacy", Country: "US", Active: false},
		},
		HSTariffs: []model.HSTariff{
			{HSCode: "9102.11", Description: "wrist watches", BaseRate: 0.064},
			{HSCode: "8525.80", Description: "cameras", BaseRate: 0.021},
			{HSCode: "9503", Description: "toys", BaseRate: 0},
		},
		Surcharges: []model.CountrySurcharge{
			{CountryCode: "JP", Description: "Japan", AdditionalRate: 0.15},
			{CountryCode: "CN", Description: "China", AdditionalRate: 0.30},
		},
		WeightTiers: []model.WeightTier{
			{Name: "small", MaxWeightKg: 0.5, FlatRate: 12},
			{Name: "medium", MaxWeightKg: 1, FlatRate: 18},
			{Name: "large", MaxWeightKg: 2, FlatRate: 30},
		},
		Policy: model.UserStrategySettings{
			AccountSpecializations: []model.AccountSpecialization{
				{Platform: "ebay", AccountID: "us-sub", AllowedCategories: []string{"Camera", "Electronics"}},
			},
			MinScores: []model.MinScore{
				{Platform: "qoo10", Score: 60},
			},
		},
		Boosts: []model.BoostConfig{
			{Platform: "ebay", Components: model.BoostComponents{Performance: 1.2, Competition: 1, CategoryFit: 1}},
			{Platform: "ebay", AccountID: "us-sub", Components: model.BoostComponents{Performance: 1.5, Competition: 0.9, CategoryFit: 1.1}},
			{Platform: "amazon_us", Components: model.BoostComponents{Performance: 1, Competition: 0.8, CategoryFit: 1}},
		},
		Marketplaces: []model.MarketplaceFees{
			{Marketplace: "ebay", Currency: "USD", CommissionRate: 0.1315, PaymentFixed: 0.3,
				Shipping: []model.WeightTier{{MaxWeightKg: 1, FlatRate: 18}, {MaxWeightKg: 2, FlatRate: 30}}},
			{Marketplace: "amazon_us", Currency: "USD", CommissionRate: 0.15,
				Shipping: []model.WeightTier{{MaxWeightKg: 2, FlatRate: 25}}},
		},
	}
}
