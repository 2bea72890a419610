package pricing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
)

// TariffTable resolves the base duty rate of an HS code.
// A miss is reported as an error wrapping common.ErrLookupMiss.
type TariffTable interface {
	Lookup(ctx context.Context, hsCode string) (model.HSTariff, error)
}

// SurchargeTable resolves the additional duty rate of an origin country.
type SurchargeTable interface {
	Lookup(ctx context.Context, countryCode string) (model.CountrySurcharge, error)
}

// ShippingTable resolves the smallest weight tier whose bound is at least weightKg.
type ShippingTable interface {
	Lookup(ctx context.Context, weightKg float64) (model.WeightTier, error)
}

// ExchangeRateProvider returns origin-currency units per target-currency unit.
type ExchangeRateProvider interface {
	GetRate(ctx context.Context) (float64, error)
}

// MemoryTariffs is a TariffTable keyed by normalized HS code.
type MemoryTariffs map[string]model.HSTariff

// NewMemoryTariffs indexes rows by HS code with dots removed.
func NewMemoryTariffs(rows []model.HSTariff) MemoryTariffs {
	t := make(MemoryTariffs, len(rows))
	for _, r := range rows {
		t[model.NormalizeHSCode(r.HSCode)] = r
	}
	return t
}

// Lookup tries the full code, then successively shorter headings down to four digits.
func (t MemoryTariffs) Lookup(_ context.Context, hsCode string) (model.HSTariff, error) {
	code := model.NormalizeHSCode(hsCode)
	for n := len(code); n >= 4; n-- {
		if row, ok := t[code[:n]]; ok {
			return row, nil
		}
	}
	return model.HSTariff{}, common.NewLookupMiss("hs_tariffs", hsCode)
}

// MemorySurcharges is a SurchargeTable keyed by upper-case ISO country code.
type MemorySurcharges map[string]model.CountrySurcharge

// NewMemorySurcharges indexes rows by country code.
func NewMemorySurcharges(rows []model.CountrySurcharge) MemorySurcharges {
	t := make(MemorySurcharges, len(rows))
	for _, r := range rows {
		t[strings.ToUpper(r.CountryCode)] = r
	}
	return t
}

// Lookup implements SurchargeTable.
func (t MemorySurcharges) Lookup(_ context.Context, countryCode string) (model.CountrySurcharge, error) {
	row, ok := t[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return model.CountrySurcharge{}, common.NewLookupMiss("country_surcharges", countryCode)
	}
	return row, nil
}

// TierTable is a ShippingTable over tiers sorted by bound.
type TierTable struct {
	tiers []model.WeightTier
}

// NewTierTable copies and sorts tiers by MaxWeightKg.
func NewTierTable(tiers []model.WeightTier) *TierTable {
	sorted := append([]model.WeightTier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MaxWeightKg < sorted[j].MaxWeightKg })
	return &TierTable{tiers: sorted}
}

// Lookup returns the smallest tier with MaxWeightKg >= weightKg. It never
// returns a tier below the weight; a weight above every tier is a lookup miss.
func (t *TierTable) Lookup(_ context.Context, weightKg float64) (model.WeightTier, error) {
	i := sort.Search(len(t.tiers), func(i int) bool { return t.tiers[i].MaxWeightKg >= weightKg })
	if i == len(t.tiers) {
		return model.WeightTier{}, common.NewLookupMiss("weight_tiers", fmt.Sprintf("%.3fkg", weightKg))
	}
	return t.tiers[i], nil
}

// Heaviest returns the largest tier, or false for an empty table.
func (t *TierTable) Heaviest() (model.WeightTier, bool) {
	if len(t.tiers) == 0 {
		return model.WeightTier{}, false
	}
	return t.tiers[len(t.tiers)-1], true
}

// extrapolateTier covers weightKg with whole multiples of the heaviest tier,
// so the returned bound is still at least the weight.
func extrapolateTier(heaviest model.WeightTier, weightKg float64) model.WeightTier {
	n := math.Ceil(weightKg / heaviest.MaxWeightKg)
	return model.WeightTier{
		Name:        fmt.Sprintf("%s x%.0f", heaviest.Name, n),
		MaxWeightKg: heaviest.MaxWeightKg * n,
		FlatRate:    heaviest.FlatRate * n,
	}
}
