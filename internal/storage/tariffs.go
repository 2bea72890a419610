package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/pricing"
)

// PricingTables are the solver's lookup tables loaded from storage.
type PricingTables struct {
	Tariffs    pricing.MemoryTariffs
	Surcharges pricing.MemorySurcharges
	Shipping   *pricing.TierTable
}

// NewSolver builds a pricing solver over the tables.
func (t *PricingTables) NewSolver(constants config.PricingConstants) *pricing.Solver {
	return pricing.NewSolver(t.Tariffs, t.Surcharges, t.Shipping, constants)
}

type pricingRows struct {
	tariffs    []model.HSTariff
	surcharges []model.CountrySurcharge
	tiers      []model.WeightTier
}

func (s *SQLiteStorage) saveTariffsTx(ctx context.Context, q queryable, tariffs []model.HSTariff,
	surcharges []model.CountrySurcharge, tiers []model.WeightTier) error {
	for _, t := range tariffs {
		code := model.NormalizeHSCode(t.HSCode)
		if err := validateString(code, "hs_code"); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO hs_tariffs (hs_code, description, base_rate) VALUES (?, ?, ?)
			ON CONFLICT(hs_code) DO UPDATE SET description = excluded.description, base_rate = excluded.base_rate`,
			code, t.Description, t.BaseRate); err != nil {
			return fmt.Errorf("failed to save tariff %s: %w", t.HSCode, err)
		}
	}

	for _, c := range surcharges {
		code := strings.ToUpper(strings.TrimSpace(c.CountryCode))
		if err := validateString(code, "country_code"); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO country_surcharges (country_code, description, additional_rate) VALUES (?, ?, ?)
			ON CONFLICT(country_code) DO UPDATE SET description = excluded.description, additional_rate = excluded.additional_rate`,
			code, c.Description, c.AdditionalRate); err != nil {
			return fmt.Errorf("failed to save surcharge %s: %w", c.CountryCode, err)
		}
	}

	for i, t := range tiers {
		if err := validateTier(t); err != nil {
			return fmt.Errorf("tier at index %d: %w", i, err)
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO weight_tiers (max_weight_kg, name, flat_rate) VALUES (?, ?, ?)`,
			t.MaxWeightKg, t.Name, t.FlatRate); err != nil {
			return fmt.Errorf("failed to save weight tier %.3fkg: %w", t.MaxWeightKg, err)
		}
	}
	return nil
}

// LoadPricingTables reads the tariff, surcharge and shipping tables into memory.
func (s *SQLiteStorage) LoadPricingTables(ctx context.Context) (*PricingTables, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.loadPricingRows(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return &PricingTables{
		Tariffs:    pricing.NewMemoryTariffs(rows.tariffs),
		Surcharges: pricing.NewMemorySurcharges(rows.surcharges),
		Shipping:   pricing.NewTierTable(rows.tiers),
	}, nil
}

func (s *SQLiteStorage) loadPricingRows(ctx context.Context, q queryable) (*pricingRows, error) {
	out := &pricingRows{}

	rows, err := q.QueryContext(ctx, `SELECT hs_code, description, base_rate FROM hs_tariffs ORDER BY hs_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tariffs: %w", err)
	}
	for rows.Next() {
		var t model.HSTariff
		if err := rows.Scan(&t.HSCode, &t.Description, &t.BaseRate); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan tariff: %w", err)
		}
		out.tariffs = append(out.tariffs, t)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT country_code, description, additional_rate FROM country_surcharges ORDER BY country_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query surcharges: %w", err)
	}
	for rows.Next() {
		var c model.CountrySurcharge
		if err := rows.Scan(&c.CountryCode, &c.Description, &c.AdditionalRate); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan surcharge: %w", err)
		}
		out.surcharges = append(out.surcharges, c)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT name, max_weight_kg, flat_rate FROM weight_tiers ORDER BY max_weight_kg`)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight tiers: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var t model.WeightTier
		if err := rows.Scan(&t.Name, &t.MaxWeightKg, &t.FlatRate); err != nil {
			return nil, fmt.Errorf("failed to scan weight tier: %w", err)
		}
		out.tiers = append(out.tiers, t)
	}

	return out, rows.Err()
}
