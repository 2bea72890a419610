package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/listwise/internal/config"
)

// defaultPolicy is the strategy_policies row the engine reads.
const defaultPolicy = "default"

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SeedReferenceData replaces every reference table with ref in one transaction.
// The decision log is left untouched.
func (s *SQLiteStorage) SeedReferenceData(ctx context.Context, ref *config.ReferenceData) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if ref == nil {
		return fmt.Errorf("%w: reference data", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{
		"platform_rules", "accounts", "hs_tariffs", "country_surcharges",
		"weight_tiers", "strategy_policies", "boost_configs", "marketplaces",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := s.saveRulesTx(ctx, tx, ref.Rules); err != nil {
		return err
	}
	if err := s.saveAccountsTx(ctx, tx, ref.Accounts); err != nil {
		return err
	}
	if err := s.saveTariffsTx(ctx, tx, ref.HSTariffs, ref.Surcharges, ref.WeightTiers); err != nil {
		return err
	}
	if err := s.savePolicyTx(ctx, tx, ref.Policy, ref.Boosts); err != nil {
		return err
	}
	if err := s.saveMarketplacesTx(ctx, tx, ref.Marketplaces); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference data: %w", err)
	}

	slog.Info("Seeded reference data",
		"rules", len(ref.Rules),
		"accounts", len(ref.Accounts),
		"hs_tariffs", len(ref.HSTariffs),
		"surcharges", len(ref.Surcharges),
		"weight_tiers", len(ref.WeightTiers),
		"boosts", len(ref.Boosts),
		"marketplaces", len(ref.Marketplaces))
	return nil
}

// ReferenceData reads every reference table back into one document.
func (s *SQLiteStorage) ReferenceData(ctx context.Context) (*config.ReferenceData, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		ref config.ReferenceData
		err error
	)
	if ref.Rules, err = s.allRules(ctx, s.db); err != nil {
		return nil, err
	}
	if ref.Accounts, err = s.allAccounts(ctx, s.db); err != nil {
		return nil, err
	}
	tables, err := s.loadPricingRows(ctx, s.db)
	if err != nil {
		return nil, err
	}
	ref.HSTariffs, ref.Surcharges, ref.WeightTiers = tables.tariffs, tables.surcharges, tables.tiers
	if ref.Policy, err = s.StrategySettings(ctx); err != nil {
		return nil, err
	}
	if ref.Boosts, err = s.BoostConfigs(ctx); err != nil {
		return nil, err
	}
	if ref.Marketplaces, err = s.Marketplaces(ctx); err != nil {
		return nil, err
	}
	return &ref, nil
}

// encodeList stores a string slice as a JSON array column.
func encodeList[T ~string](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList[T ~string](raw string) ([]T, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizePlatform(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
