package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/listwise/internal/model"
)

func (s *SQLiteStorage) savePolicyTx(ctx context.Context, q queryable, settings model.UserStrategySettings, boosts []model.BoostConfig) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy settings: %w", err)
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO strategy_policies (name, settings, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET settings = excluded.settings, updated_at = CURRENT_TIMESTAMP`,
		defaultPolicy, string(doc)); err != nil {
		return fmt.Errorf("failed to save strategy settings: %w", err)
	}

	for _, b := range boosts {
		if err := validateString(b.Platform, "boost platform"); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO boost_configs (platform, account_id, category, performance, competition, category_fit)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(platform, account_id, category) DO UPDATE SET
				performance = excluded.performance,
				competition = excluded.competition,
				category_fit = excluded.category_fit`,
			normalizePlatform(b.Platform), b.AccountID, b.Category,
			b.Components.Performance, b.Components.Competition, b.Components.CategoryFit); err != nil {
			return fmt.Errorf("failed to save boost for %s: %w", b.Platform, err)
		}
	}
	return nil
}

// SaveStrategySettings replaces the user policy without touching other reference data.
func (s *SQLiteStorage) SaveStrategySettings(ctx context.Context, settings model.UserStrategySettings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.savePolicyTx(ctx, s.db, settings, nil)
}

// StrategySettings returns the stored user policy. An empty store yields empty settings.
// It implements strategy.PolicyStore.
func (s *SQLiteStorage) StrategySettings(ctx context.Context) (model.UserStrategySettings, error) {
	var settings model.UserStrategySettings
	if err := validateContext(ctx); err != nil {
		return settings, err
	}

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT settings FROM strategy_policies WHERE name = ?`, defaultPolicy).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to query strategy settings: %w", err)
	}
	if err := json.Unmarshal([]byte(doc), &settings); err != nil {
		return settings, fmt.Errorf("failed to unmarshal strategy settings: %w", err)
	}
	return settings, nil
}

// BoostConfigs returns every stored boost configuration.
func (s *SQLiteStorage) BoostConfigs(ctx context.Context) ([]model.BoostConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT platform, account_id, category, performance, competition, category_fit
		FROM boost_configs
		ORDER BY platform, account_id, category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query boosts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var boosts []model.BoostConfig
	for rows.Next() {
		var b model.BoostConfig
		if err := rows.Scan(&b.Platform, &b.AccountID, &b.Category,
			&b.Components.Performance, &b.Components.Competition, &b.Components.CategoryFit); err != nil {
			return nil, fmt.Errorf("failed to scan boost: %w", err)
		}
		boosts = append(boosts, b)
	}

	return boosts, rows.Err()
}
