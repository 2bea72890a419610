package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/listwise/internal/model"
)

func (s *SQLiteStorage) saveMarketplacesTx(ctx context.Context, q queryable, markets []model.MarketplaceFees) error {
	for _, m := range markets {
		if err := validateString(m.Marketplace, "marketplace"); err != nil {
			return err
		}
		doc, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal marketplace %s: %w", m.Marketplace, err)
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO marketplaces (marketplace, fees) VALUES (?, ?)
			ON CONFLICT(marketplace) DO UPDATE SET fees = excluded.fees`,
			m.Marketplace, string(doc)); err != nil {
			return fmt.Errorf("failed to save marketplace %s: %w", m.Marketplace, err)
		}
	}
	return nil
}

// Marketplaces returns the fee tables used by the profit calculator, ordered by name.
func (s *SQLiteStorage) Marketplaces(ctx context.Context) ([]model.MarketplaceFees, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fees FROM marketplaces ORDER BY marketplace`)
	if err != nil {
		return nil, fmt.Errorf("failed to query marketplaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var markets []model.MarketplaceFees
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan marketplace: %w", err)
		}
		var m model.MarketplaceFees
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal marketplace: %w", err)
		}
		markets = append(markets, m)
	}

	return markets, rows.Err()
}
