package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/listwise/internal/model"
)

func (s *SQLiteStorage) saveAccountsTx(ctx context.Context, q queryable, accounts []model.Account) error {
	for i, a := range accounts {
		if err := validateString(a.Platform, "account platform"); err != nil {
			return fmt.Errorf("account at index %d: %w", i, err)
		}
		if err := validateString(a.ID, "account id"); err != nil {
			return fmt.Errorf("account at index %d: %w", i, err)
		}
		channels, err := encodeList(a.Channels)
		if err != nil {
			return fmt.Errorf("failed to marshal account channels: %w", err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO accounts (platform, id, name, country, channels, active, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			normalizePlatform(a.Platform), a.ID, a.Name, a.Country, channels, a.Active, i,
		)
		if err != nil {
			return fmt.Errorf("failed to save account %s/%s: %w", a.Platform, a.ID, err)
		}
	}
	return nil
}

// Platforms returns every platform with a registered account, in the order
// the first account of each was seeded. It implements candidate.AccountRegistry.
func (s *SQLiteStorage) Platforms(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT platform
		FROM accounts
		GROUP BY platform
		ORDER BY MIN(position)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var platforms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}
		platforms = append(platforms, p)
	}

	return platforms, rows.Err()
}

// AccountsFor returns every account, active or not, registered on platform.
func (s *SQLiteStorage) AccountsFor(ctx context.Context, platform string) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(platform, "platform"); err != nil {
		return nil, err
	}
	return s.queryAccounts(ctx, s.db, `
		SELECT platform, id, name, country, channels, active
		FROM accounts
		WHERE platform = ?
		ORDER BY position`, normalizePlatform(platform))
}

// SetAccountActive toggles whether an account receives candidates.
func (s *SQLiteStorage) SetAccountActive(ctx context.Context, platform, accountID string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET active = ? WHERE platform = ? AND id = ?`,
		active, normalizePlatform(platform), accountID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrAccountNotFound, platform, accountID)
	}
	return nil
}

func (s *SQLiteStorage) allAccounts(ctx context.Context, q queryable) ([]model.Account, error) {
	return s.queryAccounts(ctx, q, `
		SELECT platform, id, name, country, channels, active
		FROM accounts
		ORDER BY position`)
}

func (s *SQLiteStorage) queryAccounts(ctx context.Context, q queryable, query string, args ...any) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var (
			a        model.Account
			channels string
		)
		if err := rows.Scan(&a.Platform, &a.ID, &a.Name, &a.Country, &channels, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if a.Channels, err = decodeList[string](channels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account channels: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
