package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Reference tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS platform_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					platform TEXT NOT NULL,
					position INTEGER NOT NULL,
					rule_type TEXT NOT NULL,
					action TEXT NOT NULL CHECK (action IN ('allow', 'block')),
					description TEXT NOT NULL DEFAULT '',
					scope_kind TEXT NOT NULL DEFAULT 'global',
					scope_categories TEXT NOT NULL DEFAULT '[]',
					hs_code_prefixes TEXT NOT NULL DEFAULT '[]',
					allowed_conditions TEXT NOT NULL DEFAULT '[]'
				)`,
				`CREATE INDEX idx_platform_rules_platform ON platform_rules(platform, position)`,
				`CREATE TABLE IF NOT EXISTS accounts (
					platform TEXT NOT NULL,
					id TEXT NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					country TEXT NOT NULL DEFAULT '',
					channels TEXT NOT NULL DEFAULT '[]',
					active BOOLEAN NOT NULL DEFAULT 1,
					position INTEGER NOT NULL,
					PRIMARY KEY (platform, id)
				)`,
				`CREATE TABLE IF NOT EXISTS hs_tariffs (
					hs_code TEXT PRIMARY KEY,
					description TEXT NOT NULL DEFAULT '',
					base_rate REAL NOT NULL CHECK (base_rate >= 0)
				)`,
				`CREATE TABLE IF NOT EXISTS country_surcharges (
					country_code TEXT PRIMARY KEY,
					description TEXT NOT NULL DEFAULT '',
					additional_rate REAL NOT NULL CHECK (additional_rate >= 0)
				)`,
				`CREATE TABLE IF NOT EXISTS weight_tiers (
					max_weight_kg REAL PRIMARY KEY CHECK (max_weight_kg > 0),
					name TEXT NOT NULL DEFAULT '',
					flat_rate REAL NOT NULL CHECK (flat_rate >= 0)
				)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "User policy and boosts",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				// One JSON document per policy; "default" is the only key written today.
				`CREATE TABLE IF NOT EXISTS strategy_policies (
					name TEXT PRIMARY KEY,
					settings TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS boost_configs (
					platform TEXT NOT NULL,
					account_id TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					performance REAL NOT NULL DEFAULT 1.0,
					competition REAL NOT NULL DEFAULT 1.0,
					category_fit REAL NOT NULL DEFAULT 1.0,
					PRIMARY KEY (platform, account_id, category)
				)`,
				`CREATE TABLE IF NOT EXISTS marketplaces (
					marketplace TEXT PRIMARY KEY,
					fees TEXT NOT NULL
				)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     3,
		Description: "Decision log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS decision_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					sku TEXT NOT NULL,
					should_list BOOLEAN NOT NULL,
					platform TEXT,
					account_id TEXT,
					reason TEXT NOT NULL,
					result TEXT NOT NULL,
					decided_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_decision_log_run ON decision_log(run_id)`,
				`CREATE INDEX idx_decision_log_sku ON decision_log(sku, decided_at)`,
			}
			return execAll(tx, queries)
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
