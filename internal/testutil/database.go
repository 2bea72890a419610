// Package testutil provides test fixtures and database helpers for listwise packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/storage"
)

// TestDB represents a test database with the reference data it was seeded with.
type TestDB struct {
	Storage   *storage.SQLiteStorage
	Reference *config.ReferenceData
	t         *testing.T
}

// SetupTestDB creates a new in-memory test database seeded from fixture.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.FixtureStandard)
//	engine := strategy.New(nil, rules.NewChecker(db.Storage), db.Storage)
func SetupTestDB(t *testing.T, fixture Fixture) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Reference: fixture.Build()})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Reference      *config.ReferenceData
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.Reference != nil && !opts.SkipMigrations {
		if err := store.SeedReferenceData(ctx, opts.Reference); err != nil {
			t.Fatalf("failed to seed reference data: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage:   store,
		Reference: opts.Reference,
		t:         t,
	}
}

// MustAccount returns the seeded account platform/id or fails the test.
func (db *TestDB) MustAccount(platform, id string) model.Account {
	db.t.Helper()
	if db.Reference != nil {
		for _, a := range db.Reference.Accounts {
			if a.Platform == platform && a.ID == id {
				return a
			}
		}
	}
	db.t.Fatalf("account %s/%s not in fixture", platform, id)
	return model.Account{}
}
