package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every command that opens the database migrates it first; this command is
for doing so explicitly or checking where a database stands.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		cmd.Println(cli.FormatTitle("Database migration status"))
		cmd.Printf("Database:        %s\n", dbPath)
		cmd.Printf("Current version: %d\n", current)
		cmd.Printf("Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			cmd.Printf("Pending:         %d\n", storage.ExpectedSchemaVersion-current)
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!", "from", current, "to", storage.ExpectedSchemaVersion)
	return nil
}
