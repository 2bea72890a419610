package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "listwise",
		Short: "📦 Cross-border listing strategy and break-even pricing",
		Long: `listwise decides which marketplace account an inventory item should be
listed on, and what it must sell for to break even after duties, shipping
and marketplace fees.

Reference data (platform rules, accounts, tariffs, shipping tiers, policy)
comes from the SQLite store, or from a YAML file given with --reference.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/listwise/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: $HOME/.local/share/listwise/listwise.db)")
	rootCmd.PersistentFlags().String("reference", "", "YAML reference data file; bypasses the database")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("reference.file", rootCmd.PersistentFlags().Lookup("reference"))

	// Add commands
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(breakevenCmd())
	rootCmd.AddCommand(profitCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(decisionsCmd())
	rootCmd.AddCommand(lockCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMessage)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/listwise", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("LISTWISE")
	viper.AutomaticEnv()

	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if err := common.SetupLogger(level, viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("database.path", "$HOME/.local/share/listwise/listwise.db")
	viper.SetDefault("batch.workers", 10)
	viper.SetDefault("batch.rate_per_second", 0)
	viper.SetDefault("exchange.currency", "JPY")
	viper.SetDefault("exchange.timeout", "10s")
	viper.SetDefault("exchange.max_age", "1m")
	viper.SetDefault("redis.ttl", "0s")
	viper.SetDefault("strategy.min_global_score", 0)
	viper.SetDefault("strategy.composer", "product")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("listwise version %s\n", version)
		},
	}
}
