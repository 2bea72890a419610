package main

import (
	"fmt"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/rules"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [reference.yaml]",
		Short: "Load reference data into the database",
		Long: `Replace the stored reference data (platform rules, accounts, tariffs,
surcharges, shipping tiers, policy, boosts and marketplace fees) with the
contents of a YAML file. The replacement is all-or-nothing.

With --defaults and no file, only the built-in platform rules are loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSeed,
	}

	cmd.Flags().Bool("defaults", false, "seed the built-in platform rules")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	useDefaults, _ := cmd.Flags().GetBool("defaults")

	var ref *config.ReferenceData
	switch {
	case len(args) == 1:
		loaded, err := config.LoadReferenceData(args[0])
		if err != nil {
			return common.NewUserError("Could not load "+args[0], err)
		}
		ref = loaded
		if useDefaults && len(ref.Rules) == 0 {
			ref.Rules = rules.DefaultRules()
		}
	case useDefaults:
		ref = &config.ReferenceData{Rules: rules.DefaultRules()}
	default:
		return common.NewUserError("Pass a reference file or --defaults", common.ErrValidation)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SeedReferenceData(ctx, ref); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	cmd.Println(cli.FormatSuccess(fmt.Sprintf("Seeded %d rules, %d accounts, %d tariffs, %d surcharges, %d shipping tiers, %d marketplaces",
		len(ref.Rules), len(ref.Accounts), len(ref.HSTariffs), len(ref.Surcharges), len(ref.WeightTiers), len(ref.Marketplaces))))
	return nil
}
