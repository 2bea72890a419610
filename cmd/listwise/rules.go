package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/rules"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and test platform listing rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesCheckCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [platform]",
		Short: "List platform rules in evaluation order",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRulesList,
	}
}

func runRulesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src, err := openReference(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	var list []model.PlatformRule
	if len(args) == 1 {
		list, err = src.rules.RulesFor(ctx, args[0])
	} else {
		list, err = src.allRules(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	if len(list) == 0 {
		cmd.Println(cli.FormatInfo("No rules configured"))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if err := cli.TableHeader(w, "PLATFORM", "ACTION", "TYPE", "SCOPE", "MATCH", "DESCRIPTION"); err != nil {
		return err
	}
	for _, r := range list {
		action := cli.StyleSuccess(string(r.Action))
		if r.Action == model.RuleBlock {
			action = cli.StyleError(string(r.Action))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Platform, action, r.Type, scopeText(r.Scope), matchText(r), r.Description)
	}
	return w.Flush()
}

func scopeText(s model.RuleScope) string {
	if s.Kind == model.ScopeCategoryScoped {
		return strings.Join(s.Categories, ", ")
	}
	return "global"
}

func matchText(r model.PlatformRule) string {
	switch r.Type {
	case model.RuleTypeHSCode:
		return strings.Join(r.HSCodePrefixes, ", ")
	case model.RuleTypeCondition:
		conds := make([]string, len(r.AllowedConditions))
		for i, c := range r.AllowedConditions {
			conds[i] = string(c)
		}
		return strings.Join(conds, ", ")
	default:
		return "-"
	}
}

func rulesCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether an item may be listed on each platform",
		Long: `Evaluate platform rules for a category, condition and HS code.
Without --platform, every platform with a registered account is checked.`,
		RunE: runRulesCheck,
	}

	cmd.Flags().StringSlice("platform", nil, "platforms to check")
	cmd.Flags().String("category", "", "item category")
	cmd.Flags().String("condition", "New", "item condition")
	cmd.Flags().String("hs", "", "HS code")

	return cmd
}

func runRulesCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	src, err := openReference(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	platforms, _ := cmd.Flags().GetStringSlice("platform")
	if len(platforms) == 0 {
		platforms, err = src.accounts.Platforms(ctx)
		if err != nil {
			return fmt.Errorf("failed to list platforms: %w", err)
		}
	}
	category, _ := cmd.Flags().GetString("category")
	condition, _ := cmd.Flags().GetString("condition")
	hs, _ := cmd.Flags().GetString("hs")

	results, err := rules.NewChecker(src.rules).EvaluateAll(ctx, platforms, category, model.ParseCondition(condition), hs)
	if err != nil {
		return err
	}

	sort.Strings(platforms)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if err := cli.TableHeader(w, "PLATFORM", "RESULT", "REASON"); err != nil {
		return err
	}
	for _, p := range platforms {
		ev := results[p]
		verdict := cli.StyleSuccess(cli.SuccessIcon + " allowed")
		if !ev.Allowed {
			verdict = cli.StyleError(cli.ErrorIcon + " blocked")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p, verdict, ev.Reason)
	}
	return w.Flush()
}
