package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/pricing"
	"github.com/Veraticus/listwise/internal/profit"
	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

// TableHeader writes a tab-separated header row for a tabwriter table.
func TableHeader(w io.Writer, cols ...string) error {
	styled := make([]string, len(cols))
	for i, c := range cols {
		styled[i] = headerStyle.Render(c)
	}
	_, err := fmt.Fprintln(w, strings.Join(styled, "\t"))
	return err
}

// RenderDecision writes the verdict and the per-candidate layer outcomes of one item.
func RenderDecision(out io.Writer, res *model.ListingStrategyResult) error {
	if res.Decision.ShouldList {
		if _, err := fmt.Fprintln(out, FormatSuccess(fmt.Sprintf("%s → %s", res.SKU, res.Decision.Target.Key()))); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(out, FormatWarning(fmt.Sprintf("%s not listed", res.SKU))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(out, SubtleStyle.Render(res.Decision.Reason)); err != nil {
		return err
	}
	if len(res.Evaluations) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := TableHeader(w, "CANDIDATE", "LAYER", "SCORE", "OUTCOME"); err != nil {
		return err
	}
	for _, ev := range res.Evaluations {
		layer, outcome := model.LayerScoring, SuccessStyle.Render("eligible")
		if fail, excluded := ev.Excluded(); excluded {
			layer, outcome = fail.Layer, ErrorStyle.Render(fail.Reason)
		}
		score := "-"
		if ev.Score != nil {
			score = fmt.Sprintf("%.2f", ev.Score.FinalScore)
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", ev.Candidate.Key(), layer, score, outcome); err != nil {
			return err
		}
	}
	return w.Flush()
}

// RenderBreakEven writes a solved price with its cost breakdown and warnings.
func RenderBreakEven(out io.Writer, res *pricing.Result) error {
	title := "Break-even price"
	if res.SKU != "" {
		title += " for " + res.SKU
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Break-even", fmt.Sprintf("%.4f", res.BreakEvenPrice)},
		{"Rounded", BoldStyle.Render(fmt.Sprintf("%.2f", res.RoundedPrice))},
		{"Base cost", fmt.Sprintf("%.2f", res.Breakdown.BaseCost)},
		{"Shipping", fmt.Sprintf("%.2f (%s, ≤%.3fkg)", res.Breakdown.ShippingCost, res.ShippingTier.Name, res.ShippingTier.MaxWeightKg)},
		{"Duty + service fee", fmt.Sprintf("%.2f", res.Breakdown.DutyAndServiceFee)},
		{"Marketplace fee", fmt.Sprintf("%.2f (FVF %.2f%%)", res.Breakdown.MarketplaceFee, res.FVFRate*100)},
		{"Tariff", fmt.Sprintf("%.2f%% base + %.2f%% origin", res.Tariff.BaseRate*100, res.Tariff.AdditionalRate*100)},
		{"Constants", res.ConstantsVersion},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", SubtleStyle.Render(r[0]), r[1]); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(out, RenderBox(title, strings.TrimRight(b.String(), "\n"))); err != nil {
		return err
	}
	if !res.HasCompleteData {
		if _, err := fmt.Fprintln(out, FormatWarning("incomplete reference data: price uses fallbacks")); err != nil {
			return err
		}
	}
	for _, warn := range res.Warnings {
		if _, err := fmt.Fprintln(out, WarningStyle.Render("  • "+warn)); err != nil {
			return err
		}
	}
	return nil
}

// RenderProfit writes a marketplace comparison, best first.
func RenderProfit(out io.Writer, results []profit.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := TableHeader(w, "MARKETPLACE", "REVENUE", "FEES", "SHIPPING", "PROFIT", "MARGIN"); err != nil {
		return err
	}
	for _, r := range results {
		margin := fmt.Sprintf("%.1f%%", r.Margin*100)
		switch {
		case r.RedFlag:
			margin = RedFlagStyle.Render(margin)
		case r.Margin < profit.CautionMargin:
			margin = WarningStyle.Render(margin)
		}
		if _, err := fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			r.Marketplace, r.Revenue, r.Commission+r.Payment, r.Shipping, r.Profit, margin); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, r := range results {
		for _, warn := range r.Warnings {
			if _, err := fmt.Fprintln(out, FormatWarning(r.Marketplace+": "+warn)); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderBatch writes the counts of a batch run.
func RenderBatch(out io.Writer, runID string, listed, skipped, failed int) error {
	lines := []string{
		fmt.Sprintf("Run:     %s", runID),
		SuccessStyle.Render(fmt.Sprintf("Listed:  %d", listed)),
		WarningStyle.Render(fmt.Sprintf("Skipped: %d", skipped)),
		ErrorStyle.Render(fmt.Sprintf("Failed:  %d", failed)),
	}
	_, err := fmt.Fprintln(out, RenderBox(ChartIcon+" Batch summary", strings.Join(lines, "\n")))
	return err
}
