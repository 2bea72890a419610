package strategy

import (
	"fmt"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// ApplyUserStrategy checks category restriction, account specialization,
// price range and minimum score. All must pass. Where a platform-wide and an
// account-specific entry both apply, the account-specific one wins. That holds
// across kinds too: an account specialization that names the item's category
// overrides a category restriction blocking the account's platform.
func ApplyUserStrategy(item model.Item, cand model.MarketplaceCandidate, settings model.UserStrategySettings) model.FilterResult {
	for _, check := range []func(model.Item, model.MarketplaceCandidate, model.UserStrategySettings) string{
		checkCategoryRestriction,
		checkAccountSpecialization,
		checkPriceRange,
		checkMinScore,
	} {
		if reason := check(item, cand, settings); reason != "" {
			return model.Fail(model.LayerUser, reason)
		}
	}
	return model.Pass(model.LayerUser)
}

func checkCategoryRestriction(item model.Item, cand model.MarketplaceCandidate, settings model.UserStrategySettings) string {
	if specializedFor(item.Category, cand, settings) {
		return ""
	}
	for _, r := range settings.CategoryRestrictions {
		if !r.Matches(item.Category) {
			continue
		}
		if len(r.AllowedPlatforms) > 0 && !containsFold(r.AllowedPlatforms, cand.Platform) {
			return fmt.Sprintf("category %q restricted to platforms %s", r.Category, strings.Join(r.AllowedPlatforms, ", "))
		}
		if containsFold(r.BlockedPlatforms, cand.Platform) {
			return fmt.Sprintf("category %q blocked on %s", r.Category, cand.Platform)
		}
	}
	return ""
}

func checkAccountSpecialization(item model.Item, cand model.MarketplaceCandidate, settings model.UserStrategySettings) string {
	for _, spec := range settings.AccountSpecializations {
		if !strings.EqualFold(spec.Platform, cand.Platform) || spec.AccountID != cand.AccountID {
			continue
		}
		if len(spec.AllowedCategories) == 0 {
			continue
		}
		if !categoryIn(item.Category, spec.AllowedCategories) {
			return fmt.Sprintf("account %s specializes in %s", cand.AccountID, strings.Join(spec.AllowedCategories, ", "))
		}
	}
	return ""
}

// specializedFor reports whether an account specialization for cand explicitly names category.
func specializedFor(category string, cand model.MarketplaceCandidate, settings model.UserStrategySettings) bool {
	for _, spec := range settings.AccountSpecializations {
		if strings.EqualFold(spec.Platform, cand.Platform) && spec.AccountID == cand.AccountID &&
			categoryIn(category, spec.AllowedCategories) {
			return true
		}
	}
	return false
}

func checkPriceRange(item model.Item, cand model.MarketplaceCandidate, settings model.UserStrategySettings) string {
	ranges := scoped(settings.PriceRanges, cand, func(r model.PriceRange) (string, string) {
		return r.Platform, r.AccountID
	})
	for _, r := range ranges {
		if !r.Contains(item.Price) {
			return fmt.Sprintf("price ¥%.0f outside range %s for %s", item.Price, formatRange(r), cand.Key())
		}
	}
	return ""
}

func checkMinScore(item model.Item, cand model.MarketplaceCandidate, settings model.UserStrategySettings) string {
	mins := scoped(settings.MinScores, cand, func(m model.MinScore) (string, string) {
		return m.Platform, m.AccountID
	})
	for _, m := range mins {
		if item.GlobalScore < m.Score {
			return fmt.Sprintf("score %.2f below %.2f required for %s", item.GlobalScore, m.Score, cand.Key())
		}
	}
	return ""
}

// scoped returns the entries applying to cand: the account-specific ones when
// any exist, otherwise the platform-wide ones.
func scoped[T any](entries []T, cand model.MarketplaceCandidate, keyOf func(T) (platform, account string)) []T {
	var accountLevel, platformLevel []T
	for _, e := range entries {
		platform, account := keyOf(e)
		if !strings.EqualFold(platform, cand.Platform) {
			continue
		}
		switch account {
		case "":
			platformLevel = append(platformLevel, e)
		case cand.AccountID:
			accountLevel = append(accountLevel, e)
		}
	}
	if len(accountLevel) > 0 {
		return accountLevel
	}
	return platformLevel
}

func formatRange(r model.PriceRange) string {
	lo, hi := "-", "-"
	if r.MinJPY != nil {
		lo = fmt.Sprintf("¥%.0f", *r.MinJPY)
	}
	if r.MaxJPY != nil {
		hi = fmt.Sprintf("¥%.0f", *r.MaxJPY)
	}
	return "[" + lo + ", " + hi + "]"
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func categoryIn(category string, allowed []string) bool {
	lower := strings.ToLower(category)
	for _, a := range allowed {
		if a != "" && strings.Contains(lower, strings.ToLower(a)) {
			return true
		}
	}
	return false
}
