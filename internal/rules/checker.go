// Package rules evaluates platform listing rules for category, condition and HS-code restrictions.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// Source supplies the ordered rule list for a platform.
type Source interface {
	RulesFor(ctx context.Context, platform string) ([]model.PlatformRule, error)
}

// Evaluation is the outcome of checking one platform.
type Evaluation struct {
	Reason  string `json:"reason,omitempty"`
	Allowed bool   `json:"allowed"`
}

// Checker evaluates items against injected platform rules.
type Checker struct {
	source Source
}

// NewChecker creates a checker backed by source.
func NewChecker(source Source) *Checker {
	return &Checker{source: source}
}

// Evaluate decides whether category/condition/hsCode may be listed on platform.
// A matching block rule wins over any allow rule regardless of order.
func (c *Checker) Evaluate(ctx context.Context, platform, category string, condition model.Condition, hsCode string) (Evaluation, error) {
	rules, err := c.source.RulesFor(ctx, platform)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to load rules for %s: %w", platform, err)
	}
	return EvaluateRules(rules, category, condition, hsCode), nil
}

// EvaluateAll runs Evaluate independently for each platform.
func (c *Checker) EvaluateAll(ctx context.Context, platforms []string, category string, condition model.Condition, hsCode string) (map[string]Evaluation, error) {
	out := make(map[string]Evaluation, len(platforms))
	for _, p := range platforms {
		ev, err := c.Evaluate(ctx, p, category, condition, hsCode)
		if err != nil {
			return nil, err
		}
		out[p] = ev
	}
	return out, nil
}

// EvaluateRules applies an ordered rule list. It is pure and deterministic.
func EvaluateRules(rules []model.PlatformRule, category string, condition model.Condition, hsCode string) Evaluation {
	// Block rules are checked first so that an earlier allow can never mask a later block.
	for _, rule := range rules {
		if rule.Action != model.RuleBlock {
			continue
		}
		if blockMatches(rule, category, condition, hsCode) {
			return Evaluation{Allowed: false, Reason: reasonFor(rule)}
		}
	}

	for _, rule := range rules {
		if rule.Action != model.RuleAllow {
			continue
		}
		// Only category-scoped allow rules constrain condition.
		if rule.Scope.Kind != model.ScopeCategoryScoped {
			continue
		}
		if rule.Scope.MatchesCategory(category) && !rule.AllowsCondition(condition) {
			return Evaluation{
				Allowed: false,
				Reason:  fmt.Sprintf("%s (condition %q not allowed)", reasonFor(rule), condition),
			}
		}
	}

	return Evaluation{Allowed: true}
}

func blockMatches(rule model.PlatformRule, category string, condition model.Condition, hsCode string) bool {
	if len(rule.HSCodePrefixes) > 0 && rule.MatchesHSCode(hsCode) {
		return true
	}

	switch rule.Scope.Kind {
	case model.ScopeCategoryScoped:
		if !rule.Scope.MatchesCategory(category) {
			return false
		}
		// A condition-type block narrows to the listed conditions.
		if rule.Type == model.RuleTypeCondition && len(rule.AllowedConditions) > 0 {
			return !rule.AllowsCondition(condition)
		}
		return true
	case model.ScopeGlobal:
		// A global category block closes the platform to every category.
		if rule.Type == model.RuleTypeCategory {
			return true
		}
		if rule.Type == model.RuleTypeCondition && len(rule.AllowedConditions) > 0 {
			return !rule.AllowsCondition(condition)
		}
	}
	return false
}

func reasonFor(rule model.PlatformRule) string {
	if strings.TrimSpace(rule.Description) != "" {
		return rule.Description
	}
	return fmt.Sprintf("%s rule on %s", rule.Action, rule.Platform)
}
