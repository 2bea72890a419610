package rules

import (
	"context"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// RuleSet is an in-memory Source keyed by platform. Rule order within a platform is preserved.
type RuleSet struct {
	byPlatform map[string][]model.PlatformRule
}

// NewRuleSet groups rules by platform (case-insensitive).
func NewRuleSet(rules []model.PlatformRule) *RuleSet {
	rs := &RuleSet{byPlatform: make(map[string][]model.PlatformRule)}
	for _, r := range rules {
		key := strings.ToLower(r.Platform)
		rs.byPlatform[key] = append(rs.byPlatform[key], r)
	}
	return rs
}

// RulesFor implements Source.
func (rs *RuleSet) RulesFor(_ context.Context, platform string) ([]model.PlatformRule, error) {
	return rs.byPlatform[strings.ToLower(platform)], nil
}

// Platforms returns every platform that has at least one rule.
func (rs *RuleSet) Platforms() []string {
	out := make([]string, 0, len(rs.byPlatform))
	for p := range rs.byPlatform {
		out = append(out, p)
	}
	return out
}
