package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/listwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRules(t *testing.T) {
	tests := []struct {
		name        string
		rules       []model.PlatformRule
		category    string
		condition   model.Condition
		hsCode      string
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "no rules allows",
			category:    "Toys",
			condition:   model.ConditionNew,
			wantAllowed: true,
		},
		{
			name: "category block is case-insensitive substring",
			rules: []model.PlatformRule{
				{Action: model.RuleBlock, Scope: model.CategoryScope("weapon"), Description: "no weapons"},
			},
			category:   "Outdoor > WEAPONS",
			condition:  model.ConditionNew,
			wantReason: "no weapons",
		},
		{
			name: "hs prefix block ignores dots",
			rules: []model.PlatformRule{
				{Action: model.RuleBlock, Scope: model.GlobalScope(), HSCodePrefixes: []string{"96.01"}, Description: "ivory"},
			},
			category:   "Art",
			hsCode:     "9601.10.00",
			wantReason: "ivory",
		},
		{
			name: "hs prefix block does not match other codes",
			rules: []model.PlatformRule{
				{Action: model.RuleBlock, Scope: model.GlobalScope(), HSCodePrefixes: []string{"9601"}},
			},
			category:    "Art",
			hsCode:      "9504.40",
			wantAllowed: true,
		},
		{
			name: "scoped allow rejects disallowed condition",
			rules: []model.PlatformRule{
				{
					Action:            model.RuleAllow,
					Scope:             model.CategoryScope("Electronics"),
					AllowedConditions: []model.Condition{model.ConditionNew},
					Description:       "new electronics only",
				},
			},
			category:   "Electronics",
			condition:  model.ConditionUsed,
			wantReason: `new electronics only (condition "Used" not allowed)`,
		},
		{
			name: "scoped allow accepts allowed condition",
			rules: []model.PlatformRule{
				{
					Action:            model.RuleAllow,
					Scope:             model.CategoryScope("Electronics"),
					AllowedConditions: []model.Condition{model.ConditionNew},
				},
			},
			category:    "Electronics",
			condition:   model.ConditionNew,
			wantAllowed: true,
		},
		{
			name: "scoped allow ignores other categories",
			rules: []model.PlatformRule{
				{
					Action:            model.RuleAllow,
					Scope:             model.CategoryScope("Electronics"),
					AllowedConditions: []model.Condition{model.ConditionNew},
				},
			},
			category:    "Books",
			condition:   model.ConditionUsed,
			wantAllowed: true,
		},
		{
			name: "global allow never constrains condition",
			rules: []model.PlatformRule{
				{Action: model.RuleAllow, Scope: model.GlobalScope(), AllowedConditions: []model.Condition{model.ConditionNew}},
			},
			category:    "Books",
			condition:   model.ConditionUsed,
			wantAllowed: true,
		},
		{
			name: "block after allow still wins",
			rules: []model.PlatformRule{
				{Action: model.RuleAllow, Scope: model.CategoryScope("Toys")},
				{Action: model.RuleBlock, Scope: model.CategoryScope("Toys"), Description: "toys blocked"},
			},
			category:   "Toys",
			condition:  model.ConditionNew,
			wantReason: "toys blocked",
		},
		{
			name: "global condition block",
			rules: []model.PlatformRule{
				{Action: model.RuleBlock, Type: model.RuleTypeCondition, Scope: model.GlobalScope(), AllowedConditions: []model.Condition{model.ConditionNew}, Description: "new only"},
			},
			category:   "Books",
			condition:  model.ConditionUsed,
			wantReason: "new only",
		},
		{
			name: "global category block closes the platform",
			rules: []model.PlatformRule{
				{Action: model.RuleBlock, Type: model.RuleTypeCategory, Scope: model.GlobalScope(), Description: "platform closed"},
			},
			category:   "Toys",
			condition:  model.ConditionNew,
			wantReason: "platform closed",
		},
		{
			name: "global hs block without matching prefix allows",
			rules: []model.PlatformRule{
				{Action: model.RuleBlock, Type: model.RuleTypeHSCode, Scope: model.GlobalScope(), HSCodePrefixes: []string{"9601"}},
			},
			category:    "Toys",
			hsCode:      "9503.00",
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRules(tt.rules, tt.category, tt.condition, tt.hsCode)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			if tt.wantAllowed {
				assert.Empty(t, got.Reason)
			} else {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
		})
	}
}

func TestChecker_DefaultRules(t *testing.T) {
	ctx := context.Background()
	checker := NewChecker(NewRuleSet(DefaultRules()))

	t.Run("weapons blocked on amazon_us regardless of condition", func(t *testing.T) {
		for _, cond := range []model.Condition{model.ConditionNew, model.ConditionUsed, model.ConditionRefurbished} {
			ev, err := checker.Evaluate(ctx, "amazon_us", "Weapons", cond, "")
			require.NoError(t, err)
			assert.False(t, ev.Allowed, "condition %s", cond)
			assert.NotEmpty(t, ev.Reason)
		}
	})

	t.Run("used electronics allowed on ebay", func(t *testing.T) {
		ev, err := checker.Evaluate(ctx, "ebay", "Electronics", model.ConditionUsed, "")
		require.NoError(t, err)
		assert.True(t, ev.Allowed)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := checker.Evaluate(ctx, "amazon_us", "Electronics", model.ConditionUsed, "")
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := checker.Evaluate(ctx, "amazon_us", "Electronics", model.ConditionUsed, "")
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestChecker_EvaluateAll(t *testing.T) {
	ctx := context.Background()
	checker := NewChecker(NewRuleSet(DefaultRules()))

	got, err := checker.EvaluateAll(ctx, []string{"amazon_us", "ebay", "shopify"}, "Weapons", model.ConditionNew, "")
	require.NoError(t, err)

	assert.False(t, got["amazon_us"].Allowed)
	assert.False(t, got["ebay"].Allowed)
	assert.True(t, got["shopify"].Allowed, "platforms without rules are unaffected by others")
}

type failingSource struct{}

func (failingSource) RulesFor(context.Context, string) ([]model.PlatformRule, error) {
	return nil, errors.New("store offline")
}

func TestChecker_SourceError(t *testing.T) {
	checker := NewChecker(failingSource{})
	_, err := checker.Evaluate(context.Background(), "ebay", "Toys", model.ConditionNew, "")
	assert.Error(t, err)
}
