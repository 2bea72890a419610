package rules

import "github.com/Veraticus/listwise/internal/model"

// DefaultRules returns the built-in rule table. Callers pass it to NewRuleSet explicitly;
// there is no package-level rule state.
func DefaultRules() []model.PlatformRule {
	return []model.PlatformRule{
		{
			Platform:    "amazon_us",
			Type:        model.RuleTypeCategory,
			Action:      model.RuleBlock,
			Scope:       model.CategoryScope("Weapons", "Firearms", "Knives"),
			Description: "Weapons and weapon accessories are prohibited on Amazon US",
		},
		{
			Platform:    "amazon_us",
			Type:        model.RuleTypeCategory,
			Action:      model.RuleBlock,
			Scope:       model.CategoryScope("Adult"),
			Description: "Adult products are prohibited on Amazon US",
		},
		{
			Platform:          "amazon_us",
			Type:              model.RuleTypeCondition,
			Action:            model.RuleAllow,
			Scope:             model.CategoryScope("Electronics", "Camera"),
			AllowedConditions: []model.Condition{model.ConditionNew, model.ConditionRefurbished},
			Description:       "Amazon US accepts only new or refurbished electronics",
		},
		{
			Platform:          "amazon_jp",
			Type:              model.RuleTypeCondition,
			Action:            model.RuleAllow,
			Scope:             model.CategoryScope("Beauty", "Cosmetics", "Health"),
			AllowedConditions: []model.Condition{model.ConditionNew},
			Description:       "Amazon JP accepts only new beauty and health products",
		},
		{
			Platform:       "ebay",
			Type:           model.RuleTypeHSCode,
			Action:         model.RuleBlock,
			Scope:          model.GlobalScope(),
			HSCodePrefixes: []string{"9601", "0508"},
			Description:    "Ivory, bone and coral products are prohibited on eBay",
		},
		{
			Platform:    "ebay",
			Type:        model.RuleTypeCategory,
			Action:      model.RuleBlock,
			Scope:       model.CategoryScope("Weapons"),
			Description: "Weapons are prohibited on eBay",
		},
		{
			Platform:          "qoo10",
			Type:              model.RuleTypeCondition,
			Action:            model.RuleBlock,
			Scope:             model.GlobalScope(),
			AllowedConditions: []model.Condition{model.ConditionNew},
			Description:       "Qoo10 lists new items only",
		},
	}
}
