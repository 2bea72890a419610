package model

import "strings"

// RuleAction is the outcome a platform rule applies when it matches.
type RuleAction string

// Rule action constants.
const (
	RuleAllow RuleAction = "allow"
	RuleBlock RuleAction = "block"
)

// RuleType describes which attribute a platform rule restricts.
type RuleType string

// Rule type constants.
const (
	RuleTypeCategory  RuleType = "category"
	RuleTypeCondition RuleType = "condition"
	RuleTypeHSCode    RuleType = "hs_code"
)

// ScopeKind tags whether a rule applies to every item or only to listed categories.
type ScopeKind string

// Scope kinds.
const (
	ScopeGlobal         ScopeKind = "global"
	ScopeCategoryScoped ScopeKind = "category_scoped"
)

// RuleScope is a tagged variant: Global rules carry no categories,
// CategoryScoped rules carry at least one.
type RuleScope struct {
	Kind       ScopeKind `json:"kind" yaml:"kind"`
	Categories []string  `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// GlobalScope returns a scope matching every category.
func GlobalScope() RuleScope {
	return RuleScope{Kind: ScopeGlobal}
}

// CategoryScope returns a scope restricted to the given categories.
func CategoryScope(categories ...string) RuleScope {
	return RuleScope{Kind: ScopeCategoryScoped, Categories: categories}
}

// MatchesCategory reports whether category contains any scoped category
// (case-insensitive substring). Global scopes always match.
func (s RuleScope) MatchesCategory(category string) bool {
	if s.Kind != ScopeCategoryScoped {
		return true
	}
	lower := strings.ToLower(category)
	for _, c := range s.Categories {
		if c == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// PlatformRule restricts what may be listed on a platform.
type PlatformRule struct {
	Platform          string      `json:"platform" yaml:"platform"`
	Type              RuleType    `json:"type" yaml:"type"`
	Action            RuleAction  `json:"action" yaml:"action"`
	Description       string      `json:"description" yaml:"description"`
	Scope             RuleScope   `json:"scope" yaml:"scope"`
	HSCodePrefixes    []string    `json:"hs_code_prefixes,omitempty" yaml:"hs_code_prefixes,omitempty"`
	AllowedConditions []Condition `json:"allowed_conditions,omitempty" yaml:"allowed_conditions,omitempty"`
}

// AllowsCondition reports whether cond is in the rule's allowed set.
// An empty set allows every condition.
func (r PlatformRule) AllowsCondition(cond Condition) bool {
	if len(r.AllowedConditions) == 0 {
		return true
	}
	for _, c := range r.AllowedConditions {
		if strings.EqualFold(string(c), string(cond)) {
			return true
		}
	}
	return false
}

// MatchesHSCode reports whether hsCode starts with one of the rule's prefixes.
// Dots are ignored on both sides.
func (r PlatformRule) MatchesHSCode(hsCode string) bool {
	code := NormalizeHSCode(hsCode)
	if code == "" {
		return false
	}
	for _, p := range r.HSCodePrefixes {
		prefix := NormalizeHSCode(p)
		if prefix != "" && strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// NormalizeHSCode strips dots and whitespace from an HS code.
func NormalizeHSCode(code string) string {
	code = strings.TrimSpace(code)
	return strings.ReplaceAll(code, ".", "")
}
