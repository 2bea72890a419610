package model

import "strings"

// CategoryRestriction limits which platforms may list a category.
// AllowedPlatforms and BlockedPlatforms are each optional.
type CategoryRestriction struct {
	Category         string   `json:"category" yaml:"category"`
	AllowedPlatforms []string `json:"allowed_platforms,omitempty" yaml:"allowed_platforms,omitempty"`
	BlockedPlatforms []string `json:"blocked_platforms,omitempty" yaml:"blocked_platforms,omitempty"`
}

// Matches reports whether the restriction applies to category (case-insensitive substring).
func (r CategoryRestriction) Matches(category string) bool {
	if r.Category == "" {
		return false
	}
	return strings.Contains(strings.ToLower(category), strings.ToLower(r.Category))
}

// AccountSpecialization restricts one account to a set of categories.
type AccountSpecialization struct {
	Platform          string   `json:"platform" yaml:"platform"`
	AccountID         string   `json:"account_id" yaml:"account_id"`
	AllowedCategories []string `json:"allowed_categories" yaml:"allowed_categories"`
}

// PriceRange bounds the item price (JPY) for a platform, optionally for one account.
// Nil bounds are open.
type PriceRange struct {
	MinJPY    *float64 `json:"min_jpy,omitempty" yaml:"min_jpy,omitempty"`
	MaxJPY    *float64 `json:"max_jpy,omitempty" yaml:"max_jpy,omitempty"`
	Platform  string   `json:"platform" yaml:"platform"`
	AccountID string   `json:"account_id,omitempty" yaml:"account_id,omitempty"`
}

// Contains reports whether price lies within the range.
func (r PriceRange) Contains(price float64) bool {
	if r.MinJPY != nil && price < *r.MinJPY {
		return false
	}
	if r.MaxJPY != nil && price > *r.MaxJPY {
		return false
	}
	return true
}

// MinScore is a minimum global score required for a platform, optionally for one account.
type MinScore struct {
	Platform  string  `json:"platform" yaml:"platform"`
	AccountID string  `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Score     float64 `json:"score" yaml:"score"`
}

// UserStrategySettings is the configurable business policy applied in Layer 2.
type UserStrategySettings struct {
	CategoryRestrictions   []CategoryRestriction   `json:"category_restrictions,omitempty" yaml:"category_restrictions,omitempty"`
	AccountSpecializations []AccountSpecialization `json:"account_specializations,omitempty" yaml:"account_specializations,omitempty"`
	PriceRanges            []PriceRange            `json:"price_ranges,omitempty" yaml:"price_ranges,omitempty"`
	MinScores              []MinScore              `json:"min_scores,omitempty" yaml:"min_scores,omitempty"`
}

// BoostConfig sets the boost components for a platform, optionally narrowed to an
// account and/or category. Empty AccountID or Category means "any".
type BoostConfig struct {
	Platform   string          `json:"platform" yaml:"platform"`
	AccountID  string          `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Category   string          `json:"category,omitempty" yaml:"category,omitempty"`
	Components BoostComponents `json:"components" yaml:"components"`
}

// Specificity ranks how narrowly the config is scoped; higher is more specific.
func (b BoostConfig) Specificity() int {
	s := 0
	if b.AccountID != "" {
		s += 2
	}
	if b.Category != "" {
		s++
	}
	return s
}
