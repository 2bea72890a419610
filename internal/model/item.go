// Package model defines the core data structures for the listwise engine.
package model

import "strings"

// Condition is the physical condition of a catalog item.
type Condition string

// Item condition constants.
const (
	ConditionNew         Condition = "New"
	ConditionUsed        Condition = "Used"
	ConditionRefurbished Condition = "Refurbished"
)

// ParseCondition normalizes free-form condition text. Unknown values are returned as-is.
func ParseCondition(s string) Condition {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return ConditionNew
	case "used":
		return ConditionUsed
	case "refurbished", "refurb":
		return ConditionRefurbished
	}
	return Condition(s)
}

// Item is a catalog item submitted for a listing decision. It is read-only to the core.
type Item struct {
	HSCode        *string   `json:"hs_code,omitempty" yaml:"hs_code,omitempty"`
	SKU           string    `json:"sku" yaml:"sku" validate:"required"`
	Category      string    `json:"category" yaml:"category"`
	Condition     Condition `json:"condition" yaml:"condition"`
	Channels      []string  `json:"channels,omitempty" yaml:"channels,omitempty"`
	Price         float64   `json:"price" yaml:"price" validate:"gte=0"`
	GlobalScore   float64   `json:"global_score" yaml:"global_score" validate:"gte=0"`
	StockQuantity int       `json:"stock_quantity" yaml:"stock_quantity"`
}

// HS returns the item's HS code or the empty string.
func (i Item) HS() string {
	if i.HSCode == nil {
		return ""
	}
	return *i.HSCode
}
