// Package storage provides the SQLite reference store and decision log for listwise.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidRule     = errors.New("invalid platform rule")
	ErrInvalidTier     = errors.New("invalid weight tier")
	ErrAccountNotFound = errors.New("account not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRule(r model.PlatformRule) error {
	if r.Platform == "" {
		return fmt.Errorf("%w: missing platform", ErrInvalidRule)
	}
	if r.Action != model.RuleAllow && r.Action != model.RuleBlock {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRule, r.Action)
	}
	if r.Scope.Kind == model.ScopeCategoryScoped && len(r.Scope.Categories) == 0 {
		return fmt.Errorf("%w: category_scoped rule without categories", ErrInvalidRule)
	}
	return nil
}

func validateTier(t model.WeightTier) error {
	if t.MaxWeightKg <= 0 {
		return fmt.Errorf("%w: max_weight_kg must be positive", ErrInvalidTier)
	}
	if t.FlatRate < 0 {
		return fmt.Errorf("%w: flat_rate must not be negative", ErrInvalidTier)
	}
	return nil
}
