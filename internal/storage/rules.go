package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/listwise/internal/model"
)

func (s *SQLiteStorage) saveRulesTx(ctx context.Context, q queryable, rules []model.PlatformRule) error {
	positions := make(map[string]int)
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule at index %d: %w", i, err)
		}
		if r.Scope.Kind == "" {
			r.Scope = model.GlobalScope()
		}

		categories, err := encodeList(r.Scope.Categories)
		if err != nil {
			return fmt.Errorf("failed to marshal scope categories: %w", err)
		}
		prefixes, err := encodeList(r.HSCodePrefixes)
		if err != nil {
			return fmt.Errorf("failed to marshal hs code prefixes: %w", err)
		}
		conditions, err := encodeList(r.AllowedConditions)
		if err != nil {
			return fmt.Errorf("failed to marshal allowed conditions: %w", err)
		}

		platform := normalizePlatform(r.Platform)
		_, err = q.ExecContext(ctx, `
			INSERT INTO platform_rules (
				platform, position, rule_type, action, description,
				scope_kind, scope_categories, hs_code_prefixes, allowed_conditions
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			platform, positions[platform], string(r.Type), string(r.Action), r.Description,
			string(r.Scope.Kind), categories, prefixes, conditions,
		)
		if err != nil {
			return fmt.Errorf("failed to save rule %d for %s: %w", i, r.Platform, err)
		}
		positions[platform]++
	}
	return nil
}

// RulesFor returns the rules of platform in authored order. It implements rules.Source.
func (s *SQLiteStorage) RulesFor(ctx context.Context, platform string) ([]model.PlatformRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(platform, "platform"); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, s.db, `
		SELECT platform, rule_type, action, description, scope_kind,
			scope_categories, hs_code_prefixes, allowed_conditions
		FROM platform_rules
		WHERE platform = ?
		ORDER BY position`, normalizePlatform(platform))
}

func (s *SQLiteStorage) allRules(ctx context.Context, q queryable) ([]model.PlatformRule, error) {
	return s.queryRules(ctx, q, `
		SELECT platform, rule_type, action, description, scope_kind,
			scope_categories, hs_code_prefixes, allowed_conditions
		FROM platform_rules
		ORDER BY platform, position`)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, q queryable, query string, args ...any) ([]model.PlatformRule, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.PlatformRule
	for rows.Next() {
		var (
			r                                model.PlatformRule
			ruleType, action, kind           string
			categories, prefixes, conditions string
		)
		if err := rows.Scan(&r.Platform, &ruleType, &action, &r.Description, &kind,
			&categories, &prefixes, &conditions); err != nil {
			return nil, fmt.Errorf("failed to scan platform rule: %w", err)
		}
		r.Type = model.RuleType(ruleType)
		r.Action = model.RuleAction(action)
		r.Scope.Kind = model.ScopeKind(kind)
		if r.Scope.Categories, err = decodeList[string](categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scope categories: %w", err)
		}
		if r.HSCodePrefixes, err = decodeList[string](prefixes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hs code prefixes: %w", err)
		}
		if r.AllowedConditions, err = decodeList[model.Condition](conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed conditions: %w", err)
		}
		rules = append(rules, r)
	}

	return rules, rows.Err()
}
