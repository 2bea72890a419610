package config

import (
	"fmt"
	"os"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"gopkg.in/yaml.v3"
)

// ReferenceData is the already-authored lookup data the engine consumes:
// platform rules, accounts, tariff tables, shipping tiers, user policy and boosts.
type ReferenceData struct {
	Policy       model.UserStrategySettings `yaml:"policy"`
	Rules        []model.PlatformRule       `yaml:"rules"`
	Accounts     []model.Account            `yaml:"accounts"`
	HSTariffs    []model.HSTariff           `yaml:"hs_tariffs"`
	Surcharges   []model.CountrySurcharge   `yaml:"country_surcharges"`
	WeightTiers  []model.WeightTier         `yaml:"weight_tiers"`
	Boosts       []model.BoostConfig        `yaml:"boosts"`
	Marketplaces []model.MarketplaceFees    `yaml:"marketplaces"`
}

// LoadReferenceData reads reference data from a YAML file.
func LoadReferenceData(path string) (*ReferenceData, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	return ParseReferenceData(data)
}

// ParseReferenceData decodes reference data from YAML bytes and validates it.
func ParseReferenceData(data []byte) (*ReferenceData, error) {
	var ref ReferenceData
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("%w: failed to parse reference data: %w", common.ErrInvalidConfig, err)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return &ref, nil
}

// Validate checks structural invariants of the reference data.
func (r *ReferenceData) Validate() error {
	for i, rule := range r.Rules {
		if rule.Platform == "" {
			return fmt.Errorf("%w: rule %d: platform is required", common.ErrInvalidConfig, i)
		}
		if rule.Action != model.RuleAllow && rule.Action != model.RuleBlock {
			return fmt.Errorf("%w: rule %d: action must be allow or block, got %q", common.ErrInvalidConfig, i, rule.Action)
		}
		switch rule.Scope.Kind {
		case "":
			// An omitted scope is a global rule.
			r.Rules[i].Scope = model.GlobalScope()
		case model.ScopeGlobal:
			if len(rule.Scope.Categories) > 0 {
				return fmt.Errorf("%w: rule %d: global scope cannot list categories", common.ErrInvalidConfig, i)
			}
		case model.ScopeCategoryScoped:
			if len(rule.Scope.Categories) == 0 {
				return fmt.Errorf("%w: rule %d: category_scoped rule needs at least one category", common.ErrInvalidConfig, i)
			}
		default:
			return fmt.Errorf("%w: rule %d: unknown scope %q", common.ErrInvalidConfig, i, rule.Scope.Kind)
		}
	}
	for i, tier := range r.WeightTiers {
		if tier.MaxWeightKg <= 0 {
			return fmt.Errorf("%w: weight tier %d: max_weight_kg must be positive", common.ErrInvalidConfig, i)
		}
		if tier.FlatRate < 0 {
			return fmt.Errorf("%w: weight tier %d: flat_rate must not be negative", common.ErrInvalidConfig, i)
		}
	}
	for i, acct := range r.Accounts {
		if acct.Platform == "" || acct.ID == "" {
			return fmt.Errorf("%w: account %d: platform and id are required", common.ErrInvalidConfig, i)
		}
	}
	return nil
}
