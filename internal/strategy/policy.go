package strategy

import (
	"context"

	"github.com/Veraticus/listwise/internal/model"
)

// PolicyStore supplies the read-only user policy and boost settings.
type PolicyStore interface {
	StrategySettings(ctx context.Context) (model.UserStrategySettings, error)
	BoostConfigs(ctx context.Context) ([]model.BoostConfig, error)
}

// StaticPolicy is a PolicyStore over already-loaded configuration.
type StaticPolicy struct {
	Settings model.UserStrategySettings
	Boosts   []model.BoostConfig
}

// StrategySettings implements PolicyStore.
func (p StaticPolicy) StrategySettings(context.Context) (model.UserStrategySettings, error) {
	return p.Settings, nil
}

// BoostConfigs implements PolicyStore.
func (p StaticPolicy) BoostConfigs(context.Context) ([]model.BoostConfig, error) {
	return p.Boosts, nil
}
