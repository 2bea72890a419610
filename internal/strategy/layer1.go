package strategy

import (
	"fmt"

	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/rules"
)

// SystemInputs are the externally resolved facts Layer 1 decides on.
type SystemInputs struct {
	// Lock is the current exclusivity holder of the SKU, nil when free.
	Lock *model.LockHolder
	// Rule is the platform rule outcome for the candidate's platform.
	Rule           rules.Evaluation
	MinGlobalScore float64
}

// CheckSystemConstraints applies the hard exclusions in order: exclusivity lock,
// platform rule, stock and score floor. The first failure is returned.
func CheckSystemConstraints(item model.Item, cand model.MarketplaceCandidate, in SystemInputs) model.FilterResult {
	if in.Lock != nil && !in.Lock.Matches(cand) {
		return model.Fail(model.LayerSystem, fmt.Sprintf("SKU locked to %s", in.Lock))
	}

	if !in.Rule.Allowed {
		reason := in.Rule.Reason
		if reason == "" {
			reason = "blocked by platform rule"
		}
		return model.Fail(model.LayerSystem, fmt.Sprintf("platform rule: %s", reason))
	}

	if item.StockQuantity <= 0 {
		return model.Fail(model.LayerSystem, fmt.Sprintf("out of stock (quantity %d)", item.StockQuantity))
	}

	if item.GlobalScore < in.MinGlobalScore {
		return model.Fail(model.LayerSystem, fmt.Sprintf("global score %.2f below minimum %.2f", item.GlobalScore, in.MinGlobalScore))
	}

	return model.Pass(model.LayerSystem)
}
