package strategy

import (
	"sort"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// BoostComposer folds the boost components into one multiplier.
type BoostComposer func(model.BoostComponents) float64

// ProductComposer multiplies the three components. It is the default.
func ProductComposer(b model.BoostComponents) float64 {
	return b.Performance * b.Competition * b.CategoryFit
}

// WeightedSum returns a composer computing a weighted sum of the components.
// With weights summing to 1, neutral components still yield 1.0.
func WeightedSum(performance, competition, categoryFit float64) BoostComposer {
	return func(b model.BoostComponents) float64 {
		return performance*b.Performance + competition*b.Competition + categoryFit*b.CategoryFit
	}
}

// ResolveBoost picks the most specific config for cand and category:
// platform+account+category, then platform+account, then platform+category,
// then platform. Without a match every component is 1.0.
func ResolveBoost(configs []model.BoostConfig, cand model.MarketplaceCandidate, category string) model.BoostComponents {
	best, bestSpec := model.NeutralBoost(), -1
	for _, c := range configs {
		if !strings.EqualFold(c.Platform, cand.Platform) {
			continue
		}
		if c.AccountID != "" && c.AccountID != cand.AccountID {
			continue
		}
		if c.Category != "" && !categoryIn(category, []string{c.Category}) {
			continue
		}
		if spec := c.Specificity(); spec > bestSpec {
			best, bestSpec = c.Components, spec
		}
	}
	return best
}

// Score computes the Layer 3 result for a surviving candidate.
func Score(item model.Item, cand model.MarketplaceCandidate, configs []model.BoostConfig, compose BoostComposer) model.ScoringResult {
	if compose == nil {
		compose = ProductComposer
	}
	components := ResolveBoost(configs, cand, item.Category)
	return model.NewScoringResult(item.GlobalScore, compose(components), components)
}

// Rank orders scored evaluations by final score descending.
// Ties break on account ID, then platform, so the order is deterministic.
func Rank(evals []model.CandidateEvaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		si, sj := finalScore(evals[i]), finalScore(evals[j])
		if si != sj {
			return si > sj
		}
		if evals[i].Candidate.AccountID != evals[j].Candidate.AccountID {
			return evals[i].Candidate.AccountID < evals[j].Candidate.AccountID
		}
		return evals[i].Candidate.Platform < evals[j].Candidate.Platform
	})
}

func finalScore(e model.CandidateEvaluation) float64 {
	if e.Score == nil {
		return 0
	}
	return e.Score.FinalScore
}
