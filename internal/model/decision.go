package model

import "time"

// Layer identifies a stage of the listing strategy pipeline.
type Layer int

// Pipeline layers.
const (
	LayerSystem  Layer = 1
	LayerUser    Layer = 2
	LayerScoring Layer = 3
)

func (l Layer) String() string {
	switch l {
	case LayerSystem:
		return "system constraints"
	case LayerUser:
		return "user strategy"
	case LayerScoring:
		return "scoring"
	}
	return "unknown"
}

// FilterResult is the outcome of one layer for one candidate.
type FilterResult struct {
	Reason string `json:"reason,omitempty"`
	Layer  Layer  `json:"layer"`
	Passed bool   `json:"passed"`
}

// Pass returns a passing result for layer.
func Pass(layer Layer) FilterResult {
	return FilterResult{Passed: true, Layer: layer}
}

// Fail returns a failing result for layer with reason.
func Fail(layer Layer, reason string) FilterResult {
	return FilterResult{Passed: false, Layer: layer, Reason: reason}
}

// BoostComponents are the independently sourced multipliers of a candidate.
type BoostComponents struct {
	Performance float64 `json:"performance" yaml:"performance"`
	Competition float64 `json:"competition" yaml:"competition"`
	CategoryFit float64 `json:"category_fit" yaml:"category_fit"`
}

// NeutralBoost returns components that leave a score unchanged under product composition.
func NeutralBoost() BoostComponents {
	return BoostComponents{Performance: 1.0, Competition: 1.0, CategoryFit: 1.0}
}

// ScoringResult is the Layer 3 score of a candidate.
type ScoringResult struct {
	Breakdown       BoostComponents `json:"breakdown"`
	GlobalScore     float64         `json:"global_score"`
	BoostMultiplier float64         `json:"boost_multiplier"`
	FinalScore      float64         `json:"final_score"`
}

// NewScoringResult builds a scoring result; FinalScore is always GlobalScore × BoostMultiplier.
func NewScoringResult(globalScore, multiplier float64, breakdown BoostComponents) ScoringResult {
	return ScoringResult{
		GlobalScore:     globalScore,
		BoostMultiplier: multiplier,
		FinalScore:      globalScore * multiplier,
		Breakdown:       breakdown,
	}
}

// CandidateEvaluation collects every layer outcome for one candidate.
type CandidateEvaluation struct {
	Score     *ScoringResult       `json:"score,omitempty"`
	Candidate MarketplaceCandidate `json:"candidate"`
	Results   []FilterResult       `json:"results"`
}

// Excluded returns the failing result, if any.
func (e CandidateEvaluation) Excluded() (FilterResult, bool) {
	for _, r := range e.Results {
		if !r.Passed {
			return r, true
		}
	}
	return FilterResult{}, false
}

// Decision is the final listing verdict for an item.
type Decision struct {
	Target     *MarketplaceCandidate `json:"target,omitempty"`
	Reason     string                `json:"reason"`
	ShouldList bool                  `json:"should_list"`
}

// ListingStrategyResult is the full output of one pipeline run.
type ListingStrategyResult struct {
	SKU         string                 `json:"sku"`
	Candidates  []MarketplaceCandidate `json:"candidates"`
	Evaluations []CandidateEvaluation  `json:"evaluations"`
	Ranked      []CandidateEvaluation  `json:"ranked,omitempty"`
	Exclusions  []string               `json:"exclusions,omitempty"`
	Decision    Decision               `json:"decision"`
}

// DecisionRecord is one persisted decision-log entry.
type DecisionRecord struct {
	DecidedAt  time.Time              `json:"decided_at"`
	Target     *MarketplaceCandidate  `json:"target,omitempty"`
	Result     *ListingStrategyResult `json:"result,omitempty"`
	RunID      string                 `json:"run_id"`
	SKU        string                 `json:"sku"`
	Reason     string                 `json:"reason"`
	ID         int64                  `json:"id"`
	ShouldList bool                   `json:"should_list"`
}
