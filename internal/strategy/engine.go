// Package strategy implements the three-layer listing pipeline: system
// constraints, user strategy and scoring.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/lock"
	"github.com/Veraticus/listwise/internal/metrics"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/rules"
)

// RuleEvaluator decides platform eligibility for an item.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, platform, category string, condition model.Condition, hsCode string) (rules.Evaluation, error)
}

// FeasibilityCheck is consulted for the top-ranked candidate before it is
// recommended. A false result moves on to the next candidate.
type FeasibilityCheck func(ctx context.Context, item model.Item, cand model.MarketplaceCandidate) (ok bool, reason string, err error)

// Config holds configuration options for the engine.
type Config struct {
	Composer       BoostComposer
	Feasibility    FeasibilityCheck
	Recorder       *metrics.Recorder
	MinGlobalScore float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Composer: ProductComposer,
	}
}

// Engine runs the listing strategy pipeline for one item at a time.
// It holds no per-item state and is safe for concurrent use.
type Engine struct {
	locks  lock.Service
	rules  RuleEvaluator
	policy PolicyStore
	config Config
}

// New creates an engine with the default configuration.
func New(locks lock.Service, ruleEval RuleEvaluator, policy PolicyStore) *Engine {
	return NewWithConfig(locks, ruleEval, policy, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
// A nil lock service disables the exclusivity check.
func NewWithConfig(locks lock.Service, ruleEval RuleEvaluator, policy PolicyStore, config Config) *Engine {
	if config.Composer == nil {
		config.Composer = ProductComposer
	}
	if policy == nil {
		policy = StaticPolicy{}
	}
	return &Engine{
		locks:  locks,
		rules:  ruleEval,
		policy: policy,
		config: config,
	}
}

// EvaluateListingStrategy runs every candidate through the three layers and
// recommends at most one. Lock and rule lookups that fail abort the item.
func (e *Engine) EvaluateListingStrategy(ctx context.Context, item model.Item, candidates []model.MarketplaceCandidate) (*model.ListingStrategyResult, error) {
	start := time.Now()

	if err := e.validateInput(item, candidates); err != nil {
		return nil, err
	}

	holder, err := e.activeLock(ctx, item.SKU)
	if err != nil {
		return nil, err
	}

	ruleResults, err := e.evaluateRules(ctx, item, candidates)
	if err != nil {
		return nil, err
	}

	settings, err := e.policy.StrategySettings(ctx)
	if err != nil {
		return nil, common.NewDependencyError("policy store", err)
	}
	boosts, err := e.policy.BoostConfigs(ctx)
	if err != nil {
		return nil, common.NewDependencyError("policy store", err)
	}

	result := &model.ListingStrategyResult{
		SKU:         item.SKU,
		Candidates:  candidates,
		Evaluations: make([]model.CandidateEvaluation, 0, len(candidates)),
	}

	var survivors []model.CandidateEvaluation
	for _, cand := range candidates {
		eval := model.CandidateEvaluation{Candidate: cand}

		r1 := CheckSystemConstraints(item, cand, SystemInputs{
			Lock:           holder,
			Rule:           ruleResults[cand.Platform],
			MinGlobalScore: e.config.MinGlobalScore,
		})
		eval.Results = append(eval.Results, r1)
		if r1.Passed {
			r2 := ApplyUserStrategy(item, cand, settings)
			eval.Results = append(eval.Results, r2)
			if r2.Passed {
				score := Score(item, cand, boosts, e.config.Composer)
				eval.Score = &score
				eval.Results = append(eval.Results, model.Pass(model.LayerScoring))
			}
		}

		if fail, excluded := eval.Excluded(); excluded {
			result.Exclusions = append(result.Exclusions, exclusionLine(cand, fail))
		} else {
			survivors = append(survivors, eval)
		}
		result.Evaluations = append(result.Evaluations, eval)
	}

	Rank(survivors)
	result.Ranked = survivors

	decision, err := e.decide(ctx, item, result)
	if err != nil {
		return nil, err
	}
	result.Decision = decision

	slog.Debug("Evaluated listing strategy",
		"sku", item.SKU,
		"candidates", len(candidates),
		"survivors", len(survivors),
		"should_list", decision.ShouldList)

	e.config.Recorder.ObserveDecision(result, time.Since(start))
	return result, nil
}

func (e *Engine) validateInput(item model.Item, candidates []model.MarketplaceCandidate) error {
	if err := common.ValidateStruct(item); err != nil {
		return err
	}
	if len(candidates) == 0 {
		return common.NewValidationError("candidates", "at least one candidate is required")
	}
	return nil
}

func (e *Engine) activeLock(ctx context.Context, sku string) (*model.LockHolder, error) {
	if e.locks == nil {
		return nil, nil
	}
	holder, err := e.locks.GetActiveLock(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock for %s: %w", sku, common.NewDependencyError("lock service", err))
	}
	return holder, nil
}

func (e *Engine) evaluateRules(ctx context.Context, item model.Item, candidates []model.MarketplaceCandidate) (map[string]rules.Evaluation, error) {
	out := make(map[string]rules.Evaluation)
	for _, c := range candidates {
		if _, done := out[c.Platform]; done {
			continue
		}
		if e.rules == nil {
			out[c.Platform] = rules.Evaluation{Allowed: true}
			continue
		}
		ev, err := e.rules.Evaluate(ctx, c.Platform, item.Category, item.Condition, item.HS())
		if err != nil {
			return nil, common.NewDependencyError("rule source", err)
		}
		out[c.Platform] = ev
	}
	return out, nil
}

// decide walks the ranking and recommends the first feasible candidate.
func (e *Engine) decide(ctx context.Context, item model.Item, result *model.ListingStrategyResult) (model.Decision, error) {
	for i := range result.Ranked {
		top := &result.Ranked[i]

		if e.config.Feasibility != nil {
			ok, reason, err := e.config.Feasibility(ctx, item, top.Candidate)
			if err != nil {
				return model.Decision{}, fmt.Errorf("feasibility check for %s: %w", top.Candidate.Key(), err)
			}
			if !ok {
				fail := model.Fail(model.LayerScoring, "infeasible: "+reason)
				top.Results = append(top.Results, fail)
				markEvaluation(result.Evaluations, top.Candidate, fail)
				result.Exclusions = append(result.Exclusions, exclusionLine(top.Candidate, fail))
				continue
			}
		}

		target := top.Candidate
		return model.Decision{
			ShouldList: true,
			Target:     &target,
			Reason: fmt.Sprintf("ranked first of %d eligible candidates with final score %.2f",
				len(result.Ranked), top.Score.FinalScore),
		}, nil
	}

	reason := "no eligible candidates"
	if len(result.Exclusions) > 0 {
		reason += ": " + strings.Join(result.Exclusions, "; ")
	}
	return model.Decision{ShouldList: false, Reason: reason}, nil
}

func markEvaluation(evals []model.CandidateEvaluation, cand model.MarketplaceCandidate, fail model.FilterResult) {
	for i := range evals {
		if evals[i].Candidate == cand {
			evals[i].Results = append(evals[i].Results, fail)
			return
		}
	}
}

func exclusionLine(cand model.MarketplaceCandidate, fail model.FilterResult) string {
	return fmt.Sprintf("%s excluded at layer %d (%s): %s", cand.Key(), fail.Layer, fail.Layer, fail.Reason)
}
