package strategy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/listwise/internal/candidate"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/lock"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ebayA   = model.MarketplaceCandidate{Platform: "ebay", AccountID: "us-a", AccountName: "eBay A", Country: "US"}
	ebayB   = model.MarketplaceCandidate{Platform: "ebay", AccountID: "us-b", AccountName: "eBay B", Country: "US"}
	amazon  = model.MarketplaceCandidate{Platform: "amazon_us", AccountID: "main", AccountName: "Amazon", Country: "US"}
	shopeeA = model.MarketplaceCandidate{Platform: "shopee", AccountID: "sg-1", AccountName: "Shopee", Country: "SG"}
)

func testItem() model.Item {
	return model.Item{
		SKU:           "CAM-001",
		Category:      "Camera",
		Condition:     model.ConditionUsed,
		Price:         45000,
		StockQuantity: 1,
		GlobalScore:   80,
	}
}

func newTestEngine(locks lock.Service, policy StaticPolicy, cfg Config) *Engine {
	return NewWithConfig(locks, rules.NewChecker(rules.NewRuleSet(rules.DefaultRules())), policy, cfg)
}

func TestEngine_BoostOrdersEqualScores(t *testing.T) {
	policy := StaticPolicy{Boosts: []model.BoostConfig{
		{Platform: "ebay", AccountID: "us-a", Components: model.BoostComponents{Performance: 0.9, Competition: 1, CategoryFit: 1}},
		{Platform: "ebay", AccountID: "us-b", Components: model.BoostComponents{Performance: 1.2, Competition: 1, CategoryFit: 1}},
	}}
	engine := newTestEngine(lock.NewMemoryService(), policy, DefaultConfig())

	result, err := engine.EvaluateListingStrategy(context.Background(), testItem(), []model.MarketplaceCandidate{ebayA, ebayB})
	require.NoError(t, err)

	require.Len(t, result.Ranked, 2)
	assert.Equal(t, ebayB, result.Ranked[0].Candidate)
	assert.Greater(t, result.Ranked[0].Score.FinalScore, result.Ranked[1].Score.FinalScore)

	require.True(t, result.Decision.ShouldList)
	assert.Equal(t, ebayB, *result.Decision.Target)
}

func TestEngine_Layer1FailureNeverReachesLaterLayers(t *testing.T) {
	policy := StaticPolicy{Settings: model.UserStrategySettings{
		MinScores: []model.MinScore{{Platform: "shopee", Score: 99}},
	}}
	engine := newTestEngine(lock.NewMemoryService(), policy, DefaultConfig())

	item := testItem()
	item.Category = "Electronics"
	result, err := engine.EvaluateListingStrategy(context.Background(), item, []model.MarketplaceCandidate{amazon, ebayA, ebayB, shopeeA})
	require.NoError(t, err)

	byKey := map[string]model.CandidateEvaluation{}
	for _, ev := range result.Evaluations {
		byKey[ev.Candidate.Key()] = ev
	}

	// amazon_us rejects used electronics before the user policy is consulted.
	rejected := byKey["amazon_us/main"]
	require.Len(t, rejected.Results, 1)
	assert.False(t, rejected.Results[0].Passed)
	assert.Equal(t, model.LayerSystem, rejected.Results[0].Layer)
	assert.Nil(t, rejected.Score)

	// shopee clears the system constraints and then fails its minimum score.
	shopee := byKey["shopee/sg-1"]
	require.Len(t, shopee.Results, 2)
	assert.True(t, shopee.Results[0].Passed)
	assert.Equal(t, model.LayerUser, shopee.Results[1].Layer)
	assert.False(t, shopee.Results[1].Passed)
	assert.Nil(t, shopee.Score)

	require.Len(t, result.Ranked, 2)
	for _, ranked := range result.Ranked {
		assert.Equal(t, "ebay", ranked.Candidate.Platform)
	}
	assert.Len(t, result.Exclusions, 2)
	require.True(t, result.Decision.ShouldList)
	assert.Equal(t, "ebay", result.Decision.Target.Platform)
}

func TestEngine_LockLeavesOnlyHolder(t *testing.T) {
	locks := lock.NewMemoryService()
	require.NoError(t, locks.AcquireLock(context.Background(), "CAM-001", "ebay", "us-a"))
	engine := newTestEngine(locks, StaticPolicy{}, DefaultConfig())

	result, err := engine.EvaluateListingStrategy(context.Background(), testItem(), []model.MarketplaceCandidate{ebayA, ebayB, shopeeA})
	require.NoError(t, err)

	for _, ev := range result.Evaluations {
		if ev.Candidate == ebayA {
			continue
		}
		require.Len(t, ev.Results, 1, ev.Candidate.Key())
		assert.Equal(t, model.LayerSystem, ev.Results[0].Layer)
		assert.Contains(t, ev.Results[0].Reason, "ebay/us-a")
	}

	require.Len(t, result.Ranked, 1)
	assert.Equal(t, ebayA, result.Ranked[0].Candidate)
	assert.Len(t, result.Exclusions, 2)
	assert.Equal(t, ebayA, *result.Decision.Target)
}

func TestEngine_NoSurvivors(t *testing.T) {
	engine := newTestEngine(nil, StaticPolicy{}, DefaultConfig())

	item := testItem()
	item.StockQuantity = 0
	result, err := engine.EvaluateListingStrategy(context.Background(), item, []model.MarketplaceCandidate{ebayA, shopeeA})
	require.NoError(t, err)

	assert.False(t, result.Decision.ShouldList)
	assert.Nil(t, result.Decision.Target)
	assert.Empty(t, result.Ranked)
	assert.Contains(t, result.Decision.Reason, "ebay/us-a excluded at layer 1")
	assert.Contains(t, result.Decision.Reason, "shopee/sg-1 excluded at layer 1")
	assert.Contains(t, result.Decision.Reason, "out of stock")
}

func TestEngine_Validation(t *testing.T) {
	engine := newTestEngine(nil, StaticPolicy{}, DefaultConfig())

	_, err := engine.EvaluateListingStrategy(context.Background(), testItem(), nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	item := testItem()
	item.SKU = ""
	_, err = engine.EvaluateListingStrategy(context.Background(), item, []model.MarketplaceCandidate{ebayA})
	assert.ErrorIs(t, err, common.ErrValidation)
}

type failingLocks struct{ lock.MemoryService }

func (*failingLocks) GetActiveLock(context.Context, string) (*model.LockHolder, error) {
	return nil, errors.New("redis down")
}

func TestEngine_LockFailureIsFatal(t *testing.T) {
	engine := newTestEngine(&failingLocks{}, StaticPolicy{}, DefaultConfig())

	_, err := engine.EvaluateListingStrategy(context.Background(), testItem(), []model.MarketplaceCandidate{ebayA})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExternalDependency)
}

func TestEngine_FeasibilityFallsThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Feasibility = func(_ context.Context, _ model.Item, c model.MarketplaceCandidate) (bool, string, error) {
		if c.AccountID == "us-a" {
			return false, "break-even above item price", nil
		}
		return true, "", nil
	}
	policy := StaticPolicy{Boosts: []model.BoostConfig{
		{Platform: "ebay", AccountID: "us-a", Components: model.BoostComponents{Performance: 2, Competition: 1, CategoryFit: 1}},
	}}
	engine := newTestEngine(nil, policy, cfg)

	result, err := engine.EvaluateListingStrategy(context.Background(), testItem(), []model.MarketplaceCandidate{ebayA, ebayB})
	require.NoError(t, err)

	require.True(t, result.Decision.ShouldList)
	assert.Equal(t, ebayB, *result.Decision.Target)
	require.Len(t, result.Exclusions, 1)
	assert.Contains(t, result.Exclusions[0], "break-even above item price")
}

func TestEngine_FeasibilityErrorAbortsItem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Feasibility = func(context.Context, model.Item, model.MarketplaceCandidate) (bool, string, error) {
		return false, "", common.NewDependencyError("exchange rate", errors.New("timeout"))
	}
	engine := newTestEngine(nil, StaticPolicy{}, cfg)

	_, err := engine.EvaluateListingStrategy(context.Background(), testItem(), []model.MarketplaceCandidate{ebayA})
	assert.ErrorIs(t, err, common.ErrExternalDependency)
}

func TestEngine_EvaluateBatch(t *testing.T) {
	registry := candidate.NewStaticRegistry([]model.Account{
		{Platform: "ebay", ID: "us-a", Active: true},
		{Platform: "amazon_us", ID: "main", Active: true},
	})
	engine := newTestEngine(lock.NewMemoryService(), StaticPolicy{}, DefaultConfig())

	weapon := testItem()
	weapon.SKU, weapon.Category = "KNIFE-1", "Weapons"
	invalid := testItem()
	invalid.SKU = ""

	var seen atomic.Int32
	summary, err := engine.EvaluateBatch(context.Background(),
		[]model.Item{testItem(), weapon, invalid},
		candidate.NewGenerator(registry),
		BatchOptions{Workers: 2, Progress: func(BatchItemResult) { seen.Add(1) }},
	)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Items, 3)
	assert.Equal(t, StatusListed, summary.Items[0].Status)
	assert.Equal(t, StatusSkipped, summary.Items[1].Status)
	assert.Equal(t, StatusFailed, summary.Items[2].Status)
	assert.Equal(t, 1, summary.Listed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.EqualValues(t, 3, seen.Load())
	assert.Contains(t, summary.GetDisplay(), `"listed":1`)
}

func TestEngine_EvaluateBatchKeepsRunID(t *testing.T) {
	registry := candidate.NewStaticRegistry([]model.Account{{Platform: "ebay", ID: "us-a", Active: true}})
	engine := newTestEngine(nil, StaticPolicy{}, DefaultConfig())

	summary, err := engine.EvaluateBatch(context.Background(), []model.Item{testItem()},
		candidate.NewGenerator(registry), BatchOptions{RunID: "run-42"})
	require.NoError(t, err)
	assert.Equal(t, "run-42", summary.RunID)
}

func TestEngine_EvaluateBatchCancelled(t *testing.T) {
	registry := candidate.NewStaticRegistry([]model.Account{{Platform: "ebay", ID: "us-a", Active: true}})
	engine := newTestEngine(nil, StaticPolicy{}, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := engine.EvaluateBatch(ctx, []model.Item{testItem(), testItem()}, candidate.NewGenerator(registry), DefaultBatchOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.Skipped)
}
