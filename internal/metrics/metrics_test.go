package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/listwise/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveDecision(t *testing.T) {
	r := NewRecorder()
	target := model.MarketplaceCandidate{Platform: "ebay", AccountID: "us-a"}

	r.ObserveDecision(&model.ListingStrategyResult{
		SKU:      "A1",
		Decision: model.Decision{ShouldList: true, Target: &target},
		Evaluations: []model.CandidateEvaluation{
			{Candidate: target, Results: []model.FilterResult{model.Pass(model.LayerSystem)}},
			{Results: []model.FilterResult{model.Fail(model.LayerSystem, "locked")}},
			{Results: []model.FilterResult{model.Pass(model.LayerSystem), model.Fail(model.LayerUser, "price")}},
		},
	}, 10*time.Millisecond)
	r.ObserveDecision(&model.ListingStrategyResult{SKU: "A2"}, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(r.decisions.WithLabelValues("list", "ebay")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.decisions.WithLabelValues("skip", "")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.exclusions.WithLabelValues(model.LayerSystem.String())), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.exclusions.WithLabelValues(model.LayerUser.String())), 1e-9)
}

func TestRecorder_ObserveBreakEven(t *testing.T) {
	r := NewRecorder()
	r.ObserveBreakEven(OutcomeOK, true, time.Millisecond)
	r.ObserveBreakEven(OutcomeOK, false, time.Millisecond)
	r.ObserveBreakEven(OutcomeInfeasible, false, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(r.breakEven.WithLabelValues(OutcomeOK)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.breakEven.WithLabelValues(OutcomeInfeasible)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.incomplete), 1e-9)
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveDecision(&model.ListingStrategyResult{}, time.Second)
		r.ObserveBreakEven(OutcomeOK, true, time.Second)
		r.ObserveBatchItem("success")
	})
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveBatchItem("success")

	path := filepath.Join(t.TempDir(), "listwise.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), MetricBatchItemsTotal)
}
