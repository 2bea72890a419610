// Package metrics records pipeline and pricing outcomes as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/Veraticus/listwise/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricDecisionsTotal    = "listwise_decisions_total"
	MetricExclusionsTotal   = "listwise_exclusions_total"
	MetricBreakEvenTotal    = "listwise_breakeven_total"
	MetricIncompleteTotal   = "listwise_breakeven_incomplete_total"
	MetricOperationDuration = "listwise_operation_duration_seconds"
	MetricBatchItemsTotal   = "listwise_batch_items_total"
)

// Break-even outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
)

// Recorder owns a private registry so that several recorders never collide.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Recorder struct {
	registry   *prometheus.Registry
	decisions  *prometheus.CounterVec
	exclusions *prometheus.CounterVec
	breakEven  *prometheus.CounterVec
	incomplete prometheus.Counter
	duration   *prometheus.HistogramVec
	batchItems *prometheus.CounterVec
}

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDecisionsTotal,
			Help: "Listing decisions by outcome and target platform.",
		}, []string{"outcome", "platform"}),
		exclusions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricExclusionsTotal,
			Help: "Candidates excluded, by pipeline layer.",
		}, []string{"layer"}),
		breakEven: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBreakEvenTotal,
			Help: "Break-even computations by outcome.",
		}, []string{"outcome"}),
		incomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricIncompleteTotal,
			Help: "Break-even results computed with fallback data.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricOperationDuration,
			Help:    "Duration of core operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBatchItemsTotal,
			Help: "Batch items by status.",
		}, []string{"status"}),
	}

	r.registry.MustRegister(r.decisions, r.exclusions, r.breakEven, r.incomplete, r.duration, r.batchItems)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveDecision records one pipeline result.
func (r *Recorder) ObserveDecision(result *model.ListingStrategyResult, elapsed time.Duration) {
	if r == nil || result == nil {
		return
	}
	outcome, platform := "skip", ""
	if result.Decision.ShouldList && result.Decision.Target != nil {
		outcome, platform = "list", result.Decision.Target.Platform
	}
	r.decisions.WithLabelValues(outcome, platform).Inc()

	for _, ev := range result.Evaluations {
		if fail, excluded := ev.Excluded(); excluded {
			r.exclusions.WithLabelValues(fail.Layer.String()).Inc()
		}
	}
	r.duration.WithLabelValues("evaluate").Observe(elapsed.Seconds())
}

// ObserveBreakEven records one solver call.
func (r *Recorder) ObserveBreakEven(outcome string, complete bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.breakEven.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK && !complete {
		r.incomplete.Inc()
	}
	r.duration.WithLabelValues("breakeven").Observe(elapsed.Seconds())
}

// ObserveBatchItem records the status of one batch item.
func (r *Recorder) ObserveBatchItem(status string) {
	if r == nil {
		return
	}
	r.batchItems.WithLabelValues(status).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// for pickup by a node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
