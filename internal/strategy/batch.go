package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/listwise/internal/model"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ItemStatus is the outcome of one item in a batch.
type ItemStatus string

// Batch item statuses.
const (
	StatusListed  ItemStatus = "listed"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// CandidateSource enumerates candidates for an item.
type CandidateSource interface {
	Generate(ctx context.Context, item model.Item) ([]model.MarketplaceCandidate, error)
}

// BatchOptions configures batch evaluation.
type BatchOptions struct {
	// Progress, when set, is called from worker goroutines after each item.
	Progress      func(BatchItemResult)
	RunID         string  // Generated when empty
	Workers       int     // Number of concurrent item evaluations
	RatePerSecond float64 // Upper bound on items started per second; 0 disables
}

// DefaultBatchOptions returns sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Workers: 10,
	}
}

// BatchItemResult is the outcome of one item.
type BatchItemResult struct {
	Err    error                        `json:"-"`
	Result *model.ListingStrategyResult `json:"result,omitempty"`
	SKU    string                       `json:"sku"`
	Status ItemStatus                   `json:"status"`
	Reason string                       `json:"reason"`
}

// BatchSummary aggregates a batch run. Items keep input order.
type BatchSummary struct {
	RunID          string
	Items          []BatchItemResult
	Listed         int
	Skipped        int
	Failed         int
	ProcessingTime time.Duration
}

// EvaluateBatch runs the pipeline over items with bounded concurrency.
// A failing item never aborts the batch. Cancelling ctx skips the items not
// yet started; the summary is returned together with ctx's error.
func (e *Engine) EvaluateBatch(ctx context.Context, items []model.Item, source CandidateSource, opts BatchOptions) (*BatchSummary, error) {
	start := time.Now()
	if opts.Workers <= 0 {
		opts.Workers = DefaultBatchOptions().Workers
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	summary := &BatchSummary{
		RunID: opts.RunID,
		Items: make([]BatchItemResult, len(items)),
	}

	slog.Info("Starting batch evaluation", "run_id", summary.RunID, "items", len(items), "workers", opts.Workers)

	var g errgroup.Group
	g.SetLimit(opts.Workers)

	for i, item := range items {
		g.Go(func() error {
			res := e.evaluateBatchItem(ctx, item, source, limiter)
			summary.Items[i] = res
			e.config.Recorder.ObserveBatchItem(string(res.Status))
			if opts.Progress != nil {
				opts.Progress(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, it := range summary.Items {
		switch it.Status {
		case StatusListed:
			summary.Listed++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}
	summary.ProcessingTime = time.Since(start)

	slog.Info("Batch evaluation complete",
		"run_id", summary.RunID,
		"listed", summary.Listed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.ProcessingTime)

	return summary, ctx.Err()
}

func (e *Engine) evaluateBatchItem(ctx context.Context, item model.Item, source CandidateSource, limiter *rate.Limiter) BatchItemResult {
	res := BatchItemResult{SKU: item.SKU}

	if err := ctx.Err(); err != nil {
		res.Status, res.Reason, res.Err = StatusSkipped, "cancelled before start", err
		return res
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			res.Status, res.Reason, res.Err = StatusSkipped, "cancelled while rate limited", err
			return res
		}
	}

	candidates, err := source.Generate(ctx, item)
	if err != nil {
		res.Status, res.Reason, res.Err = StatusFailed, fmt.Sprintf("candidate generation: %v", err), err
		return res
	}

	result, err := e.EvaluateListingStrategy(ctx, item, candidates)
	if err != nil {
		slog.Warn("Item evaluation failed", "sku", item.SKU, "error", err)
		res.Status, res.Reason, res.Err = StatusFailed, err.Error(), err
		return res
	}

	res.Result = result
	res.Reason = result.Decision.Reason
	if result.Decision.ShouldList {
		res.Status = StatusListed
	} else {
		res.Status = StatusSkipped
	}
	return res
}

// GetDisplay returns a JSON representation of the summary.
func (s *BatchSummary) GetDisplay() string {
	type summaryJSON struct {
		RunID          string `json:"run_id"`
		ProcessingTime string `json:"processing_time"`
		Total          int    `json:"total"`
		Listed         int    `json:"listed"`
		Skipped        int    `json:"skipped"`
		Failed         int    `json:"failed"`
	}

	data := summaryJSON{
		RunID:          s.RunID,
		Total:          len(s.Items),
		Listed:         s.Listed,
		Skipped:        s.Skipped,
		Failed:         s.Failed,
		ProcessingTime: s.ProcessingTime.Round(time.Millisecond).String(),
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal summary: %v"}`, err)
	}
	return string(bytes)
}
