package pricing

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchOptions configures batch solving.
type BatchOptions struct {
	Workers       int     // Number of concurrent solves
	RatePerSecond float64 // Upper bound on solves started per second; 0 disables
}

// DefaultBatchOptions returns sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{Workers: 10}
}

// BatchItem is the outcome of one input. Exactly one of Result and Err is set.
// Skipped marks an input that never started because the batch was cancelled.
type BatchItem struct {
	Err     error   `json:"-"`
	Result  *Result `json:"result,omitempty"`
	SKU     string  `json:"sku,omitempty"`
	Error   string  `json:"error,omitempty"`
	Skipped bool    `json:"skipped,omitempty"`
}

// BatchResult aggregates independent solves. Min, Max and Average cover
// successful items only.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	Min       float64     `json:"min"`
	Max       float64     `json:"max"`
	Average   float64     `json:"average"`
}

// VariantGroupFloor is the price at which no variant of the group sells at a loss.
func (b *BatchResult) VariantGroupFloor() float64 {
	return b.Max
}

// ComputeBatch solves every input independently with bounded concurrency.
// A failing input is recorded and never aborts the others. Cancelling ctx
// skips the inputs not yet started; they are counted apart from failures.
func (s *Solver) ComputeBatch(ctx context.Context, inputs []Input, opts BatchOptions) (*BatchResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultBatchOptions().Workers
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	out := &BatchResult{Items: make([]BatchItem, len(inputs))}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			item := BatchItem{SKU: in.SKU}
			if err := ctx.Err(); err != nil {
				item.Err, item.Skipped = err, true
			} else if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					item.Err, item.Skipped = err, true
				}
			}
			if item.Err == nil {
				item.Result, item.Err = s.ComputeBreakEvenPrice(ctx, in)
			}
			if item.Err != nil {
				item.Error = item.Err.Error()
			}
			out.Items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	sum := 0.0
	for _, it := range out.Items {
		if it.Skipped {
			out.Skipped++
			continue
		}
		if it.Err != nil {
			out.Failed++
			continue
		}
		p := it.Result.BreakEvenPrice
		if out.Succeeded == 0 || p < out.Min {
			out.Min = p
		}
		if out.Succeeded == 0 || p > out.Max {
			out.Max = p
		}
		sum += p
		out.Succeeded++
	}
	if out.Succeeded > 0 {
		out.Average = sum / float64(out.Succeeded)
	}

	slog.Debug("Batch break-even complete", "succeeded", out.Succeeded, "failed", out.Failed, "skipped", out.Skipped)
	return out, ctx.Err()
}
