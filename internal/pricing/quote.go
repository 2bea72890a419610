package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/listwise/internal/common"
)

// Quote fetches the current exchange rate and solves with it. A failed or
// non-positive rate fails the request; no stale or default rate is used.
func (s *Solver) Quote(ctx context.Context, rates ExchangeRateProvider, in Input) (*Result, error) {
	rate, err := rates.GetRate(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrExternalDependency) {
			err = common.NewDependencyError("exchange rate", err)
		}
		return nil, fmt.Errorf("failed to fetch exchange rate: %w", err)
	}
	if rate <= 0 {
		return nil, common.NewDependencyError("exchange rate", fmt.Errorf("provider returned non-positive rate %v", rate))
	}
	in.ExchangeRate = rate
	return s.ComputeBreakEvenPrice(ctx, in)
}
