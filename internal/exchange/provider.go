// Package exchange fetches the origin-per-target exchange rate used by the pricing solver.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// ErrRateMissing is returned when the response does not carry the requested currency.
var ErrRateMissing = errors.New("rate missing from response")

// Config configures the HTTP provider.
type Config struct {
	// URL returns JSON of the form {"rates": {"JPY": 150.2, ...}} relative to the target currency.
	URL string
	// Currency is the origin currency code looked up in "rates".
	Currency string
	Timeout  time.Duration
	// MaxAge lets concurrent callers share a rate fetched within this window. Zero disables.
	MaxAge time.Duration
	Retry  common.RetryOptions
	// BreakerFailures consecutive failures open the circuit for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// HTTPProvider fetches rates over HTTP behind a circuit breaker. Concurrent
// fetches collapse into one request. A failure is always returned to the
// caller; no stale or default rate is substituted.
type HTTPProvider struct {
	fetchedAt time.Time
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	cfg       Config
	group     singleflight.Group
	rate      float64
	mu        sync.Mutex
}

// NewHTTPProvider creates a provider from cfg.
func NewHTTPProvider(cfg Config) (*HTTPProvider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: exchange.url is required", common.ErrMissingConfig)
	}
	if cfg.Currency == "" {
		cfg.Currency = "JPY"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "exchange-rate",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &HTTPProvider{
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		cfg:     cfg,
	}, nil
}

// GetRate returns origin-currency units per target-currency unit.
func (p *HTTPProvider) GetRate(ctx context.Context) (float64, error) {
	if rate, ok := p.cached(); ok {
		return rate, nil
	}

	v, err, _ := p.group.Do(p.cfg.Currency, func() (any, error) {
		var rate float64
		err := common.WithRetry(ctx, func() error {
			out, err := p.breaker.Execute(func() (any, error) {
				return p.fetch(ctx)
			})
			if err != nil {
				return err
			}
			rate = out.(float64)
			return nil
		}, p.cfg.Retry)
		if err != nil {
			return 0, err
		}

		p.mu.Lock()
		p.rate, p.fetchedAt = rate, time.Now()
		p.mu.Unlock()
		return rate, nil
	})
	if err != nil {
		return 0, common.NewDependencyError("exchange rate", err)
	}
	return v.(float64), nil
}

func (p *HTTPProvider) cached() (float64, bool) {
	if p.cfg.MaxAge <= 0 {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rate > 0 && time.Since(p.fetchedAt) < p.cfg.MaxAge {
		return p.rate, true
	}
	return 0, false
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (p *HTTPProvider) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("Failed to close response body", "error", cerr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, common.ErrRateLimit
	case resp.StatusCode >= 500:
		return 0, &common.RetryableError{Err: fmt.Errorf("server error: %s", resp.Status), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	rate, ok := parsed.Rates[strings.ToUpper(p.cfg.Currency)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRateMissing, p.cfg.Currency)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("non-positive rate %v for %s", rate, p.cfg.Currency)
	}
	return rate, nil
}

// StaticProvider returns a fixed rate, e.g. one passed on the command line.
type StaticProvider struct {
	Rate float64
}

// GetRate implements the provider contract. A non-positive rate is an error.
func (s StaticProvider) GetRate(context.Context) (float64, error) {
	if s.Rate <= 0 {
		return 0, common.NewValidationError("exchange_rate", "must be positive")
	}
	return s.Rate, nil
}
