package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler func(w http.ResponseWriter, hit int32)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handler(w, hits.Add(1))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func fastRetry(attempts int) common.RetryOptions {
	return common.RetryOptions{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestHTTPProvider_GetRate(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, _ int32) {
		_, _ = w.Write([]byte(`{"base_code":"USD","rates":{"JPY":149.85,"EUR":0.92}}`))
	})

	p, err := NewHTTPProvider(Config{URL: srv.URL, Currency: "jpy", Retry: fastRetry(1)})
	require.NoError(t, err)

	rate, err := p.GetRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 149.85, rate, 1e-9)
}

func TestHTTPProvider_RetriesServerErrors(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, hit int32) {
		if hit < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"rates":{"JPY":150}}`))
	})

	p, err := NewHTTPProvider(Config{URL: srv.URL, Retry: fastRetry(3)})
	require.NoError(t, err)

	rate, err := p.GetRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 150, rate, 1e-9)
	assert.EqualValues(t, 3, hits.Load())
}

func TestHTTPProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantHit int32
	}{
		{"client error is not retried", http.StatusNotFound, "", 1},
		{"missing currency", http.StatusOK, `{"rates":{"EUR":0.9}}`, 1},
		{"malformed body", http.StatusOK, `not json`, 1},
		{"zero rate", http.StatusOK, `{"rates":{"JPY":0}}`, 1},
		{"server error exhausts retries", http.StatusInternalServerError, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newServer(t, func(w http.ResponseWriter, _ int32) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			p, err := NewHTTPProvider(Config{URL: srv.URL, Retry: fastRetry(2)})
			require.NoError(t, err)

			rate, err := p.GetRate(context.Background())
			require.Error(t, err)
			assert.Zero(t, rate)
			assert.ErrorIs(t, err, common.ErrExternalDependency)
			assert.Equal(t, tt.wantHit, hits.Load())
		})
	}
}

func TestHTTPProvider_BreakerOpens(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, _ int32) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	p, err := NewHTTPProvider(Config{
		URL:             srv.URL,
		Retry:           fastRetry(1),
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := p.GetRate(context.Background())
		assert.ErrorIs(t, err, common.ErrExternalDependency)
	}
	assert.EqualValues(t, 2, hits.Load(), "open breaker short-circuits requests")
}

func TestHTTPProvider_MaxAge(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, _ int32) {
		_, _ = w.Write([]byte(`{"rates":{"JPY":151}}`))
	})

	p, err := NewHTTPProvider(Config{URL: srv.URL, MaxAge: time.Minute, Retry: fastRetry(1)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rate, err := p.GetRate(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 151, rate, 1e-9)
	}
	assert.EqualValues(t, 1, hits.Load())
}

func TestNewHTTPProvider_RequiresURL(t *testing.T) {
	_, err := NewHTTPProvider(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestStaticProvider(t *testing.T) {
	rate, err := StaticProvider{Rate: 150}.GetRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 150, rate, 1e-9)

	_, err = StaticProvider{}.GetRate(context.Background())
	assert.ErrorIs(t, err, common.ErrValidation)
}
