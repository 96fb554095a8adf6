package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/ports"
)

func TestFearGreed_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"value":"25","value_classification":"Fear","timestamp":"1748779200"}]}`))
	}))
	defer srv.Close()

	client := NewAlternativeMeClient(5 * time.Second)
	client.baseURL = srv.URL

	fg, err := client.FearGreed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, fg.Value)
	assert.Equal(t, "Fear", fg.Classification)
	assert.Equal(t, "buy", fg.Signal)
	assert.Equal(t, time.Unix(1748779200, 0).UTC(), fg.Timestamp)
}

func TestFearGreed_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewAlternativeMeClient(5 * time.Second)
	client.baseURL = srv.URL

	_, err := client.FearGreed(context.Background())
	assert.True(t, errors.Is(err, ports.ErrExternalFetch))
}

func TestFearGreed_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewAlternativeMeClient(5 * time.Second)
	client.baseURL = srv.URL

	_, err := client.FearGreed(context.Background())
	assert.True(t, errors.Is(err, ports.ErrExternalFetch))
}

func TestDominance_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/global", r.URL.Path)
		w.Write([]byte(`{"data":{"market_cap_percentage":{"btc":58.2,"eth":12.1},"total_market_cap":{"usd":2500000000000}}}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient([]string{"BTC", "ETH"}, 5*time.Second)
	client.baseURL = srv.URL

	d, err := client.Dominance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 58.2, d.BTC, 0.001)
	assert.InDelta(t, 12.1, d.ETH, 0.001)
	assert.Equal(t, "btc_season", d.Regime)
}

func TestPrices_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":50000,"usd_24h_change":4.2},"ethereum":{"usd":3000,"usd_24h_change":-1.5}}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient([]string{"BTC", "ETH", "SOL"}, 5*time.Second)
	client.baseURL = srv.URL

	ps, err := client.Prices(context.Background())
	require.NoError(t, err)

	btc, ok := ps.Quotes["BTC"]
	require.True(t, ok)
	assert.Equal(t, 50000.0, btc.Price)
	assert.InDelta(t, 4.2, btc.Change24h, 0.001)

	// SOL was tracked but absent from the response.
	_, ok = ps.Quotes["SOL"]
	assert.False(t, ok)
}

func TestPrices_RateLimitEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit."}}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient([]string{"BTC"}, 5*time.Second)
	client.baseURL = srv.URL

	_, err := client.Prices(context.Background())
	assert.True(t, errors.Is(err, ports.ErrExternalFetch))
}

func TestPrice_SingleSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"solana":{"usd":150.25}}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient([]string{"BTC", "SOL"}, 5*time.Second)
	client.baseURL = srv.URL

	price, err := client.Price(context.Background(), "sol")
	require.NoError(t, err)
	assert.Equal(t, 150.25, price)
}

func TestPrice_UnknownSymbol(t *testing.T) {
	client := NewCoinGeckoClient([]string{"BTC"}, 5*time.Second)

	_, err := client.Price(context.Background(), "DOGE")
	assert.True(t, errors.Is(err, ports.ErrPriceUnavailable))
}

func TestInterpretFearGreed(t *testing.T) {
	tests := []struct {
		value  int
		signal string
	}{
		{10, "strong_buy"},
		{20, "strong_buy"},
		{35, "buy"},
		{50, "neutral"},
		{70, "sell"},
		{90, "strong_sell"},
	}
	for _, tt := range tests {
		signal, note := interpretFearGreed(tt.value)
		assert.Equal(t, tt.signal, signal, "value %d", tt.value)
		assert.NotEmpty(t, note)
	}
}

func TestInterpretDominance(t *testing.T) {
	tests := []struct {
		dominance float64
		regime    string
	}{
		{60, "btc_season"},
		{55, "btc_season"},
		{50, "neutral"},
		{40, "alt_season"},
	}
	for _, tt := range tests {
		regime, _ := interpretDominance(tt.dominance)
		assert.Equal(t, tt.regime, regime, "dominance %.1f", tt.dominance)
	}
}

func TestAnnualizeFundingRate(t *testing.T) {
	// 0.01% per 8h settlement is roughly 11% annualized.
	assert.InDelta(t, 10.95, annualizeFundingRate(0.0001), 0.001)
	assert.Zero(t, annualizeFundingRate(0))
}

func TestInterpretFundingRate(t *testing.T) {
	tests := []struct {
		rate   float64
		signal string
	}{
		{0.0006, "bearish"},      // ~65.7% annualized
		{0.0003, "cautious"},     // ~32.8%
		{0.0001, "neutral"},      // ~11%
		{-0.0003, "bullish"},     // ~-32.8%
		{-0.0006, "very_bullish"}, // ~-65.7%
	}
	for _, tt := range tests {
		signal, _ := interpretFundingRate(tt.rate)
		assert.Equal(t, tt.signal, signal, "rate %v", tt.rate)
	}
}
