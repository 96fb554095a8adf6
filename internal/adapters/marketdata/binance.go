package marketdata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

// BinanceFundingClient fetches the latest perpetual funding rate from the
// Binance futures public API. No API keys are needed for this endpoint.
type BinanceFundingClient struct {
	client *futures.Client
	symbol string
}

// NewBinanceFundingClient creates a funding-rate source for the given
// perpetual contract symbol (e.g. "BTCUSDT").
func NewBinanceFundingClient(symbol string) *BinanceFundingClient {
	return &BinanceFundingClient{
		client: futures.NewClient("", ""),
		symbol: symbol,
	}
}

// FundingRate fetches the most recent funding-rate reading with its
// positioning interpretation.
func (c *BinanceFundingClient) FundingRate(ctx context.Context) (*domain.Funding, error) {
	rates, err := c.client.NewFundingRateService().Symbol(c.symbol).Limit(1).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding rate for %s: %w", c.symbol, err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no funding rate data for %s: %w", c.symbol, ports.ErrExternalFetch)
	}

	rate, err := strconv.ParseFloat(rates[0].FundingRate, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid funding rate %q: %w", rates[0].FundingRate, err)
	}

	f := &domain.Funding{
		Rate:       rate,
		Annualized: annualizeFundingRate(rate),
	}
	f.Signal, f.Note = interpretFundingRate(rate)
	return f, nil
}

// annualizeFundingRate scales an 8-hour funding rate to an annual
// percentage (three settlements per day).
func annualizeFundingRate(rate float64) float64 {
	return rate * 3 * 365 * 100
}

func interpretFundingRate(rate float64) (signal, note string) {
	annualized := annualizeFundingRate(rate)
	switch {
	case annualized > 50:
		return "bearish", "Longs overcrowded, squeeze risk"
	case annualized > 20:
		return "cautious", "Positive but elevated"
	case annualized > -20:
		return "neutral", "Balanced positioning"
	case annualized > -50:
		return "bullish", "Shorts elevated, squeeze potential"
	default:
		return "very_bullish", "Shorts extremely overcrowded"
	}
}
