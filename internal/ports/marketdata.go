package ports

import (
	"context"

	"papertrader/internal/domain"
)

// SentimentSource fetches the crowd sentiment (fear & greed) index.
type SentimentSource interface {
	FearGreed(ctx context.Context) (*domain.FearGreed, error)
}

// DominanceSource fetches global market-cap distribution stats.
type DominanceSource interface {
	Dominance(ctx context.Context) (*domain.Dominance, error)
}

// FundingSource fetches the latest perpetual funding rate.
type FundingSource interface {
	FundingRate(ctx context.Context) (*domain.Funding, error)
}

// PriceSource fetches spot prices for the tracked symbol set.
type PriceSource interface {
	// Prices fetches quotes with 24h change for all tracked symbols.
	Prices(ctx context.Context) (*domain.PriceSet, error)
	// Price fetches the current spot price for one symbol.
	Price(ctx context.Context, symbol string) (float64, error)
}

// ContextProvider derives the aggregated market context. Implementations
// degrade to a neutral context on total external outage instead of
// returning an error.
type ContextProvider interface {
	Context(ctx context.Context) *domain.MarketContext
}
