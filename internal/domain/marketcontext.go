package domain

import "time"

// FearGreed is the crowd sentiment index reading (0 = extreme fear,
// 100 = extreme greed), interpreted contrarian.
type FearGreed struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
	Signal         string    `json:"signal"` // strong_buy .. strong_sell
	Note           string    `json:"note"`
}

// Dominance holds global market-cap distribution stats.
type Dominance struct {
	BTC            float64 `json:"btcDominance"`
	ETH            float64 `json:"ethDominance"`
	TotalMarketCap float64 `json:"totalMarketCap"`
	Regime         string  `json:"regime"` // btc_season, neutral, alt_season
	Note           string  `json:"note"`
}

// Funding is the latest BTC perpetual funding-rate reading.
type Funding struct {
	Rate       float64 `json:"btcFundingRate"`
	Annualized float64 `json:"annualized"` // 8-hour rate scaled to annual %
	Signal     string  `json:"signal"`     // very_bullish .. bearish
	Note       string  `json:"note"`
}

// Quote is a spot price with its 24h change percentage.
type Quote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

// PriceSet is a snapshot of spot prices for the tracked symbol set.
// Cached marks a snapshot served from the last-good persisted cache after
// a fetch failure; CacheAge tells the caller how stale it is.
type PriceSet struct {
	Quotes    map[string]Quote `json:"quotes"` // keyed by upper-case symbol
	Timestamp time.Time        `json:"timestamp"`
	Cached    bool             `json:"cached,omitempty"`
	CacheAge  time.Duration    `json:"cacheAge,omitempty"`
}

// Quote returns the quote for a symbol, if present.
func (ps *PriceSet) Quote(symbol string) (Quote, bool) {
	if ps == nil {
		return Quote{}, false
	}
	q, ok := ps.Quotes[symbol]
	return q, ok
}

// ContextComponents are the four independently fallible sub-fetches; any
// of them may be nil when its source is unavailable.
type ContextComponents struct {
	FearGreed *FearGreed `json:"fearGreed"`
	Dominance *Dominance `json:"btcDominance"`
	Funding   *Funding   `json:"funding"`
	Prices    *PriceSet  `json:"prices"`
}

// SignalCounts are the bullish/bearish tallies behind a regime call.
type SignalCounts struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
}

// RegimeAdvice is the coarse positioning recommendation attached to a
// regime label.
type RegimeAdvice struct {
	SizeFraction float64 `json:"positionSize"` // 0..1 of normal size
	Bias         string  `json:"bias"`         // long, short, none
	Note         string  `json:"note"`
}

// MarketContext is derived afresh on every call and never persisted as
// authoritative state; only last-good prices are cached.
type MarketContext struct {
	Timestamp  time.Time         `json:"timestamp"`
	Regime     Regime            `json:"regime"`
	Confidence float64           `json:"confidence"`
	Components ContextComponents `json:"components"`
	Signals    SignalCounts      `json:"signals"`
	Advice     RegimeAdvice      `json:"recommendation"`
}

// Snapshot extracts the compact context slice recorded with trades.
func (m *MarketContext) Snapshot() ContextSnapshot {
	snap := ContextSnapshot{}
	if m == nil {
		return snap
	}
	snap.Regime = m.Regime
	if fg := m.Components.FearGreed; fg != nil {
		v := fg.Value
		snap.FearGreed = &v
	}
	if q, ok := m.Components.Prices.Quote("BTC"); ok {
		c := q.Change24h
		snap.BTCChange24h = &c
	}
	return snap
}
