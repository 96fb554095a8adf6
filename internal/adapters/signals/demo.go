// Package signals provides pluggable trade signal sources for the
// trading loop.
package signals

import (
	"context"
	"math"
	"math/rand"
	"time"

	"papertrader/internal/domain"
)

// DemoSource generates synthetic signals for testing the full pipeline
// without a real signal feed. Emission is probabilistic and the
// direction mix is biased by the current regime.
type DemoSource struct {
	symbols []string
	rng     *rand.Rand
	now     func() time.Time
}

// NewDemoSource creates a demo signal generator over the given symbols.
// A nil rng seeds from the current time.
func NewDemoSource(symbols []string, rng *rand.Rand) *DemoSource {
	if len(symbols) == 0 {
		symbols = []string{"BTC", "ETH", "SOL"}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DemoSource{symbols: symbols, rng: rng, now: time.Now}
}

// Signals emits at most one signal per call, 30% of the time. Risk-on
// regimes favor longs 70/20/10, risk-off the mirror, neutral 40/40/20.
func (s *DemoSource) Signals(_ context.Context, mctx *domain.MarketContext) ([]domain.TradeSignal, error) {
	if s.rng.Float64() > 0.3 {
		return nil, nil
	}

	symbol := s.symbols[s.rng.Intn(len(s.symbols))]
	regime := domain.RegimeNeutral
	if mctx != nil {
		regime = mctx.Regime
	}

	roll := s.rng.Float64()
	var direction domain.Direction
	switch {
	case regime.Bullish():
		switch {
		case roll < 0.7:
			direction = domain.Long
		case roll < 0.9:
			direction = domain.Short
		default:
			direction = domain.Flat
		}
	case regime.Bearish():
		switch {
		case roll < 0.7:
			direction = domain.Short
		case roll < 0.9:
			direction = domain.Long
		default:
			direction = domain.Flat
		}
	default:
		switch {
		case roll < 0.4:
			direction = domain.Long
		case roll < 0.8:
			direction = domain.Short
		default:
			direction = domain.Flat
		}
	}

	confidence := math.Round((0.4+s.rng.Float64()*0.5)*100) / 100

	return []domain.TradeSignal{{
		Symbol:     symbol,
		Direction:  direction,
		Confidence: confidence,
		Source:     "demo",
		Timestamp:  s.now().UTC(),
	}}, nil
}
