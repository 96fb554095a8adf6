// Package marketcontext aggregates the external data feeds into a single
// market regime assessment with a confidence score. Every sub-fetch is
// independently fallible; a total outage degrades to a neutral context
// instead of an error.
package marketcontext

import (
	"context"
	"fmt"
	"sync"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

// Service derives the aggregated market context. It implements
// ports.ContextProvider.
type Service struct {
	sentiment ports.SentimentSource
	dominance ports.DominanceSource
	funding   ports.FundingSource
	prices    ports.PriceSource
	cache     ports.PriceCacheStore
	logger    ports.Logger
	now       func() time.Time
}

// Config holds the aggregator's dependencies. Sources may be nil, in
// which case their component is simply always absent.
type Config struct {
	Sentiment ports.SentimentSource
	Dominance ports.DominanceSource
	Funding   ports.FundingSource
	Prices    ports.PriceSource
	Cache     ports.PriceCacheStore
	Logger    ports.Logger
}

// New creates a market context service.
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for market context service")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("price cache store is required for market context service")
	}
	return &Service{
		sentiment: cfg.Sentiment,
		dominance: cfg.Dominance,
		funding:   cfg.Funding,
		prices:    cfg.Prices,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Context fetches the four data sources concurrently, joins them and
// derives the market regime. Failed sources contribute nil components.
func (s *Service) Context(ctx context.Context) *domain.MarketContext {
	var (
		wg        sync.WaitGroup
		fearGreed *domain.FearGreed
		dominance *domain.Dominance
		funding   *domain.Funding
		prices    *domain.PriceSet
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		fearGreed = s.fetchFearGreed(ctx)
	}()
	go func() {
		defer wg.Done()
		dominance = s.fetchDominance(ctx)
	}()
	go func() {
		defer wg.Done()
		funding = s.fetchFunding(ctx)
	}()
	go func() {
		defer wg.Done()
		prices = s.fetchPrices(ctx)
	}()
	wg.Wait()

	bullish, bearish := countSignals(fearGreed, funding, prices)
	regime, confidence := deriveRegime(bullish, bearish)

	return &domain.MarketContext{
		Timestamp:  s.now().UTC(),
		Regime:     regime,
		Confidence: confidence,
		Components: domain.ContextComponents{
			FearGreed: fearGreed,
			Dominance: dominance,
			Funding:   funding,
			Prices:    prices,
		},
		Signals: domain.SignalCounts{Bullish: bullish, Bearish: bearish},
		Advice:  adviceFor(regime),
	}
}

// Price resolves a spot price for one symbol, preferring the aggregated
// (possibly cached) price set before a direct lookup.
func (s *Service) Price(ctx context.Context, symbol string) (float64, error) {
	if prices := s.fetchPrices(ctx); prices != nil {
		if q, ok := prices.Quote(symbol); ok && q.Price > 0 {
			return q.Price, nil
		}
	}
	if s.prices == nil {
		return 0, fmt.Errorf("no price source configured: %w", ports.ErrPriceUnavailable)
	}
	price, err := s.prices.Price(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("spot lookup for %s failed: %w", symbol, err)
	}
	return price, nil
}

func (s *Service) fetchFearGreed(ctx context.Context) *domain.FearGreed {
	if s.sentiment == nil {
		return nil
	}
	fg, err := s.sentiment.FearGreed(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Fear & greed fetch failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return fg
}

func (s *Service) fetchDominance(ctx context.Context) *domain.Dominance {
	if s.dominance == nil {
		return nil
	}
	d, err := s.dominance.Dominance(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Dominance fetch failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return d
}

func (s *Service) fetchFunding(ctx context.Context) *domain.Funding {
	if s.funding == nil {
		return nil
	}
	f, err := s.funding.FundingRate(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Funding rate fetch failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return f
}

// fetchPrices fetches live prices, falling back to the last-good cached
// snapshot annotated with its age. Successful fetches refresh the cache.
func (s *Service) fetchPrices(ctx context.Context) *domain.PriceSet {
	if s.prices == nil {
		return s.cachedPrices(ctx)
	}
	ps, err := s.prices.Prices(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Price fetch failed, falling back to cache", map[string]interface{}{"error": err.Error()})
		return s.cachedPrices(ctx)
	}
	if err := s.cache.PutPrices(ctx, ps); err != nil {
		s.logger.Warn(ctx, "Failed to save price cache", map[string]interface{}{"error": err.Error()})
	}
	return ps
}

func (s *Service) cachedPrices(ctx context.Context) *domain.PriceSet {
	cached, err := s.cache.GetPrices(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Price cache read failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if cached == nil || len(cached.Quotes) == 0 {
		return nil
	}
	age := s.now().UTC().Sub(cached.Timestamp)
	cached.Cached = true
	cached.CacheAge = age
	s.logger.Info(ctx, "Using cached prices", map[string]interface{}{"ageMinutes": int(age.Minutes())})
	return cached
}

// countSignals tallies bullish and bearish votes from sentiment
// (contrarian), funding skew and 24h BTC momentum.
func countSignals(fearGreed *domain.FearGreed, funding *domain.Funding, prices *domain.PriceSet) (bullish, bearish int) {
	if fearGreed != nil {
		if fearGreed.Value < 30 {
			bullish++ // Contrarian: fear = bullish
		}
		if fearGreed.Value > 70 {
			bearish++ // Contrarian: greed = bearish
		}
	}
	if funding != nil {
		switch funding.Signal {
		case "bullish", "very_bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}
	if q, ok := prices.Quote("BTC"); ok {
		if q.Change24h > 3 {
			bullish++ // Momentum
		}
		if q.Change24h < -3 {
			bearish++
		}
	}
	return bullish, bearish
}

// deriveRegime maps signal counts to a regime label and confidence. The
// ordering and thresholds are a fixed policy, reproduced exactly.
func deriveRegime(bullish, bearish int) (domain.Regime, float64) {
	switch {
	case bullish >= 2 && bearish == 0:
		return domain.RegimeRiskOn, capConfidence(0.7 + float64(bullish)*0.1)
	case bearish >= 2 && bullish == 0:
		return domain.RegimeRiskOff, capConfidence(0.7 + float64(bearish)*0.1)
	case bullish > bearish:
		return domain.RegimeSlightRiskOn, 0.55
	case bearish > bullish:
		return domain.RegimeSlightRiskOff, 0.55
	default:
		return domain.RegimeNeutral, 0.5
	}
}

func capConfidence(c float64) float64 {
	if c > 1 {
		return 1
	}
	return c
}

func adviceFor(regime domain.Regime) domain.RegimeAdvice {
	switch regime {
	case domain.RegimeRiskOn:
		return domain.RegimeAdvice{SizeFraction: 1.0, Bias: "long", Note: "Favorable conditions for long positions"}
	case domain.RegimeSlightRiskOn:
		return domain.RegimeAdvice{SizeFraction: 0.75, Bias: "long", Note: "Cautiously bullish, reduce size slightly"}
	case domain.RegimeSlightRiskOff:
		return domain.RegimeAdvice{SizeFraction: 0.25, Bias: "short", Note: "Cautiously bearish, minimal exposure"}
	case domain.RegimeRiskOff:
		return domain.RegimeAdvice{SizeFraction: 0, Bias: "short", Note: "Unfavorable conditions, stay flat or short only"}
	default:
		return domain.RegimeAdvice{SizeFraction: 0.5, Bias: "none", Note: "Mixed signals, reduce exposure"}
	}
}
