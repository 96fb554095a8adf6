package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/domain"
)

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func freshPortfolio(capital float64) *domain.Portfolio {
	return domain.NewPortfolio(capital, testTime())
}

func marketWith(regime domain.Regime, fearGreed int) *domain.MarketContext {
	return &domain.MarketContext{
		Timestamp: testTime(),
		Regime:    regime,
		Components: domain.ContextComponents{
			FearGreed: &domain.FearGreed{Value: fearGreed},
		},
	}
}

func TestAnalyze_SizingRiskOnHighConfidence(t *testing.T) {
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9, Source: "test"},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	require.Equal(t, domain.Long, decision.Recommendation)
	// 10000 * 0.10 * (0.5 + 0.45) * 1.25 * 1.0
	assert.InDelta(t, 1187.50, decision.PositionSize, 0.001)
	require.NotNil(t, decision.Analysis.Regime)
	assert.Equal(t, domain.Aligned, decision.Analysis.Regime.Alignment)
	assert.Equal(t, "neutral", decision.Analysis.Sentiment.Signal)
}

func TestAnalyze_ConfidenceGate(t *testing.T) {
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.5},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	assert.Equal(t, domain.Skip, decision.Recommendation)
	require.Len(t, decision.Reasons, 1)
	assert.Contains(t, decision.Reasons[0], "Confidence 50% below minimum 60%")
	// Gate ordering: no later-stage analysis performed.
	assert.Nil(t, decision.Analysis.Regime)
}

func TestAnalyze_OpposingRegime(t *testing.T) {
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Short, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	assert.Equal(t, domain.Skip, decision.Recommendation)
	assert.Contains(t, decision.Reasons[0], "opposes market regime risk_on")
}

func TestAnalyze_LossCooldown(t *testing.T) {
	now := testTime()
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(now),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		LastLoss:  map[string]time.Time{"BTC": now.Add(-30 * time.Minute)},
		Now:       now,
	})

	assert.Equal(t, domain.Skip, decision.Recommendation)
	assert.Contains(t, decision.Reasons[0], "Loss cooldown active for BTC")
}

func TestAnalyze_CooldownExpired(t *testing.T) {
	now := testTime()
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(now),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		LastLoss:  map[string]time.Time{"BTC": now.Add(-90 * time.Minute)},
		Now:       now,
	})

	assert.Equal(t, domain.Long, decision.Recommendation)
}

func TestAnalyze_CooldownOtherSymbolUnaffected(t *testing.T) {
	now := testTime()
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(now),
		Signal:    domain.TradeSignal{Symbol: "ETH", Direction: domain.Long, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		LastLoss:  map[string]time.Time{"BTC": now.Add(-10 * time.Minute)},
		Now:       now,
	})

	assert.Equal(t, domain.Long, decision.Recommendation)
}

func TestAnalyze_ExposureGate(t *testing.T) {
	p := freshPortfolio(10000)
	p.Positions["BTC"] = &domain.Position{
		Symbol: "BTC", Direction: domain.Long, Quantity: 0.1, CostBasis: 5000, AvgPrice: 50000,
	}
	p.Cash = 5000

	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "ETH", Direction: domain.Long, Confidence: 0.9},
		Portfolio: p,
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	assert.Equal(t, domain.Skip, decision.Recommendation)
	assert.Contains(t, decision.Reasons[0], "max exposure")
	require.NotNil(t, decision.Analysis.Exposure)
	assert.True(t, decision.Analysis.Exposure.AtMaxExposure)
}

func TestAnalyze_SizeClampedToHeadroom(t *testing.T) {
	p := freshPortfolio(10000)
	p.Positions["BTC"] = &domain.Position{
		Symbol: "BTC", Direction: domain.Long, Quantity: 0.09, CostBasis: 4500, AvgPrice: 50000,
	}
	p.Cash = 5500

	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "ETH", Direction: domain.Long, Confidence: 0.9},
		Portfolio: p,
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	require.Equal(t, domain.Long, decision.Recommendation)
	// Headroom: 0.50*10000 - 4500 = 500, below the unclamped 1187.50.
	assert.InDelta(t, 500.0, decision.PositionSize, 0.001)
}

func TestAnalyze_SentimentOverlay(t *testing.T) {
	tests := []struct {
		name       string
		direction  domain.Direction
		fearGreed  int
		multiplier float64
		signal     string
	}{
		{"extreme fear supports long", domain.Long, 15, 1.25, "supportive"},
		{"extreme fear opposes short", domain.Short, 15, 0.75, "opposing"},
		{"extreme greed supports short", domain.Short, 85, 1.25, "supportive"},
		{"extreme greed opposes long", domain.Long, 85, 0.75, "opposing"},
		{"mid-range neutral", domain.Long, 50, 1.0, "neutral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regime := domain.RegimeNeutral
			decision := Analyze(Input{
				Config:    domain.DefaultStrategyConfig(testTime()),
				Signal:    domain.TradeSignal{Symbol: "BTC", Direction: tt.direction, Confidence: 0.9},
				Portfolio: freshPortfolio(10000),
				Market:    marketWith(regime, tt.fearGreed),
				Now:       testTime(),
			})
			require.NotNil(t, decision.Analysis.Sentiment)
			assert.Equal(t, tt.multiplier, decision.Analysis.Sentiment.Multiplier)
			assert.Equal(t, tt.signal, decision.Analysis.Sentiment.Signal)
		})
	}
}

func TestAnalyze_UnknownSentiment(t *testing.T) {
	mctx := &domain.MarketContext{Regime: domain.RegimeNeutral}
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Market:    mctx,
		Now:       testTime(),
	})

	require.NotNil(t, decision.Analysis.Sentiment)
	assert.Equal(t, "unknown", decision.Analysis.Sentiment.Signal)
	assert.Equal(t, 1.0, decision.Analysis.Sentiment.Multiplier)
}

func TestAnalyze_ProtectiveLevels(t *testing.T) {
	decision := Analyze(Input{
		Config:     domain.DefaultStrategyConfig(testTime()),
		Signal:     domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio:  freshPortfolio(10000),
		Market:     marketWith(domain.RegimeRiskOn, 50),
		EntryPrice: 50000,
		Now:        testTime(),
	})

	require.NotNil(t, decision.StopLoss)
	require.NotNil(t, decision.TakeProfit)
	assert.InDelta(t, 47500.0, *decision.StopLoss, 0.001)  // 50000 * 0.95
	assert.InDelta(t, 57500.0, *decision.TakeProfit, 0.001) // 50000 * 1.15

	short := Analyze(Input{
		Config:     domain.DefaultStrategyConfig(testTime()),
		Signal:     domain.TradeSignal{Symbol: "BTC", Direction: domain.Short, Confidence: 0.9},
		Portfolio:  freshPortfolio(10000),
		Market:     marketWith(domain.RegimeRiskOff, 50),
		EntryPrice: 50000,
		Now:        testTime(),
	})
	require.NotNil(t, short.StopLoss)
	assert.InDelta(t, 52500.0, *short.StopLoss, 0.001)
	assert.InDelta(t, 42500.0, *short.TakeProfit, 0.001)
}

func TestAnalyze_NoEntryPriceLeavesLevelsUnset(t *testing.T) {
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	assert.Equal(t, domain.Long, decision.Recommendation)
	assert.Nil(t, decision.StopLoss)
	assert.Nil(t, decision.TakeProfit)
}

func TestAnalyze_ZeroCashSkips(t *testing.T) {
	p := freshPortfolio(10000)
	p.Cash = 0

	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio: p,
		Market:    marketWith(domain.RegimeRiskOn, 50),
		Now:       testTime(),
	})

	assert.Equal(t, domain.Skip, decision.Recommendation)
	assert.Contains(t, decision.Reasons, "Position size calculated to zero")
}

func TestAnalyze_NilMarketTreatedAsNeutral(t *testing.T) {
	decision := Analyze(Input{
		Config:    domain.DefaultStrategyConfig(testTime()),
		Signal:    domain.TradeSignal{Symbol: "BTC", Direction: domain.Long, Confidence: 0.9},
		Portfolio: freshPortfolio(10000),
		Now:       testTime(),
	})

	require.Equal(t, domain.Long, decision.Recommendation)
	assert.Equal(t, domain.RegimeNeutral, decision.Analysis.Regime.Regime)
	assert.Equal(t, domain.NeutralAligned, decision.Analysis.Regime.Alignment)
}
