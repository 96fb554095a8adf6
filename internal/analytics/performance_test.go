package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"papertrader/internal/domain"
)

func closed(pnl float64) *domain.TradeRecord {
	pct := pnl / 10
	return &domain.TradeRecord{
		ID:         "trade_x",
		Timestamp:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Symbol:     "BTC",
		Direction:  domain.Close,
		PNL:        &pnl,
		PNLPercent: &pct,
	}
}

func open(size float64) *domain.TradeRecord {
	return &domain.TradeRecord{
		ID:        "trade_y",
		Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Symbol:    "BTC",
		Direction: domain.Long,
		Size:      size,
	}
}

func TestCompute_MixedHistory(t *testing.T) {
	portfolio := domain.NewPortfolio(10000, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	portfolio.Cash = 9000
	portfolio.Positions = map[string]*domain.Position{
		"BTC": {Symbol: "BTC", Direction: domain.Long, Quantity: 0.02, AvgPrice: 50000, CostBasis: 1000},
	}
	portfolio.TotalValue = 10150

	trades := []*domain.TradeRecord{
		open(1000),
		closed(200),
		closed(100),
		closed(-50),
		closed(-150),
		open(500),
	}

	stats := Compute(portfolio, trades)

	assert.Equal(t, 10000.0, stats.StartingCapital)
	assert.Equal(t, 10150.0, stats.CurrentValue)
	assert.Equal(t, 1, stats.OpenPositions)
	assert.Equal(t, 6, stats.TotalTrades)
	assert.Equal(t, 4, stats.ClosedTrades)
	assert.InDelta(t, 50.0, stats.WinRate, 0.001)
	assert.InDelta(t, 100.0, stats.TotalPNL, 0.001)
	assert.InDelta(t, 1.5, stats.TotalPNLPct, 0.001)
	assert.InDelta(t, 150.0, stats.AvgWin, 0.001)
	assert.InDelta(t, -100.0, stats.AvgLoss, 0.001)
	assert.InDelta(t, 1.5, stats.ProfitFactor, 0.001)
	assert.Equal(t, 200.0, stats.LargestWin)
	assert.Equal(t, -150.0, stats.LargestLoss)
}

func TestCompute_NoClosedTrades(t *testing.T) {
	portfolio := domain.NewPortfolio(10000, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

	stats := Compute(portfolio, []*domain.TradeRecord{open(1000)})

	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 0, stats.ClosedTrades)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.ProfitFactor)
}

func TestCompute_AllWinsHasNoProfitFactor(t *testing.T) {
	stats := Compute(nil, []*domain.TradeRecord{closed(100), closed(50)})

	assert.Equal(t, 2, stats.ClosedTrades)
	assert.InDelta(t, 100.0, stats.WinRate, 0.001)
	assert.Zero(t, stats.ProfitFactor) // undefined without losses
	assert.Zero(t, stats.AvgLoss)
}

func TestCompute_NilPortfolio(t *testing.T) {
	stats := Compute(nil, nil)
	assert.Zero(t, stats.StartingCapital)
	assert.Zero(t, stats.TotalTrades)
}
