// Package analytics computes realized performance statistics over the
// trade history.
package analytics

import (
	"papertrader/internal/domain"
)

// Compute summarizes portfolio state and realized trade outcomes.
// Open-side trades count toward TotalTrades but not the win/loss stats.
func Compute(portfolio *domain.Portfolio, trades []*domain.TradeRecord) *domain.PerformanceStats {
	stats := &domain.PerformanceStats{}
	if portfolio != nil {
		stats.StartingCapital = portfolio.StartingCapital
		stats.CurrentValue = portfolio.TotalValue
		stats.Cash = portfolio.Cash
		stats.OpenPositions = len(portfolio.Positions)
		stats.TotalPNLPct = portfolio.PNLPercent()
	}

	var (
		wins, losses            int
		winSum, lossSum         float64
		largestWin, largestLoss float64
	)
	for _, t := range trades {
		stats.TotalTrades++
		if !t.Closed() {
			continue
		}
		stats.ClosedTrades++
		pnl := t.RealizedPNL()
		stats.TotalPNL += pnl
		switch {
		case pnl > 0:
			wins++
			winSum += pnl
			if pnl > largestWin {
				largestWin = pnl
			}
		case pnl < 0:
			losses++
			lossSum += pnl
			if pnl < largestLoss {
				largestLoss = pnl
			}
		}
	}

	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(wins) / float64(stats.ClosedTrades) * 100
	}
	if wins > 0 {
		stats.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		stats.AvgLoss = lossSum / float64(losses)
	}
	if stats.AvgLoss != 0 {
		stats.ProfitFactor = stats.AvgWin / -stats.AvgLoss
	}
	stats.LargestWin = largestWin
	stats.LargestLoss = largestLoss
	return stats
}
