package domain

// PerformanceStats summarizes realized trading performance over the full
// trade history, alongside the current portfolio state.
type PerformanceStats struct {
	StartingCapital float64 `json:"startingCapital"`
	CurrentValue    float64 `json:"currentValue"`
	Cash            float64 `json:"cash"`
	OpenPositions   int     `json:"openPositions"`

	TotalTrades  int     `json:"totalTrades"`
	ClosedTrades int     `json:"closedTrades"`
	WinRate      float64 `json:"winRate"` // percent
	TotalPNL     float64 `json:"totalPnl"`
	TotalPNLPct  float64 `json:"totalPnlPercent"`
	AvgWin       float64 `json:"avgWin"`
	AvgLoss      float64 `json:"avgLoss"` // negative or zero
	ProfitFactor float64 `json:"profitFactor"`
	LargestWin   float64 `json:"largestWin"`
	LargestLoss  float64 `json:"largestLoss"`
}
