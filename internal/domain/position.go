package domain

import (
	"math"
	"time"
)

// Position is an open holding inside the paper portfolio. Shorts are
// simplified: the cost basis is tracked like a long's, with no margin or
// borrow cost modelled.
type Position struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"` // LONG or SHORT
	Quantity  float64   `json:"quantity"`
	CostBasis float64   `json:"costBasis"` // cumulative dollars paid in
	AvgPrice  float64   `json:"avgPrice"`
	OpenedAt  time.Time `json:"openedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnrealizedPNL marks the position to the given price.
func (p *Position) UnrealizedPNL(price float64) float64 {
	if p.Direction == Short {
		return (p.AvgPrice - price) * p.Quantity
	}
	return (price - p.AvgPrice) * p.Quantity
}

// MarketValue is the position's contribution to total portfolio value at
// the given price.
func (p *Position) MarketValue(price float64) float64 {
	if p.Direction == Short {
		return p.CostBasis + p.UnrealizedPNL(price)
	}
	return p.Quantity * price
}

// Exhausted reports whether the position has been reduced to nothing and
// should be removed from the portfolio.
func (p *Position) Exhausted() bool {
	return p.Quantity <= 0 || math.Abs(p.Quantity) < 1e-9
}
