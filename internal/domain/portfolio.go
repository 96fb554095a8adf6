package domain

import "time"

// Portfolio is the simulated paper-trading ledger state. It is owned by
// the portfolio ledger and mutated only through its trade execution
// operation; cash never goes negative after an executed trade.
type Portfolio struct {
	StartingCapital float64              `json:"startingCapital"`
	Cash            float64              `json:"cash"`
	Positions       map[string]*Position `json:"positions"`
	TotalValue      float64              `json:"totalValue"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// NewPortfolio creates a fresh portfolio holding only cash.
func NewPortfolio(startingCapital float64, now time.Time) *Portfolio {
	return &Portfolio{
		StartingCapital: startingCapital,
		Cash:            startingCapital,
		Positions:       make(map[string]*Position),
		TotalValue:      startingCapital,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// TotalExposure is the sum of all position cost bases.
func (p *Portfolio) TotalExposure() float64 {
	var total float64
	for _, pos := range p.Positions {
		total += pos.CostBasis
	}
	return total
}

// ExposurePct is the fraction of portfolio value committed to open
// positions. Falls back to starting capital when total value has never
// been computed.
func (p *Portfolio) ExposurePct() float64 {
	base := p.TotalValue
	if base == 0 {
		base = p.StartingCapital
	}
	if base == 0 {
		return 0
	}
	return p.TotalExposure() / base
}

// PNL is the portfolio's total profit and loss since inception.
func (p *Portfolio) PNL() float64 {
	return p.TotalValue - p.StartingCapital
}

// PNLPercent is PNL expressed as a percentage of starting capital.
func (p *Portfolio) PNLPercent() float64 {
	if p.StartingCapital == 0 {
		return 0
	}
	return p.PNL() / p.StartingCapital * 100
}
