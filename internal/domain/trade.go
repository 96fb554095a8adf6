package domain

import "time"

// ContextSnapshot is the slice of market context recorded with each trade
// and decision for later analysis.
type ContextSnapshot struct {
	Regime       Regime   `json:"regime,omitempty"`
	FearGreed    *int     `json:"fearGreed,omitempty"`
	BTCChange24h *float64 `json:"btcChange24h,omitempty"`
}

// TradeRecord is an immutable append-only log entry describing one
// executed trade. It doubles as the audit trail and the learner's
// training signal. PNL fields are set only for trades that realized P&L
// (closes and long reductions).
type TradeRecord struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Symbol     string          `json:"symbol"`
	Direction  Direction       `json:"direction"`
	Size       float64         `json:"size"` // dollars committed (zero for closes)
	Quantity   float64         `json:"quantity"`
	Price      float64         `json:"price"`
	PNL        *float64        `json:"pnl,omitempty"`
	PNLPercent *float64        `json:"pnlPercent,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Signal     string          `json:"signal,omitempty"`     // signal source name
	Confidence float64         `json:"confidence,omitempty"` // signal confidence at execution
	Context    ContextSnapshot `json:"marketContext"`
}

// Closed reports whether the trade realized P&L.
func (t *TradeRecord) Closed() bool {
	return t.PNL != nil
}

// RealizedPNL returns the realized P&L, or 0 for open-side trades.
func (t *TradeRecord) RealizedPNL() float64 {
	if t.PNL == nil {
		return 0
	}
	return *t.PNL
}
