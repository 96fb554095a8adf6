package domain

import "time"

// RegimeAnalysis records how a signal direction lined up with the market
// regime and the resulting size multiplier.
type RegimeAnalysis struct {
	Regime         Regime    `json:"regime"`
	Direction      Direction `json:"direction"`
	Alignment      Alignment `json:"alignment"`
	SizeMultiplier float64   `json:"sizeMultiplier"`
}

// SentimentAnalysis records the contrarian fear/greed overlay applied to
// a signal.
type SentimentAnalysis struct {
	Known          bool    `json:"known"` // false when the index was unavailable
	Value          int     `json:"value,omitempty"`
	Classification string  `json:"classification,omitempty"` // extreme_fear, neutral, extreme_greed
	Signal         string  `json:"signal"`                   // supportive, neutral, opposing, unknown
	Multiplier     float64 `json:"multiplier"`
	Note           string  `json:"note,omitempty"`
}

// ExposureAnalysis records the portfolio exposure picture at decision time.
type ExposureAnalysis struct {
	TotalValue          float64 `json:"totalValue"`
	Cash                float64 `json:"cash"`
	TotalExposure       float64 `json:"totalExposure"`
	CurrentExposure     float64 `json:"currentExposure"` // fraction of total value
	MaxExposure         float64 `json:"maxExposure"`
	AtMaxExposure       bool    `json:"atMaxExposure"`
	HasExistingPosition bool    `json:"hasExistingPosition"`
	ExistingSize        float64 `json:"existingSize"`
	AvailableForNew     float64 `json:"availableForNew"` // exposure headroom in dollars
}

// DecisionAnalysis bundles the per-stage analyses behind a decision.
type DecisionAnalysis struct {
	Regime    *RegimeAnalysis    `json:"regime,omitempty"`
	Sentiment *SentimentAnalysis `json:"sentiment,omitempty"`
	Exposure  *ExposureAnalysis  `json:"exposure,omitempty"`
}

// Decision is the ephemeral output of the decision policy: a gated and
// sized recommendation with a full reason trail. It has no side effects;
// execution is the orchestrator's job.
type Decision struct {
	Timestamp        time.Time        `json:"timestamp"`
	Symbol           string           `json:"symbol"`
	SignalDirection  Direction        `json:"signalDirection"`
	SignalConfidence float64          `json:"signalConfidence"`
	SignalSource     string           `json:"signalSource"`
	Context          ContextSnapshot  `json:"marketContext"`
	Analysis         DecisionAnalysis `json:"analysis"`
	Recommendation   Direction        `json:"recommendation"` // LONG, SHORT, FLAT or SKIP
	PositionSize     float64          `json:"positionSize"`
	StopLoss         *float64         `json:"stopLoss,omitempty"`
	TakeProfit       *float64         `json:"takeProfit,omitempty"`
	Reasons          []string         `json:"reasons"`
}

// Actionable reports whether the decision calls for a ledger execution.
func (d *Decision) Actionable() bool {
	return d.Recommendation != Skip && d.Recommendation != Flat && d.PositionSize > 0
}
