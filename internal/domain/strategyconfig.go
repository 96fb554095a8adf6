package domain

import "time"

// StrategyConfig is the versioned, mutable strategy parameter document.
// Exactly one current version is live; every change increments Version and
// is recorded as a learning event. Only the learner's apply step mutates it.
type StrategyConfig struct {
	MinConfidence       float64   `json:"minConfidence"`   // minimum signal confidence to trade
	BasePositionPct     float64   `json:"basePositionPct"` // base position size as % of portfolio
	MaxExposurePct      float64   `json:"maxExposurePct"`  // cap on summed position cost bases
	StopLossPct         float64   `json:"stopLossPct"`
	TakeProfitPct       float64   `json:"takeProfitPct"`
	RegimeWeight        float64   `json:"regimeWeight"`
	SentimentWeight     float64   `json:"sentimentWeight"`
	LossCooldownMinutes int       `json:"lossCooldownMinutes"` // per-symbol cooldown after a realized loss
	Version             int       `json:"version"`
	UpdatedAt           time.Time `json:"updatedAt"`
	UpdatedReason       string    `json:"updatedReason"`
}

// DefaultStrategyConfig returns the initial parameter set materialized on
// first read when no configuration exists yet.
func DefaultStrategyConfig(now time.Time) *StrategyConfig {
	return &StrategyConfig{
		MinConfidence:       0.6,
		BasePositionPct:     0.10,
		MaxExposurePct:      0.50,
		StopLossPct:         0.05,
		TakeProfitPct:       0.15,
		RegimeWeight:        1.0,
		SentimentWeight:     1.0,
		LossCooldownMinutes: 60,
		Version:             1,
		UpdatedAt:           now,
		UpdatedReason:       "Initial configuration",
	}
}

// LossCooldown returns the cooldown window as a duration.
func (c *StrategyConfig) LossCooldown() time.Duration {
	return time.Duration(c.LossCooldownMinutes) * time.Minute
}
