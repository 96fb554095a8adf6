package domain

import "time"

// SuggestionType identifies which strategy parameter a suggestion targets.
type SuggestionType string

const (
	SuggestRaiseMinConfidence   SuggestionType = "RAISE_MIN_CONFIDENCE"
	SuggestLowerMinConfidence   SuggestionType = "LOWER_MIN_CONFIDENCE"
	SuggestTightenStopLoss      SuggestionType = "TIGHTEN_STOP_LOSS"
	SuggestWidenStopLoss        SuggestionType = "WIDEN_STOP_LOSS"
	SuggestIncreaseRegimeWeight SuggestionType = "INCREASE_REGIME_WEIGHT"
	SuggestDecreaseRegimeWeight SuggestionType = "DECREASE_REGIME_WEIGHT"
	SuggestIncreasePositionSize SuggestionType = "INCREASE_POSITION_SIZE"
	SuggestDecreasePositionSize SuggestionType = "DECREASE_POSITION_SIZE"
)

// Suggestion is a proposed, approval-gated change to exactly one strategy
// configuration field. The learner never applies its own suggestions.
type Suggestion struct {
	Type      SuggestionType `json:"type"`
	Reason    string         `json:"reason"`
	Current   float64        `json:"current"`
	Suggested float64        `json:"suggested"`
	Impact    string         `json:"impact"`
}

// AnalysisMetrics are the windowed performance figures behind an analysis.
type AnalysisMetrics struct {
	WinRate  float64 `json:"winRate"` // 0..1
	AvgWin   float64 `json:"avgWin"`
	AvgLoss  float64 `json:"avgLoss"` // negative or zero
	TotalPNL float64 `json:"totalPnl"`
}

// PerformanceAnalysis is the learner's output for one lookback window.
type PerformanceAnalysis struct {
	Timestamp    time.Time        `json:"timestamp"`
	LookbackDays int              `json:"lookbackDays"`
	TradeCount   int              `json:"tradeCount"`
	Metrics      *AnalysisMetrics `json:"metrics,omitempty"`
	Suggestions  []Suggestion     `json:"suggestions"`
	Insights     []string         `json:"insights"`
}

// Learning event types.
const (
	LearningEventAnalysis     = "ANALYSIS"
	LearningEventConfigChange = "CONFIG_CHANGE"
)

// LearningEvent is one immutable entry in the capped learning log: either
// a performance analysis or an applied configuration change.
type LearningEvent struct {
	Timestamp     time.Time            `json:"timestamp"`
	Type          string               `json:"type"`
	Analysis      *PerformanceAnalysis `json:"analysis,omitempty"`
	Field         string               `json:"field,omitempty"`
	OldValue      float64              `json:"oldValue,omitempty"`
	NewValue      float64              `json:"newValue,omitempty"`
	Reason        string               `json:"reason,omitempty"`
	ConfigVersion int                  `json:"configVersion,omitempty"`
}
