package domain

import "time"

// PositionAction is one exit action taken (or proposed, in dry runs) by
// position management.
type PositionAction struct {
	Symbol string       `json:"symbol"`
	Action ExitReason   `json:"action"`
	Reason string       `json:"reason"`
	Trade  *TradeRecord `json:"trade,omitempty"` // nil in dry runs or on failure
}

// IterationResult is the persisted snapshot of one trading-loop run. It is
// saved for inspection only and has no bearing on subsequent runs.
type IterationResult struct {
	Timestamp time.Time      `json:"timestamp"`
	DryRun    bool           `json:"dryRun,omitempty"`
	Signals   []TradeSignal  `json:"signals"`
	Decisions []*Decision    `json:"decisions"`
	Trades    []*TradeRecord `json:"trades"`
	Errors    []string       `json:"errors"`
}
