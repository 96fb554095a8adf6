package domain

// Direction represents the direction of a signal or trade instruction.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Flat  Direction = "FLAT"
	Close Direction = "CLOSE"
	// Skip is only produced as a decision recommendation, never accepted
	// as a trade instruction.
	Skip Direction = "SKIP"
)

// IsInstruction reports whether the direction is a valid trade instruction.
func (d Direction) IsInstruction() bool {
	return d == Long || d == Short || d == Close
}

// Regime is a coarse directional bias label for the market, derived from
// sentiment, funding and momentum signals.
type Regime string

const (
	RegimeRiskOn        Regime = "risk_on"
	RegimeSlightRiskOn  Regime = "slight_risk_on"
	RegimeNeutral       Regime = "neutral"
	RegimeSlightRiskOff Regime = "slight_risk_off"
	RegimeRiskOff       Regime = "risk_off"
)

// Bullish reports whether the regime leans risk-on.
func (r Regime) Bullish() bool {
	return r == RegimeRiskOn || r == RegimeSlightRiskOn
}

// Bearish reports whether the regime leans risk-off.
func (r Regime) Bearish() bool {
	return r == RegimeRiskOff || r == RegimeSlightRiskOff
}

// Alignment describes how a signal direction relates to the current regime.
type Alignment string

const (
	Aligned        Alignment = "ALIGNED"
	NeutralAligned Alignment = "NEUTRAL"
	Opposing       Alignment = "OPPOSING"
)

// ExitReason indicates why position management closed a position.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitRegime     ExitReason = "REGIME_EXIT"
)
