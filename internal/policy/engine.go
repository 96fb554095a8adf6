// Package policy implements the decision engine: a pure gating pipeline
// that turns a trade signal into a sized recommendation or a SKIP with
// reasons. It never executes trades and never touches storage.
package policy

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"papertrader/internal/domain"
)

// Multipliers applied per regime alignment.
const (
	alignedMultiplier  = 1.25
	neutralMultiplier  = 1.0
	opposingMultiplier = 0.5
)

// hardPositionCap is the ceiling on any single position as a fraction of
// total portfolio value, regardless of the configured base size.
const hardPositionCap = 0.15

// Input bundles everything one analysis needs. Market may be nil (treated
// as neutral regime with unknown sentiment). EntryPrice of zero leaves
// the protective levels unset.
type Input struct {
	Config     *domain.StrategyConfig
	Signal     domain.TradeSignal
	Portfolio  *domain.Portfolio
	Market     *domain.MarketContext
	EntryPrice float64
	// LastLoss maps symbol to the time of its most recent realized loss,
	// for the per-symbol cooldown gate.
	LastLoss map[string]time.Time
	Now      time.Time
}

// Analyze runs the full gating pipeline over one signal. Gates
// short-circuit to SKIP in a fixed order: confidence, loss cooldown,
// regime alignment, exposure, sizing. The returned decision carries the
// complete reason trail either way.
func Analyze(in Input) *domain.Decision {
	cfg := in.Config
	if cfg == nil {
		cfg = domain.DefaultStrategyConfig(in.Now)
	}
	signal := in.Signal

	decision := &domain.Decision{
		Timestamp:        in.Now,
		Symbol:           signal.Symbol,
		SignalDirection:  signal.Direction,
		SignalConfidence: signal.Confidence,
		SignalSource:     signal.Source,
		Context:          in.Market.Snapshot(),
		Recommendation:   domain.Skip,
	}

	if signal.Confidence < cfg.MinConfidence {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf(
			"Confidence %.0f%% below minimum %.0f%%", signal.Confidence*100, cfg.MinConfidence*100))
		return decision
	}

	if reason, cooling := cooldownActive(signal.Symbol, in.LastLoss, cfg.LossCooldown(), in.Now); cooling {
		decision.Reasons = append(decision.Reasons, reason)
		return decision
	}

	regime := domain.RegimeNeutral
	if in.Market != nil {
		regime = in.Market.Regime
	}
	regimeAnalysis := analyzeRegimeAlignment(signal.Direction, regime)
	decision.Analysis.Regime = regimeAnalysis

	if regimeAnalysis.Alignment == domain.Opposing {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf(
			"Signal direction %s opposes market regime %s", signal.Direction, regime))
		return decision
	}

	sentimentAnalysis := analyzeSentiment(signal.Direction, in.Market)
	decision.Analysis.Sentiment = sentimentAnalysis

	exposureAnalysis := analyzeExposure(signal.Symbol, in.Portfolio, cfg)
	decision.Analysis.Exposure = exposureAnalysis

	if exposureAnalysis.AtMaxExposure {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf(
			"Already at max exposure (%.0f%%)", exposureAnalysis.CurrentExposure*100))
		return decision
	}

	size := positionSize(cfg, signal.Confidence, regimeAnalysis, sentimentAnalysis, exposureAnalysis)
	decision.PositionSize = size

	if size <= 0 {
		decision.Reasons = append(decision.Reasons, "Position size calculated to zero")
		return decision
	}

	decision.StopLoss = stopLoss(signal.Direction, in.EntryPrice, cfg.StopLossPct)
	decision.TakeProfit = takeProfit(signal.Direction, in.EntryPrice, cfg.TakeProfitPct)

	decision.Recommendation = signal.Direction
	decision.Reasons = append(decision.Reasons,
		fmt.Sprintf("Confidence: %.0f%%", signal.Confidence*100),
		fmt.Sprintf("Regime alignment: %s", regimeAnalysis.Alignment),
		fmt.Sprintf("Sentiment: %s", sentimentAnalysis.Signal),
		fmt.Sprintf("Position size: $%.2f", size),
	)
	return decision
}

func cooldownActive(symbol string, lastLoss map[string]time.Time, cooldown time.Duration, now time.Time) (string, bool) {
	if cooldown <= 0 || lastLoss == nil {
		return "", false
	}
	lossAt, ok := lastLoss[symbol]
	if !ok {
		return "", false
	}
	elapsed := now.Sub(lossAt)
	if elapsed >= cooldown {
		return "", false
	}
	remaining := cooldown - elapsed
	return fmt.Sprintf("Loss cooldown active for %s (%.0fm remaining)", symbol, remaining.Minutes()), true
}

// alignmentTable maps (regime, direction) to an alignment label. Missing
// combinations read as NEUTRAL.
var alignmentTable = map[domain.Regime]map[domain.Direction]domain.Alignment{
	domain.RegimeRiskOn:        {domain.Long: domain.Aligned, domain.Short: domain.Opposing, domain.Flat: domain.NeutralAligned},
	domain.RegimeSlightRiskOn:  {domain.Long: domain.Aligned, domain.Short: domain.NeutralAligned, domain.Flat: domain.NeutralAligned},
	domain.RegimeNeutral:       {domain.Long: domain.NeutralAligned, domain.Short: domain.NeutralAligned, domain.Flat: domain.Aligned},
	domain.RegimeSlightRiskOff: {domain.Long: domain.NeutralAligned, domain.Short: domain.Aligned, domain.Flat: domain.NeutralAligned},
	domain.RegimeRiskOff:       {domain.Long: domain.Opposing, domain.Short: domain.Aligned, domain.Flat: domain.Aligned},
}

func analyzeRegimeAlignment(direction domain.Direction, regime domain.Regime) *domain.RegimeAnalysis {
	alignment := domain.NeutralAligned
	if byDirection, ok := alignmentTable[regime]; ok {
		if a, ok := byDirection[direction]; ok {
			alignment = a
		}
	}
	multiplier := neutralMultiplier
	switch alignment {
	case domain.Aligned:
		multiplier = alignedMultiplier
	case domain.Opposing:
		multiplier = opposingMultiplier
	}
	return &domain.RegimeAnalysis{
		Regime:         regime,
		Direction:      direction,
		Alignment:      alignment,
		SizeMultiplier: multiplier,
	}
}

// analyzeSentiment applies the contrarian fear/greed overlay: extreme
// fear supports longs, extreme greed supports shorts, mid-range is
// neutral. An unavailable index contributes nothing.
func analyzeSentiment(direction domain.Direction, mctx *domain.MarketContext) *domain.SentimentAnalysis {
	var fearGreed *domain.FearGreed
	if mctx != nil {
		fearGreed = mctx.Components.FearGreed
	}
	if fearGreed == nil {
		return &domain.SentimentAnalysis{Signal: "unknown", Multiplier: 1.0}
	}

	value := fearGreed.Value
	switch {
	case value <= 20:
		signal, multiplier := "opposing", 0.75
		if direction == domain.Long {
			signal, multiplier = "supportive", 1.25
		}
		return &domain.SentimentAnalysis{
			Known:          true,
			Value:          value,
			Classification: "extreme_fear",
			Signal:         signal,
			Multiplier:     multiplier,
			Note:           "Extreme fear often marks bottoms",
		}
	case value >= 80:
		signal, multiplier := "opposing", 0.75
		if direction == domain.Short {
			signal, multiplier = "supportive", 1.25
		}
		return &domain.SentimentAnalysis{
			Known:          true,
			Value:          value,
			Classification: "extreme_greed",
			Signal:         signal,
			Multiplier:     multiplier,
			Note:           "Extreme greed often marks tops",
		}
	default:
		return &domain.SentimentAnalysis{
			Known:          true,
			Value:          value,
			Classification: "neutral",
			Signal:         "neutral",
			Multiplier:     1.0,
			Note:           "Sentiment not extreme",
		}
	}
}

func analyzeExposure(symbol string, portfolio *domain.Portfolio, cfg *domain.StrategyConfig) *domain.ExposureAnalysis {
	totalValue := portfolio.TotalValue
	if totalValue == 0 {
		totalValue = portfolio.StartingCapital
	}
	totalExposure := portfolio.TotalExposure()
	exposurePct := 0.0
	if totalValue != 0 {
		exposurePct = totalExposure / totalValue
	}
	existing, hasExisting := portfolio.Positions[symbol]
	existingSize := 0.0
	if hasExisting {
		existingSize = existing.CostBasis
	}
	return &domain.ExposureAnalysis{
		TotalValue:          totalValue,
		Cash:                portfolio.Cash,
		TotalExposure:       totalExposure,
		CurrentExposure:     exposurePct,
		MaxExposure:         cfg.MaxExposurePct,
		AtMaxExposure:       exposurePct >= cfg.MaxExposurePct,
		HasExistingPosition: hasExisting,
		ExistingSize:        existingSize,
		AvailableForNew:     math.Max(0, cfg.MaxExposurePct*totalValue-totalExposure),
	}
}

// positionSize scales the base size by confidence and the regime and
// sentiment multipliers, then clamps to the hard cap, available cash and
// exposure headroom. Rounded to cents.
func positionSize(cfg *domain.StrategyConfig, confidence float64, regime *domain.RegimeAnalysis, sentiment *domain.SentimentAnalysis, exposure *domain.ExposureAnalysis) float64 {
	size := exposure.TotalValue * cfg.BasePositionPct
	size *= 0.5 + confidence*0.5
	size *= regime.SizeMultiplier
	size *= sentiment.Multiplier

	size = math.Min(size, exposure.TotalValue*hardPositionCap)
	size = math.Min(size, exposure.Cash)
	size = math.Min(size, exposure.AvailableForNew)

	rounded, _ := decimal.NewFromFloat(size).Round(2).Float64()
	return rounded
}

func stopLoss(direction domain.Direction, entry, pct float64) *float64 {
	if entry <= 0 {
		return nil
	}
	var level float64
	switch direction {
	case domain.Long:
		level = entry * (1 - pct)
	case domain.Short:
		level = entry * (1 + pct)
	default:
		return nil
	}
	return &level
}

func takeProfit(direction domain.Direction, entry, pct float64) *float64 {
	if entry <= 0 {
		return nil
	}
	var level float64
	switch direction {
	case domain.Long:
		level = entry * (1 + pct)
	case domain.Short:
		level = entry * (1 - pct)
	default:
		return nil
	}
	return &level
}
