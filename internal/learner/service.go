// Package learner analyzes realized trading performance over a lookback
// window and proposes strategy parameter changes. Suggestions are never
// applied automatically; ApplySuggestion is the explicit second step.
package learner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

const (
	minTradesForAnalysis  = 5
	minClosedForMetrics   = 3
	minCohortSize         = 2
	confidenceEdgePts     = 0.2
	regimeEdgePts         = 0.25
	learningLogViewLimit  = 20
	tradeHistoryScanLimit = 1000
)

// suggestionFields maps each suggestion type to the single configuration
// field it may change.
var suggestionFields = map[domain.SuggestionType]string{
	domain.SuggestRaiseMinConfidence:   "minConfidence",
	domain.SuggestLowerMinConfidence:   "minConfidence",
	domain.SuggestTightenStopLoss:      "stopLossPct",
	domain.SuggestWidenStopLoss:        "stopLossPct",
	domain.SuggestIncreaseRegimeWeight: "regimeWeight",
	domain.SuggestDecreaseRegimeWeight: "regimeWeight",
	domain.SuggestIncreasePositionSize: "basePositionPct",
	domain.SuggestDecreasePositionSize: "basePositionPct",
}

// Service is the adaptive learner.
type Service struct {
	trades  ports.TradeStore
	configs ports.ConfigStore
	log     ports.LearningLogStore
	logger  ports.Logger
	now     func() time.Time
}

// Config holds the learner's dependencies.
type Config struct {
	Trades  ports.TradeStore
	Configs ports.ConfigStore
	Log     ports.LearningLogStore
	Logger  ports.Logger
}

// New creates a learner service.
func New(cfg Config) (*Service, error) {
	if cfg.Trades == nil {
		return nil, fmt.Errorf("trade store is required for learner service")
	}
	if cfg.Configs == nil {
		return nil, fmt.Errorf("config store is required for learner service")
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("learning log store is required for learner service")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for learner service")
	}
	return &Service{
		trades:  cfg.Trades,
		configs: cfg.Configs,
		log:     cfg.Log,
		logger:  cfg.Logger,
		now:     time.Now,
	}, nil
}

// AnalyzePerformance examines the trade history within the lookback
// window and returns suggestions and insights. The analysis is appended
// to the learning log.
func (s *Service) AnalyzePerformance(ctx context.Context, lookbackDays int) (*domain.PerformanceAnalysis, error) {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	trades, err := s.trades.Recent(ctx, tradeHistoryScanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy config: %w", err)
	}

	now := s.now().UTC()
	cutoff := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	var recent []*domain.TradeRecord
	for _, t := range trades {
		if t.Timestamp.After(cutoff) {
			recent = append(recent, t)
		}
	}

	analysis := &domain.PerformanceAnalysis{
		Timestamp:    now,
		LookbackDays: lookbackDays,
		TradeCount:   len(recent),
		Suggestions:  []domain.Suggestion{},
		Insights:     []string{},
	}

	if len(recent) < minTradesForAnalysis {
		analysis.Insights = append(analysis.Insights, "Insufficient trades for meaningful analysis (need 5+)")
		s.logAnalysis(ctx, analysis)
		return analysis, nil
	}

	var closed []*domain.TradeRecord
	for _, t := range recent {
		if t.Closed() {
			closed = append(closed, t)
		}
	}
	if len(closed) >= minClosedForMetrics {
		s.analyzeClosedTrades(analysis, closed, cfg)
	}

	s.logAnalysis(ctx, analysis)
	return analysis, nil
}

func (s *Service) analyzeClosedTrades(analysis *domain.PerformanceAnalysis, closed []*domain.TradeRecord, cfg *domain.StrategyConfig) {
	var (
		wins, losses    []*domain.TradeRecord
		winSum, lossSum float64
		totalPNL        float64
	)
	for _, t := range closed {
		pnl := t.RealizedPNL()
		totalPNL += pnl
		switch {
		case pnl > 0:
			wins = append(wins, t)
			winSum += pnl
		case pnl < 0:
			losses = append(losses, t)
			lossSum += pnl
		}
	}
	winRate := float64(len(wins)) / float64(len(closed))
	avgWin := 0.0
	if len(wins) > 0 {
		avgWin = winSum / float64(len(wins))
	}
	avgLoss := 0.0
	if len(losses) > 0 {
		avgLoss = lossSum / float64(len(losses))
	}

	analysis.Metrics = &domain.AnalysisMetrics{
		WinRate:  winRate,
		AvgWin:   avgWin,
		AvgLoss:  avgLoss,
		TotalPNL: totalPNL,
	}

	if winRate < 0.4 {
		analysis.Suggestions = append(analysis.Suggestions, domain.Suggestion{
			Type:      domain.SuggestRaiseMinConfidence,
			Reason:    fmt.Sprintf("Win rate %.0f%% below 40%%", winRate*100),
			Current:   cfg.MinConfidence,
			Suggested: min(0.8, cfg.MinConfidence+0.05),
			Impact:    "Fewer trades but higher quality signals",
		})
	}
	if winRate > 0.7 && cfg.MinConfidence > 0.5 {
		analysis.Suggestions = append(analysis.Suggestions, domain.Suggestion{
			Type:      domain.SuggestLowerMinConfidence,
			Reason:    fmt.Sprintf("Win rate %.0f%% above 70%%", winRate*100),
			Current:   cfg.MinConfidence,
			Suggested: max(0.5, cfg.MinConfidence-0.05),
			Impact:    "More trades while maintaining edge",
		})
	}
	if -avgLoss > avgWin*1.5 {
		analysis.Suggestions = append(analysis.Suggestions, domain.Suggestion{
			Type:      domain.SuggestTightenStopLoss,
			Reason:    fmt.Sprintf("Avg loss ($%.2f) > 1.5x avg win ($%.2f)", -avgLoss, avgWin),
			Current:   cfg.StopLossPct,
			Suggested: max(0.03, cfg.StopLossPct-0.01),
			Impact:    "Smaller individual losses",
		})
	}

	s.analyzeConfidenceTiers(analysis, closed)
	s.analyzeRegimeAlignment(analysis, closed, cfg)
}

// analyzeConfidenceTiers compares high-confidence trades against lower
// ones and flags a significant outperformance gap.
func (s *Service) analyzeConfidenceTiers(analysis *domain.PerformanceAnalysis, closed []*domain.TradeRecord) {
	var high, low []*domain.TradeRecord
	for _, t := range closed {
		if t.Confidence >= 0.8 {
			high = append(high, t)
		}
		if t.Confidence < 0.7 {
			low = append(low, t)
		}
	}
	if len(high) < minCohortSize || len(low) < minCohortSize {
		return
	}
	highRate := winRateOf(high)
	lowRate := winRateOf(low)
	analysis.Insights = append(analysis.Insights,
		fmt.Sprintf("High confidence (>=80%%) trades: %.0f%% win rate", highRate*100),
		fmt.Sprintf("Lower confidence (<70%%) trades: %.0f%% win rate", lowRate*100),
	)
	if highRate > lowRate+confidenceEdgePts {
		analysis.Insights = append(analysis.Insights,
			"High confidence signals significantly outperform - consider raising threshold")
	}
}

// analyzeRegimeAlignment compares regime-aligned trades against
// regime-opposing ones; a large gap yields an INCREASE_REGIME_WEIGHT
// suggestion.
func (s *Service) analyzeRegimeAlignment(analysis *domain.PerformanceAnalysis, closed []*domain.TradeRecord, cfg *domain.StrategyConfig) {
	var aligned, opposing []*domain.TradeRecord
	for _, t := range closed {
		regime := t.Context.Regime
		switch {
		case regime.Bullish() && t.Direction == domain.Long,
			regime.Bearish() && t.Direction == domain.Short:
			aligned = append(aligned, t)
		case regime.Bearish() && t.Direction == domain.Long,
			regime.Bullish() && t.Direction == domain.Short:
			opposing = append(opposing, t)
		}
	}
	if len(aligned) < minCohortSize || len(opposing) < minCohortSize {
		return
	}
	alignedRate := winRateOf(aligned)
	opposingRate := winRateOf(opposing)
	analysis.Insights = append(analysis.Insights,
		fmt.Sprintf("Regime-aligned trades: %.0f%% win rate", alignedRate*100),
		fmt.Sprintf("Regime-opposing trades: %.0f%% win rate", opposingRate*100),
	)
	if alignedRate > opposingRate+regimeEdgePts {
		analysis.Suggestions = append(analysis.Suggestions, domain.Suggestion{
			Type:      domain.SuggestIncreaseRegimeWeight,
			Reason:    "Regime-aligned trades significantly outperform",
			Current:   cfg.RegimeWeight,
			Suggested: cfg.RegimeWeight + 0.25,
			Impact:    "More weight on regime alignment in position sizing",
		})
	}
}

// ApplySuggestion writes one configuration field, bumps the version and
// records a CONFIG_CHANGE event. Unknown types fail with
// ErrUnknownSuggestion.
func (s *Service) ApplySuggestion(ctx context.Context, suggestionType domain.SuggestionType, newValue float64, reason string) (*domain.StrategyConfig, error) {
	field, ok := suggestionFields[suggestionType]
	if !ok {
		return nil, fmt.Errorf("unknown suggestion type %q: %w", suggestionType, ports.ErrUnknownSuggestion)
	}

	now := s.now().UTC()
	var oldValue float64
	updated, err := s.configs.UpdateConfig(ctx, func(c *domain.StrategyConfig) error {
		switch field {
		case "minConfidence":
			oldValue, c.MinConfidence = c.MinConfidence, newValue
		case "stopLossPct":
			oldValue, c.StopLossPct = c.StopLossPct, newValue
		case "regimeWeight":
			oldValue, c.RegimeWeight = c.RegimeWeight, newValue
		case "basePositionPct":
			oldValue, c.BasePositionPct = c.BasePositionPct, newValue
		}
		c.Version++
		c.UpdatedAt = now
		c.UpdatedReason = reason
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply suggestion: %w", err)
	}

	event := &domain.LearningEvent{
		Timestamp:     now,
		Type:          domain.LearningEventConfigChange,
		Field:         field,
		OldValue:      oldValue,
		NewValue:      newValue,
		Reason:        reason,
		ConfigVersion: updated.Version,
	}
	if err := s.log.AppendEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to record config change", map[string]interface{}{"error": err.Error()})
	}
	s.logger.Info(ctx, "Strategy config updated", map[string]interface{}{
		"field":    field,
		"oldValue": oldValue,
		"newValue": newValue,
		"version":  updated.Version,
	})
	return updated, nil
}

// Summary renders a human-readable learning report: current config,
// the latest analysis and recent config changes.
func (s *Service) Summary(ctx context.Context, lookbackDays int) (string, error) {
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load strategy config: %w", err)
	}
	analysis, err := s.AnalyzePerformance(ctx, lookbackDays)
	if err != nil {
		return "", err
	}
	events, err := s.log.RecentEvents(ctx, learningLogViewLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load learning log: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Learning Summary\n\nGenerated: %s\n\n", s.now().UTC().Format(time.RFC3339))

	b.WriteString("## Current Strategy Configuration\n\n")
	fmt.Fprintf(&b, "Min Confidence:  %.0f%%\n", cfg.MinConfidence*100)
	fmt.Fprintf(&b, "Base Position:   %.0f%%\n", cfg.BasePositionPct*100)
	fmt.Fprintf(&b, "Max Exposure:    %.0f%%\n", cfg.MaxExposurePct*100)
	fmt.Fprintf(&b, "Stop Loss:       %.1f%%\n", cfg.StopLossPct*100)
	fmt.Fprintf(&b, "Take Profit:     %.1f%%\n", cfg.TakeProfitPct*100)
	fmt.Fprintf(&b, "Config Version:  %d\n\n", cfg.Version)

	b.WriteString("## Recent Performance Analysis\n\n")
	if m := analysis.Metrics; m != nil {
		fmt.Fprintf(&b, "Win Rate:  %.1f%%\n", m.WinRate*100)
		fmt.Fprintf(&b, "Avg Win:   $%.2f\n", m.AvgWin)
		fmt.Fprintf(&b, "Avg Loss:  $%.2f\n", m.AvgLoss)
		fmt.Fprintf(&b, "Total P&L: $%.2f\n\n", m.TotalPNL)
	}

	b.WriteString("### Insights\n\n")
	for _, insight := range analysis.Insights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}
	b.WriteString("\n### Suggestions\n\n")
	if len(analysis.Suggestions) == 0 {
		b.WriteString("No suggestions at this time - continue gathering data.\n\n")
	}
	for _, sg := range analysis.Suggestions {
		fmt.Fprintf(&b, "%s\n- Reason: %s\n- Current: %v -> Suggested: %v\n- Impact: %s\n\n",
			sg.Type, sg.Reason, sg.Current, sg.Suggested, sg.Impact)
	}

	b.WriteString("## Recent Config Changes\n\n")
	changes := 0
	for _, e := range events {
		if e.Type != domain.LearningEventConfigChange {
			continue
		}
		changes++
		fmt.Fprintf(&b, "- %s: changed %s from %v to %v (%s)\n",
			e.Timestamp.Format("2006-01-02"), e.Field, e.OldValue, e.NewValue, e.Reason)
	}
	if changes == 0 {
		b.WriteString("No configuration changes yet.\n")
	}
	return b.String(), nil
}

func (s *Service) logAnalysis(ctx context.Context, analysis *domain.PerformanceAnalysis) {
	event := &domain.LearningEvent{
		Timestamp: analysis.Timestamp,
		Type:      domain.LearningEventAnalysis,
		Analysis:  analysis,
	}
	if err := s.log.AppendEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to record analysis", map[string]interface{}{"error": err.Error()})
	}
}

func winRateOf(trades []*domain.TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.RealizedPNL() > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}
