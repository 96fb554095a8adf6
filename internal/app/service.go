// Package app orchestrates the trading loop: one-shot iterations over
// signals, position management and daily maintenance. Each flow is
// idempotent and intended to be triggered externally (cron, CLI), not by
// an internal timer.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ledger"
	"papertrader/internal/learner"
	"papertrader/internal/policy"
	"papertrader/internal/ports"
)

// lastLossScanLimit bounds how much trade history the loss cooldown gate
// looks back through.
const lastLossScanLimit = 1000

// TradingService orchestrates one-shot trading flows over its
// collaborators.
type TradingService struct {
	ledger       *ledger.Service
	learner      *learner.Service
	market       ports.ContextProvider
	configs      ports.ConfigStore
	trades       ports.TradeStore
	runs         ports.RunStore
	signalSource ports.SignalSource
	journal      ports.Journal
	logger       ports.Logger
	lookbackDays int
	now          func() time.Time
}

// Config holds the orchestrator's dependencies.
type Config struct {
	Ledger       *ledger.Service
	Learner      *learner.Service
	Market       ports.ContextProvider
	Configs      ports.ConfigStore
	Trades       ports.TradeStore
	Runs         ports.RunStore
	SignalSource ports.SignalSource
	Journal      ports.Journal
	Logger       ports.Logger
	LookbackDays int
}

// NewTradingService creates the orchestrator, validating required
// dependencies. Journal and RunStore are optional.
func NewTradingService(cfg Config) (*TradingService, error) {
	if cfg.Ledger == nil || cfg.Learner == nil || cfg.Market == nil || cfg.Configs == nil ||
		cfg.Trades == nil || cfg.SignalSource == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}
	return &TradingService{
		ledger:       cfg.Ledger,
		learner:      cfg.Learner,
		market:       cfg.Market,
		configs:      cfg.Configs,
		trades:       cfg.Trades,
		runs:         cfg.Runs,
		signalSource: cfg.SignalSource,
		journal:      cfg.Journal,
		logger:       cfg.Logger,
		lookbackDays: lookback,
		now:          time.Now,
	}, nil
}

// RunIteration executes one trading loop pass: gather signals, decide,
// execute. A failing signal is recorded in Errors and does not abort its
// siblings. With dryRun set the full decision pipeline runs but no trade
// is executed.
func (s *TradingService) RunIteration(ctx context.Context, dryRun bool) (*domain.IterationResult, error) {
	now := s.now().UTC()
	result := &domain.IterationResult{
		Timestamp: now,
		DryRun:    dryRun,
		Signals:   []domain.TradeSignal{},
		Decisions: []*domain.Decision{},
		Trades:    []*domain.TradeRecord{},
		Errors:    []string{},
	}

	portfolio, err := s.ledger.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("iteration aborted: %w", err)
	}
	mctx := s.market.Context(ctx)
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("iteration aborted: %w", err)
	}
	s.logger.Info(ctx, "Starting trading iteration", map[string]interface{}{
		"portfolioValue": portfolio.TotalValue,
		"cash":           portfolio.Cash,
		"regime":         string(mctx.Regime),
		"dryRun":         dryRun,
	})

	signals, err := s.signalSource.Signals(ctx, mctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("signal source: %v", err))
		s.saveRun(ctx, result)
		return result, nil
	}
	result.Signals = signals
	if len(signals) == 0 {
		s.logger.Info(ctx, "No signals this iteration")
		s.saveRun(ctx, result)
		return result, nil
	}

	lastLoss, err := s.lastLossBySymbol(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("loss cooldown lookup: %v", err))
		lastLoss = nil
	}

	for _, signal := range signals {
		if err := s.processSignal(ctx, signal, portfolio, mctx, cfg, lastLoss, dryRun, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("signal %s %s: %v", signal.Symbol, signal.Direction, err))
			s.logger.Error(ctx, err, "Signal processing failed", map[string]interface{}{"symbol": signal.Symbol})
		}
		// Re-read so later signals see earlier executions.
		if !dryRun {
			if fresh, err := s.ledger.Portfolio(ctx); err == nil {
				portfolio = fresh
			}
		}
	}

	s.saveRun(ctx, result)
	s.logger.Info(ctx, "Iteration complete", map[string]interface{}{
		"signals": len(result.Signals),
		"trades":  len(result.Trades),
		"errors":  len(result.Errors),
	})
	return result, nil
}

func (s *TradingService) processSignal(
	ctx context.Context,
	signal domain.TradeSignal,
	portfolio *domain.Portfolio,
	mctx *domain.MarketContext,
	cfg *domain.StrategyConfig,
	lastLoss map[string]time.Time,
	dryRun bool,
	result *domain.IterationResult,
) error {
	if err := signal.Validate(); err != nil {
		return err
	}

	entryPrice := 0.0
	if q, ok := mctx.Components.Prices.Quote(signal.Symbol); ok {
		entryPrice = q.Price
	}

	decision := policy.Analyze(policy.Input{
		Config:     cfg,
		Signal:     signal,
		Portfolio:  portfolio,
		Market:     mctx,
		EntryPrice: entryPrice,
		LastLoss:   lastLoss,
		Now:        s.now().UTC(),
	})
	result.Decisions = append(result.Decisions, decision)
	s.logger.Debug(ctx, "Decision", map[string]interface{}{
		"symbol":         decision.Symbol,
		"recommendation": string(decision.Recommendation),
		"positionSize":   decision.PositionSize,
	})

	if !decision.Actionable() {
		return nil
	}
	if dryRun {
		s.logger.Info(ctx, "Dry run, trade suppressed", map[string]interface{}{
			"symbol": decision.Symbol,
			"size":   decision.PositionSize,
		})
		return nil
	}

	trade, err := s.ledger.ExecuteTrade(ctx, ledger.TradeRequest{
		Symbol:     signal.Symbol,
		Direction:  decision.Recommendation,
		Size:       decision.PositionSize,
		Reason:     strings.Join(decision.Reasons, "; "),
		Signal:     signal.Source,
		Confidence: signal.Confidence,
	})
	if err != nil {
		return err
	}
	result.Trades = append(result.Trades, trade)

	if s.journal != nil {
		if err := s.journal.RecordTrade(ctx, trade, decision); err != nil {
			s.logger.Warn(ctx, "Journal write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// ManagePositions evaluates stop loss, take profit and regime exit for
// every open position and closes breached ones. Positions without a
// current price are skipped this cycle.
func (s *TradingService) ManagePositions(ctx context.Context, dryRun bool) ([]domain.PositionAction, error) {
	portfolio, err := s.ledger.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("position management aborted: %w", err)
	}
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("position management aborted: %w", err)
	}
	mctx := s.market.Context(ctx)

	var actions []domain.PositionAction
	for symbol, position := range portfolio.Positions {
		q, ok := mctx.Components.Prices.Quote(symbol)
		if !ok || q.Price <= 0 {
			s.logger.Warn(ctx, "No price for position, skipping this cycle", map[string]interface{}{"symbol": symbol})
			continue
		}
		if action, triggered := evaluateExit(position, q.Price, cfg, mctx.Regime); triggered {
			actions = append(actions, action)
		}
	}

	for i := range actions {
		action := &actions[i]
		s.logger.Info(ctx, "Position exit triggered", map[string]interface{}{
			"symbol": action.Symbol,
			"action": string(action.Action),
			"reason": action.Reason,
		})
		if dryRun {
			continue
		}
		trade, err := s.ledger.ExecuteTrade(ctx, ledger.TradeRequest{
			Symbol:    action.Symbol,
			Direction: domain.Close,
			Reason:    action.Reason,
			Signal:    "position_management",
		})
		if err != nil {
			s.logger.Error(ctx, err, "Failed to close position", map[string]interface{}{"symbol": action.Symbol})
			continue
		}
		action.Trade = trade
		if s.journal != nil && trade.Closed() {
			outcome := ports.TradeOutcome{PNL: trade.RealizedPNL()}
			if trade.PNLPercent != nil {
				outcome.PNLPercent = *trade.PNLPercent
			}
			if err := s.journal.RecordOutcome(ctx, trade, outcome); err != nil {
				s.logger.Warn(ctx, "Journal write failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return actions, nil
}

// evaluateExit checks a single position against the exit rules. Regime
// exit applies only to longs held into a risk_off regime.
func evaluateExit(position *domain.Position, price float64, cfg *domain.StrategyConfig, regime domain.Regime) (domain.PositionAction, bool) {
	pnlPct := 0.0
	if position.CostBasis != 0 {
		pnlPct = position.UnrealizedPNL(price) / position.CostBasis * 100
	}

	switch {
	case pnlPct <= -(cfg.StopLossPct * 100):
		return domain.PositionAction{
			Symbol: position.Symbol,
			Action: domain.ExitStopLoss,
			Reason: fmt.Sprintf("Hit stop loss at %.2f%%", pnlPct),
		}, true
	case pnlPct >= cfg.TakeProfitPct*100:
		return domain.PositionAction{
			Symbol: position.Symbol,
			Action: domain.ExitTakeProfit,
			Reason: fmt.Sprintf("Hit take profit at %.2f%%", pnlPct),
		}, true
	case position.Direction == domain.Long && regime == domain.RegimeRiskOff:
		return domain.PositionAction{
			Symbol: position.Symbol,
			Action: domain.ExitRegime,
			Reason: "Regime shifted to risk-off while holding long",
		}, true
	}
	return domain.PositionAction{}, false
}

// RunDailyMaintenance writes the daily summary and runs a learner
// analysis pass.
func (s *TradingService) RunDailyMaintenance(ctx context.Context) (*domain.PerformanceAnalysis, error) {
	s.logger.Info(ctx, "Running daily maintenance")

	if s.journal != nil {
		stats, err := s.ledger.Performance(ctx)
		if err != nil {
			s.logger.Warn(ctx, "Could not compute stats for daily summary", map[string]interface{}{"error": err.Error()})
		} else if _, err := s.journal.DailySummary(ctx, stats); err != nil {
			s.logger.Warn(ctx, "Daily summary failed", map[string]interface{}{"error": err.Error()})
		}
	}

	analysis, err := s.learner.AnalyzePerformance(ctx, s.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("daily maintenance analysis failed: %w", err)
	}
	for _, insight := range analysis.Insights {
		s.logger.Info(ctx, "Learner insight", map[string]interface{}{"insight": insight})
	}
	for _, sg := range analysis.Suggestions {
		s.logger.Info(ctx, "Learner suggestion", map[string]interface{}{
			"type":   string(sg.Type),
			"reason": sg.Reason,
		})
	}
	return analysis, nil
}

// LastRun returns the persisted snapshot of the most recent iteration.
func (s *TradingService) LastRun(ctx context.Context) (*domain.IterationResult, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.LastRun(ctx)
}

// lastLossBySymbol maps each symbol to its most recent realized loss
// time, feeding the policy's cooldown gate.
func (s *TradingService) lastLossBySymbol(ctx context.Context) (map[string]time.Time, error) {
	trades, err := s.trades.Recent(ctx, lastLossScanLimit)
	if err != nil {
		return nil, err
	}
	lastLoss := make(map[string]time.Time)
	for _, t := range trades {
		if t.RealizedPNL() < 0 {
			if existing, ok := lastLoss[t.Symbol]; !ok || t.Timestamp.After(existing) {
				lastLoss[t.Symbol] = t.Timestamp
			}
		}
	}
	return lastLoss, nil
}

func (s *TradingService) saveRun(ctx context.Context, result *domain.IterationResult) {
	if s.runs == nil {
		return
	}
	if err := s.runs.PutRun(ctx, result); err != nil {
		s.logger.Warn(ctx, "Failed to save iteration snapshot", map[string]interface{}{"error": err.Error()})
	}
}
