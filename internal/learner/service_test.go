package learner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/adapters/memory"
	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestService(t *testing.T) (*Service, *memory.TradeStore, *memory.ConfigStore, *memory.LearningLogStore) {
	t.Helper()
	trades := memory.NewTradeStore()
	configs := memory.NewConfigStore()
	log := memory.NewLearningLogStore()
	svc, err := New(Config{Trades: trades, Configs: configs, Log: log, Logger: &mockLogger{}})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, trades, configs, log
}

func closedTrade(symbol string, pnl, confidence float64, direction domain.Direction, regime domain.Regime, age time.Duration) *domain.TradeRecord {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(-age)
	return &domain.TradeRecord{
		ID:         fmt.Sprintf("trade_%s_%d", symbol, ts.UnixNano()),
		Timestamp:  ts,
		Symbol:     symbol,
		Direction:  direction,
		PNL:        &pnl,
		Confidence: confidence,
		Context:    domain.ContextSnapshot{Regime: regime},
	}
}

func TestAnalyzePerformance_InsufficientTrades(t *testing.T) {
	svc, trades, _, log := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, trades.Append(ctx, closedTrade("BTC", 10, 0.7, domain.Long, domain.RegimeNeutral, time.Hour)))
	}

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.TradeCount)
	assert.Empty(t, analysis.Suggestions)
	require.Len(t, analysis.Insights, 1)
	assert.Contains(t, analysis.Insights[0], "Insufficient trades")

	events, err := log.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.LearningEventAnalysis, events[0].Type)
}

func TestAnalyzePerformance_LowWinRateSuggestsRaisingConfidence(t *testing.T) {
	svc, trades, _, _ := newTestService(t)
	ctx := context.Background()

	// 1 win, 4 losses inside the window.
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", 50, 0.75, domain.Long, domain.RegimeNeutral, time.Hour)))
	for i := 0; i < 4; i++ {
		require.NoError(t, trades.Append(ctx, closedTrade("ETH", -20, 0.75, domain.Long, domain.RegimeNeutral, time.Duration(i+2)*time.Hour)))
	}

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, analysis.Metrics)
	assert.InDelta(t, 0.2, analysis.Metrics.WinRate, 1e-9)

	var raise *domain.Suggestion
	for i := range analysis.Suggestions {
		if analysis.Suggestions[i].Type == domain.SuggestRaiseMinConfidence {
			raise = &analysis.Suggestions[i]
		}
	}
	require.NotNil(t, raise, "expected a RAISE_MIN_CONFIDENCE suggestion")
	assert.Equal(t, 0.6, raise.Current)
	assert.InDelta(t, 0.65, raise.Suggested, 1e-9)
}

func TestAnalyzePerformance_HighWinRateSuggestsLoweringConfidence(t *testing.T) {
	svc, trades, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, trades.Append(ctx, closedTrade("BTC", 30, 0.75, domain.Long, domain.RegimeNeutral, time.Duration(i+1)*time.Hour)))
	}
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", -10, 0.75, domain.Long, domain.RegimeNeutral, 6*time.Hour)))

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)

	found := false
	for _, s := range analysis.Suggestions {
		if s.Type == domain.SuggestLowerMinConfidence {
			found = true
			assert.InDelta(t, 0.55, s.Suggested, 1e-9)
		}
	}
	assert.True(t, found, "expected a LOWER_MIN_CONFIDENCE suggestion")
}

func TestAnalyzePerformance_LargeLossesSuggestTighterStops(t *testing.T) {
	svc, trades, _, _ := newTestService(t)
	ctx := context.Background()

	// Wins small, losses large: avg loss 90 > 1.5 * avg win 20.
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", 20, 0.75, domain.Long, domain.RegimeNeutral, time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", 20, 0.75, domain.Long, domain.RegimeNeutral, 2*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", -90, 0.75, domain.Long, domain.RegimeNeutral, 3*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", -90, 0.75, domain.Long, domain.RegimeNeutral, 4*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("SOL", 20, 0.75, domain.Long, domain.RegimeNeutral, 5*time.Hour)))

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)

	found := false
	for _, s := range analysis.Suggestions {
		if s.Type == domain.SuggestTightenStopLoss {
			found = true
			assert.Equal(t, 0.05, s.Current)
			assert.InDelta(t, 0.04, s.Suggested, 1e-9)
		}
	}
	assert.True(t, found, "expected a TIGHTEN_STOP_LOSS suggestion")
}

func TestAnalyzePerformance_RegimeAlignmentSuggestion(t *testing.T) {
	svc, trades, _, _ := newTestService(t)
	ctx := context.Background()

	// Aligned longs in risk_on all win; opposing longs in risk_off all lose.
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", 40, 0.75, domain.Long, domain.RegimeRiskOn, time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", 40, 0.75, domain.Long, domain.RegimeRiskOn, 2*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", -40, 0.75, domain.Long, domain.RegimeRiskOff, 3*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", -40, 0.75, domain.Long, domain.RegimeRiskOff, 4*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("SOL", 40, 0.75, domain.Long, domain.RegimeRiskOn, 5*time.Hour)))

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)

	found := false
	for _, s := range analysis.Suggestions {
		if s.Type == domain.SuggestIncreaseRegimeWeight {
			found = true
			assert.Equal(t, 1.0, s.Current)
			assert.InDelta(t, 1.25, s.Suggested, 1e-9)
		}
	}
	assert.True(t, found, "expected an INCREASE_REGIME_WEIGHT suggestion")
}

func TestAnalyzePerformance_ConfidenceTierInsight(t *testing.T) {
	svc, trades, _, _ := newTestService(t)
	ctx := context.Background()

	// High confidence trades win, low confidence trades lose.
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", 40, 0.85, domain.Long, domain.RegimeNeutral, time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", 40, 0.9, domain.Long, domain.RegimeNeutral, 2*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("BTC", -40, 0.65, domain.Long, domain.RegimeNeutral, 3*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("ETH", -40, 0.6, domain.Long, domain.RegimeNeutral, 4*time.Hour)))
	require.NoError(t, trades.Append(ctx, closedTrade("SOL", 40, 0.85, domain.Long, domain.RegimeNeutral, 5*time.Hour)))

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)

	joined := ""
	for _, insight := range analysis.Insights {
		joined += insight + "\n"
	}
	assert.Contains(t, joined, "High confidence")
	assert.Contains(t, joined, "significantly outperform")
}

func TestAnalyzePerformance_WindowExcludesOldTrades(t *testing.T) {
	svc, trades, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, trades.Append(ctx, closedTrade("BTC", -10, 0.75, domain.Long, domain.RegimeNeutral, 10*24*time.Hour)))
	}

	analysis, err := svc.AnalyzePerformance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, analysis.TradeCount)
	assert.Contains(t, analysis.Insights[0], "Insufficient trades")
}

func TestApplySuggestion(t *testing.T) {
	svc, _, configs, log := newTestService(t)
	ctx := context.Background()

	updated, err := svc.ApplySuggestion(ctx, domain.SuggestRaiseMinConfidence, 0.65, "Win rate 20% below 40%")
	require.NoError(t, err)
	assert.Equal(t, 0.65, updated.MinConfidence)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Win rate 20% below 40%", updated.UpdatedReason)

	cfg, err := configs.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.65, cfg.MinConfidence)

	events, err := log.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.LearningEventConfigChange, events[0].Type)
	assert.Equal(t, "minConfidence", events[0].Field)
	assert.Equal(t, 0.6, events[0].OldValue)
	assert.Equal(t, 0.65, events[0].NewValue)
	assert.Equal(t, 2, events[0].ConfigVersion)
}

func TestApplySuggestion_EachTypeTargetsOneField(t *testing.T) {
	tests := []struct {
		suggestion domain.SuggestionType
		value      float64
		check      func(*testing.T, *domain.StrategyConfig)
	}{
		{domain.SuggestTightenStopLoss, 0.04, func(t *testing.T, c *domain.StrategyConfig) { assert.Equal(t, 0.04, c.StopLossPct) }},
		{domain.SuggestWidenStopLoss, 0.07, func(t *testing.T, c *domain.StrategyConfig) { assert.Equal(t, 0.07, c.StopLossPct) }},
		{domain.SuggestIncreaseRegimeWeight, 1.25, func(t *testing.T, c *domain.StrategyConfig) { assert.Equal(t, 1.25, c.RegimeWeight) }},
		{domain.SuggestDecreasePositionSize, 0.08, func(t *testing.T, c *domain.StrategyConfig) { assert.Equal(t, 0.08, c.BasePositionPct) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.suggestion), func(t *testing.T) {
			svc, _, _, _ := newTestService(t)
			updated, err := svc.ApplySuggestion(context.Background(), tt.suggestion, tt.value, "test")
			require.NoError(t, err)
			tt.check(t, updated)
		})
	}
}

func TestApplySuggestion_UnknownType(t *testing.T) {
	svc, _, configs, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplySuggestion(ctx, domain.SuggestionType("DO_SOMETHING"), 1.0, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrUnknownSuggestion))

	cfg, err := configs.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
}

func TestSummary(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	text, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, text, "Current Strategy Configuration")
	assert.Contains(t, text, "Min Confidence:  60%")
	assert.Contains(t, text, "No configuration changes yet")
}
