package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestJournal(t *testing.T) (*FileJournal, string) {
	t.Helper()
	dir := t.TempDir()
	j, err := NewFileJournal(dir, &mockLogger{})
	require.NoError(t, err)
	j.now = func() time.Time { return time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC) }
	return j, dir
}

func TestRecordTrade_WritesDatedFileWithHeader(t *testing.T) {
	j, dir := newTestJournal(t)

	trade := &domain.TradeRecord{
		Symbol: "BTC", Direction: domain.Long, Size: 1000, Price: 50000,
		Context: domain.ContextSnapshot{Regime: domain.RegimeRiskOn},
	}
	decision := &domain.Decision{
		Symbol: "BTC", Recommendation: domain.Long, SignalConfidence: 0.9,
		PositionSize: 1000, SignalSource: "demo",
		Reasons: []string{"Confidence: 90%"},
	}
	require.NoError(t, j.RecordTrade(context.Background(), trade, decision))

	data, err := os.ReadFile(filepath.Join(dir, "2025-06-01.md"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# Trading Journal - 2025-06-01")
	assert.Contains(t, content, "## 14:30:00 - BTC LONG")
	assert.Contains(t, content, "- Position Size: $1000.00")
	assert.Contains(t, content, "- Regime: risk_on")
	assert.Contains(t, content, "- Confidence: 90%")
}

func TestRecordTrade_HeaderWrittenOnce(t *testing.T) {
	j, dir := newTestJournal(t)
	trade := &domain.TradeRecord{Symbol: "ETH", Direction: domain.Long, Size: 500}

	require.NoError(t, j.RecordTrade(context.Background(), trade, nil))
	require.NoError(t, j.RecordTrade(context.Background(), trade, nil))

	data, err := os.ReadFile(filepath.Join(dir, "2025-06-01.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "# Trading Journal"))
	assert.Equal(t, 2, strings.Count(string(data), "## 14:30:00 - ETH LONG"))
}

func TestRecordOutcome_MarksWinOrLoss(t *testing.T) {
	j, dir := newTestJournal(t)
	trade := &domain.TradeRecord{Symbol: "BTC", Direction: domain.Close, Reason: "Hit stop loss at -6.00%"}

	require.NoError(t, j.RecordOutcome(context.Background(), trade, ports.TradeOutcome{PNL: -60, PNLPercent: -6}))

	data, err := os.ReadFile(filepath.Join(dir, "2025-06-01.md"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "- P&L: $-60.00 (-6.00%)")
	assert.Contains(t, content, "- Result: LOSS")
	assert.Contains(t, content, "- Exit Reason: Hit stop loss at -6.00%")
}

func TestDailySummary_WritesAndReturnsReport(t *testing.T) {
	j, dir := newTestJournal(t)

	summary, err := j.DailySummary(context.Background(), &domain.PerformanceStats{
		StartingCapital: 10000, CurrentValue: 10150, Cash: 9150,
		OpenPositions: 1, TotalTrades: 6, ClosedTrades: 4,
		WinRate: 50, TotalPNL: 100, TotalPNLPct: 1.5,
	})
	require.NoError(t, err)
	assert.Contains(t, summary, "# Daily Summary - 2025-06-01")
	assert.Contains(t, summary, "- Win Rate: 50.0%")

	data, err := os.ReadFile(filepath.Join(dir, "summary-2025-06-01.md"))
	require.NoError(t, err)
	assert.Equal(t, summary, string(data))
}
