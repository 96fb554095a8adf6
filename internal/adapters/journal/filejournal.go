// Package journal writes human-readable trade journal entries and daily
// summaries as per-day markdown files.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

// FileJournal appends markdown entries to one file per calendar day.
type FileJournal struct {
	dir    string
	logger ports.Logger
	now    func() time.Time
}

// NewFileJournal creates a journal writing under dir, creating it on
// first write.
func NewFileJournal(dir string, logger ports.Logger) (*FileJournal, error) {
	if dir == "" {
		dir = "./journals"
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for file journal")
	}
	return &FileJournal{dir: dir, logger: logger, now: time.Now}, nil
}

// RecordTrade appends an entry describing an executed trade and the
// decision behind it.
func (j *FileJournal) RecordTrade(ctx context.Context, trade *domain.TradeRecord, decision *domain.Decision) error {
	var b strings.Builder
	now := j.now()
	fmt.Fprintf(&b, "## %s - %s %s\n\n", now.Format("15:04:05"), trade.Symbol, trade.Direction)

	b.WriteString("### Decision\n")
	if decision != nil {
		fmt.Fprintf(&b, "- Action: %s\n", decision.Recommendation)
		fmt.Fprintf(&b, "- Confidence: %.0f%%\n", decision.SignalConfidence*100)
		fmt.Fprintf(&b, "- Position Size: $%.2f\n", decision.PositionSize)
		fmt.Fprintf(&b, "- Signal Source: %s\n\n", decision.SignalSource)
	} else {
		fmt.Fprintf(&b, "- Action: %s\n- Size: $%.2f\n\n", trade.Direction, trade.Size)
	}

	b.WriteString("### Market Context\n")
	writeContext(&b, trade.Context)

	if decision != nil && len(decision.Reasons) > 0 {
		b.WriteString("### Reasoning\n")
		for _, r := range decision.Reasons {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n")

	return j.append(ctx, b.String())
}

// RecordOutcome appends an entry describing the realized result of a
// closed position.
func (j *FileJournal) RecordOutcome(ctx context.Context, trade *domain.TradeRecord, outcome ports.TradeOutcome) error {
	var b strings.Builder
	now := j.now()
	fmt.Fprintf(&b, "## %s - %s CLOSE\n\n", now.Format("15:04:05"), trade.Symbol)

	b.WriteString("### Outcome\n")
	result := "WIN"
	if outcome.PNL < 0 {
		result = "LOSS"
	}
	fmt.Fprintf(&b, "- P&L: $%.2f (%.2f%%)\n", outcome.PNL, outcome.PNLPercent)
	fmt.Fprintf(&b, "- Result: %s\n", result)
	if trade.Reason != "" {
		fmt.Fprintf(&b, "- Exit Reason: %s\n", trade.Reason)
	}
	b.WriteString("\n### Market Context\n")
	writeContext(&b, trade.Context)
	b.WriteString("---\n")

	return j.append(ctx, b.String())
}

// DailySummary writes (and returns) the daily summary document built
// from current performance stats.
func (j *FileJournal) DailySummary(ctx context.Context, stats *domain.PerformanceStats) (string, error) {
	now := j.now()
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Summary - %s\n\n", now.Format("2006-01-02"))

	if stats != nil {
		b.WriteString("## Portfolio\n\n")
		fmt.Fprintf(&b, "- Value: $%.2f (started $%.2f)\n", stats.CurrentValue, stats.StartingCapital)
		fmt.Fprintf(&b, "- Cash: $%.2f\n", stats.Cash)
		fmt.Fprintf(&b, "- Open Positions: %d\n", stats.OpenPositions)
		fmt.Fprintf(&b, "- Total P&L: $%.2f (%.2f%%)\n\n", stats.TotalPNL, stats.TotalPNLPct)

		b.WriteString("## Trading\n\n")
		fmt.Fprintf(&b, "- Trades: %d (%d closed)\n", stats.TotalTrades, stats.ClosedTrades)
		fmt.Fprintf(&b, "- Win Rate: %.1f%%\n", stats.WinRate)
		fmt.Fprintf(&b, "- Avg Win / Avg Loss: $%.2f / $%.2f\n", stats.AvgWin, stats.AvgLoss)
		fmt.Fprintf(&b, "- Profit Factor: %.2f\n", stats.ProfitFactor)
	}

	summary := b.String()
	file := filepath.Join(j.dir, fmt.Sprintf("summary-%s.md", now.Format("2006-01-02")))
	if err := j.ensureDir(); err != nil {
		return "", err
	}
	if err := os.WriteFile(file, []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("failed to write daily summary: %w", err)
	}
	j.logger.Info(ctx, "Daily summary written", map[string]interface{}{"file": file})
	return summary, nil
}

func writeContext(b *strings.Builder, snap domain.ContextSnapshot) {
	regime := string(snap.Regime)
	if regime == "" {
		regime = "unknown"
	}
	fmt.Fprintf(b, "- Regime: %s\n", regime)
	if snap.FearGreed != nil {
		fmt.Fprintf(b, "- Fear/Greed: %d/100\n", *snap.FearGreed)
	}
	if snap.BTCChange24h != nil {
		fmt.Fprintf(b, "- BTC 24h: %.2f%%\n", *snap.BTCChange24h)
	}
	b.WriteString("\n")
}

func (j *FileJournal) append(ctx context.Context, entry string) error {
	if err := j.ensureDir(); err != nil {
		return err
	}
	file := filepath.Join(j.dir, j.now().Format("2006-01-02")+".md")
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.Size() == 0 {
		header := fmt.Sprintf("# Trading Journal - %s\n\n", j.now().Format("2006-01-02"))
		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("failed to write journal header: %w", err)
		}
	}
	if _, err := f.WriteString(entry + "\n"); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	j.logger.Debug(ctx, "Journal entry written", map[string]interface{}{"file": file})
	return nil
}

func (j *FileJournal) ensureDir() error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}
	return nil
}
