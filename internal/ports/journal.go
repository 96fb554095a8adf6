package ports

import (
	"context"

	"papertrader/internal/domain"
)

// TradeOutcome describes the realized result of a closed trade, handed to
// the journal alongside the closing record.
type TradeOutcome struct {
	PNL        float64
	PNLPercent float64
}

// Journal is the external report/journal collaborator. It owns all
// human-readable formatting; this subsystem only hands it decision and
// outcome objects.
type Journal interface {
	// RecordTrade journals an executed trade with the decision behind it.
	RecordTrade(ctx context.Context, trade *domain.TradeRecord, decision *domain.Decision) error
	// RecordOutcome journals the realized outcome of a closed position.
	RecordOutcome(ctx context.Context, trade *domain.TradeRecord, outcome TradeOutcome) error
	// DailySummary produces the daily summary from current stats.
	DailySummary(ctx context.Context, stats *domain.PerformanceStats) (string, error)
}
