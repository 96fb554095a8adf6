package ports

import (
	"context"

	"papertrader/internal/domain"
)

// SignalSource produces trade signals for one loop iteration. Sources may
// consult the current market context to bias what they emit.
type SignalSource interface {
	Signals(ctx context.Context, mctx *domain.MarketContext) ([]domain.TradeSignal, error)
}
