package signals

import (
	"context"

	"papertrader/internal/domain"
)

// StaticSource returns a fixed set of signals on every call. Used for
// dry runs and manual pipeline checks.
type StaticSource struct {
	signals []domain.TradeSignal
}

// NewStaticSource creates a source that always emits the given signals.
func NewStaticSource(signals ...domain.TradeSignal) *StaticSource {
	return &StaticSource{signals: signals}
}

func (s *StaticSource) Signals(_ context.Context, _ *domain.MarketContext) ([]domain.TradeSignal, error) {
	out := make([]domain.TradeSignal, len(s.signals))
	copy(out, s.signals)
	return out, nil
}
