package ports

import (
	"context"

	"papertrader/internal/domain"
)

// PortfolioStore persists the single portfolio snapshot. Mutations go
// through Update, which runs the closure inside one transaction per
// logical entity so concurrent read-modify-write cannot lose an update.
type PortfolioStore interface {
	// Get retrieves the portfolio. Returns nil, nil when none exists yet.
	Get(ctx context.Context) (*domain.Portfolio, error)
	// Put replaces the portfolio wholesale (used by init).
	Put(ctx context.Context, p *domain.Portfolio) error
	// Update applies fn to the current portfolio and persists the result
	// atomically. fn returning an error aborts with no side effects.
	Update(ctx context.Context, fn func(p *domain.Portfolio) error) (*domain.Portfolio, error)
}

// TradeStore is the append-only trade history log.
type TradeStore interface {
	// Append writes one immutable trade record.
	Append(ctx context.Context, trade *domain.TradeRecord) error
	// Recent retrieves the most recent trades up to limit, oldest first.
	Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
}

// ConfigStore persists the single current strategy configuration.
type ConfigStore interface {
	// GetConfig retrieves the live configuration, materializing defaults
	// when none exists yet.
	GetConfig(ctx context.Context) (*domain.StrategyConfig, error)
	// UpdateConfig applies fn to the current configuration and persists
	// the result atomically.
	UpdateConfig(ctx context.Context, fn func(c *domain.StrategyConfig) error) (*domain.StrategyConfig, error)
}

// LearningLogStore is the capped ring of most-recent learning events.
type LearningLogStore interface {
	// AppendEvent writes one learning event, evicting the oldest entries
	// past the store's cap.
	AppendEvent(ctx context.Context, event *domain.LearningEvent) error
	// RecentEvents retrieves the most recent events up to limit, oldest
	// first.
	RecentEvents(ctx context.Context, limit int) ([]*domain.LearningEvent, error)
}

// PriceCacheStore persists the single latest good price snapshot used as
// fallback when the live price source is unavailable.
type PriceCacheStore interface {
	// GetPrices retrieves the cached snapshot. Returns nil, nil when empty.
	GetPrices(ctx context.Context) (*domain.PriceSet, error)
	// PutPrices replaces the cached snapshot.
	PutPrices(ctx context.Context, prices *domain.PriceSet) error
}

// RunStore persists the latest trading-loop iteration snapshot for
// inspection.
type RunStore interface {
	// PutRun replaces the stored snapshot.
	PutRun(ctx context.Context, result *domain.IterationResult) error
	// LastRun retrieves the stored snapshot. Returns nil, nil when empty.
	LastRun(ctx context.Context) (*domain.IterationResult, error)
}
