// Package ledger owns the simulated paper portfolio. All portfolio
// mutation flows through ExecuteTrade; everything else is read-only.
package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"papertrader/internal/analytics"
	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

// TradeRequest describes one trade instruction for the paper portfolio.
// Price is optional; when zero the ledger resolves it from market data.
type TradeRequest struct {
	Symbol     string
	Direction  domain.Direction
	Size       float64 // dollars committed (ignored for CLOSE)
	Price      float64
	Reason     string
	Signal     string
	Confidence float64
}

// Service is the portfolio ledger.
type Service struct {
	portfolios ports.PortfolioStore
	trades     ports.TradeStore
	market     ports.ContextProvider
	spot       ports.PriceSource
	logger     ports.Logger

	startingCapital float64
	now             func() time.Time
}

// Config holds the ledger's dependencies.
type Config struct {
	Portfolios      ports.PortfolioStore
	Trades          ports.TradeStore
	Market          ports.ContextProvider
	Spot            ports.PriceSource
	Logger          ports.Logger
	StartingCapital float64
}

// New creates a portfolio ledger service.
func New(cfg Config) (*Service, error) {
	if cfg.Portfolios == nil {
		return nil, fmt.Errorf("portfolio store is required for ledger service")
	}
	if cfg.Trades == nil {
		return nil, fmt.Errorf("trade store is required for ledger service")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for ledger service")
	}
	starting := cfg.StartingCapital
	if starting <= 0 {
		starting = 10000
	}
	return &Service{
		portfolios:      cfg.Portfolios,
		trades:          cfg.Trades,
		market:          cfg.Market,
		spot:            cfg.Spot,
		logger:          cfg.Logger,
		startingCapital: starting,
		now:             time.Now,
	}, nil
}

// Init creates a fresh portfolio, replacing any existing one. A zero
// startingCapital uses the configured default.
func (s *Service) Init(ctx context.Context, startingCapital float64) (*domain.Portfolio, error) {
	if startingCapital <= 0 {
		startingCapital = s.startingCapital
	}
	p := domain.NewPortfolio(startingCapital, s.now().UTC())
	if err := s.portfolios.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to initialize portfolio: %w", err)
	}
	s.logger.Info(ctx, "Portfolio initialized", map[string]interface{}{"startingCapital": startingCapital})
	return p, nil
}

// Portfolio returns the current portfolio, creating a default one on
// first use.
func (s *Service) Portfolio(ctx context.Context) (*domain.Portfolio, error) {
	p, err := s.portfolios.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if p == nil {
		return s.Init(ctx, s.startingCapital)
	}
	return p, nil
}

// History returns the most recent trades up to limit, oldest first.
func (s *Service) History(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	return s.trades.Recent(ctx, limit)
}

// ExecuteTrade applies one trade instruction to the portfolio. The
// price is resolved before any state changes; a trade that cannot be
// priced aborts with ErrPriceUnavailable and no side effects.
func (s *Service) ExecuteTrade(ctx context.Context, req TradeRequest) (*domain.TradeRecord, error) {
	symbol := strings.ToUpper(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrInvalidRequest)
	}
	if !req.Direction.IsInstruction() {
		return nil, fmt.Errorf("direction %q is not a trade instruction: %w", req.Direction, ports.ErrInvalidRequest)
	}
	if req.Direction != domain.Close && req.Size <= 0 {
		return nil, fmt.Errorf("size must be positive: %w", ports.ErrInvalidRequest)
	}

	if _, err := s.Portfolio(ctx); err != nil {
		return nil, err
	}

	var mctx *domain.MarketContext
	if s.market != nil {
		mctx = s.market.Context(ctx)
	}
	price, err := s.resolvePrice(ctx, symbol, req.Price, mctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &domain.TradeRecord{
		ID:         "trade_" + uuid.NewString(),
		Timestamp:  now,
		Symbol:     symbol,
		Direction:  req.Direction,
		Size:       req.Size,
		Price:      price,
		Reason:     req.Reason,
		Signal:     req.Signal,
		Confidence: req.Confidence,
		Context:    mctx.Snapshot(),
	}

	_, err = s.portfolios.Update(ctx, func(p *domain.Portfolio) error {
		switch req.Direction {
		case domain.Close:
			if err := s.closePosition(p, symbol, price, record); err != nil {
				return err
			}
		case domain.Long:
			if err := s.openLong(p, symbol, req.Size, price, now, record); err != nil {
				return err
			}
		case domain.Short:
			s.applyShort(p, symbol, req.Size, price, now, record)
		}
		p.TotalValue = s.markToMarket(ctx, p, mctx)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.trades.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("trade executed but history append failed: %w", err)
	}
	s.logger.Info(ctx, "Trade executed", map[string]interface{}{
		"symbol":    symbol,
		"direction": string(req.Direction),
		"size":      req.Size,
		"price":     price,
	})
	return record, nil
}

// Performance computes portfolio and trade statistics over the recent
// history.
func (s *Service) Performance(ctx context.Context) (*domain.PerformanceStats, error) {
	p, err := s.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	trades, err := s.trades.Recent(ctx, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	return analytics.Compute(p, trades), nil
}

func (s *Service) closePosition(p *domain.Portfolio, symbol string, price float64, record *domain.TradeRecord) error {
	pos, ok := p.Positions[symbol]
	if !ok {
		return fmt.Errorf("no position in %s to close: %w", symbol, ports.ErrNoPosition)
	}
	pnl := roundCents(pos.UnrealizedPNL(price))
	pnlPct := 0.0
	if pos.CostBasis != 0 {
		pnlPct = pnl / pos.CostBasis * 100
	}
	record.Quantity = pos.Quantity
	record.PNL = &pnl
	record.PNLPercent = &pnlPct

	p.Cash += pos.CostBasis + pnl
	delete(p.Positions, symbol)
	return nil
}

// openLong opens or adds to a position. An existing position merges by
// weighted-average price regardless of its direction, so buying into a
// simplified short grows that short's book rather than replacing it.
func (s *Service) openLong(p *domain.Portfolio, symbol string, size, price float64, now time.Time, record *domain.TradeRecord) error {
	if size > p.Cash {
		return fmt.Errorf("insufficient cash: have $%.2f, need $%.2f: %w", p.Cash, size, ports.ErrInsufficientFunds)
	}
	quantity := size / price
	record.Quantity = quantity

	if existing, ok := p.Positions[symbol]; ok {
		newQuantity := existing.Quantity + quantity
		newCostBasis := existing.CostBasis + size
		existing.Quantity = newQuantity
		existing.CostBasis = newCostBasis
		existing.AvgPrice = newCostBasis / newQuantity
		existing.UpdatedAt = now
	} else {
		p.Positions[symbol] = &domain.Position{
			Symbol:    symbol,
			Direction: domain.Long,
			Quantity:  quantity,
			CostBasis: size,
			AvgPrice:  price,
			OpenedAt:  now,
			UpdatedAt: now,
		}
	}
	p.Cash -= size
	return nil
}

// applyShort reduces an existing long at the current price, realizing
// P&L on the reduced quantity. Without an existing long it opens a
// simplified short record with no margin modelled and no cash movement.
func (s *Service) applyShort(p *domain.Portfolio, symbol string, size, price float64, now time.Time, record *domain.TradeRecord) {
	quantity := size / price
	record.Quantity = quantity

	if existing, ok := p.Positions[symbol]; ok {
		if existing.Direction != domain.Long {
			return
		}
		reduceQty := math.Min(quantity, existing.Quantity)
		pnl := roundCents((price - existing.AvgPrice) * reduceQty)
		pnlPct := pnl / (reduceQty * existing.AvgPrice) * 100
		record.Quantity = reduceQty
		record.PNL = &pnl
		record.PNLPercent = &pnlPct

		existing.Quantity -= reduceQty
		existing.CostBasis = existing.Quantity * existing.AvgPrice
		existing.UpdatedAt = now
		p.Cash += reduceQty * price
		if existing.Exhausted() {
			delete(p.Positions, symbol)
		}
		return
	}

	p.Positions[symbol] = &domain.Position{
		Symbol:    symbol,
		Direction: domain.Short,
		Quantity:  quantity,
		CostBasis: size,
		AvgPrice:  price,
		OpenedAt:  now,
		UpdatedAt: now,
	}
}

// markToMarket revalues the portfolio at current prices. Positions
// without a resolvable price contribute nothing this cycle.
func (s *Service) markToMarket(ctx context.Context, p *domain.Portfolio, mctx *domain.MarketContext) float64 {
	total := p.Cash
	for symbol, pos := range p.Positions {
		price, err := s.resolvePrice(ctx, symbol, 0, mctx)
		if err != nil {
			s.logger.Warn(ctx, "No price for valuation, skipping position", map[string]interface{}{"symbol": symbol})
			continue
		}
		total += pos.MarketValue(price)
	}
	return total
}

// resolvePrice picks the first available of: explicit price, the market
// context's (possibly cached) quote, a direct spot lookup.
func (s *Service) resolvePrice(ctx context.Context, symbol string, explicit float64, mctx *domain.MarketContext) (float64, error) {
	if explicit > 0 {
		return explicit, nil
	}
	if mctx != nil {
		if q, ok := mctx.Components.Prices.Quote(symbol); ok && q.Price > 0 {
			return q.Price, nil
		}
	}
	if s.spot != nil {
		price, err := s.spot.Price(ctx, symbol)
		if err == nil && price > 0 {
			return price, nil
		}
		if err != nil {
			s.logger.Warn(ctx, "Spot price lookup failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		}
	}
	return 0, fmt.Errorf("could not get price for %s: %w", symbol, ports.ErrPriceUnavailable)
}

func roundCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
