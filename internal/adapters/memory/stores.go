// Package memory provides in-memory store implementations backing tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"
)

const learningLogCap = 500

// PortfolioStore is an in-memory ports.PortfolioStore.
type PortfolioStore struct {
	mu        sync.Mutex
	portfolio *domain.Portfolio
}

func NewPortfolioStore() *PortfolioStore { return &PortfolioStore{} }

func (s *PortfolioStore) Get(ctx context.Context) (*domain.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, nil
	}
	return clonePortfolio(s.portfolio), nil
}

func (s *PortfolioStore) Put(ctx context.Context, p *domain.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = clonePortfolio(p)
	return nil
}

func (s *PortfolioStore) Update(ctx context.Context, fn func(p *domain.Portfolio) error) (*domain.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not initialized: %w", ports.ErrNotFound)
	}
	working := clonePortfolio(s.portfolio)
	if err := fn(working); err != nil {
		return nil, err // No side effects on failure
	}
	s.portfolio = working
	return clonePortfolio(working), nil
}

func clonePortfolio(p *domain.Portfolio) *domain.Portfolio {
	c := *p
	c.Positions = make(map[string]*domain.Position, len(p.Positions))
	for sym, pos := range p.Positions {
		posCopy := *pos
		c.Positions[sym] = &posCopy
	}
	return &c
}

// TradeStore is an in-memory ports.TradeStore.
type TradeStore struct {
	mu     sync.Mutex
	trades []*domain.TradeRecord
}

func NewTradeStore() *TradeStore { return &TradeStore{} }

func (s *TradeStore) Append(ctx context.Context, trade *domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *trade
	s.trades = append(s.trades, &c)
	return nil
}

func (s *TradeStore) Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if len(s.trades) > limit {
		start = len(s.trades) - limit
	}
	out := make([]*domain.TradeRecord, 0, len(s.trades)-start)
	for _, t := range s.trades[start:] {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

// ConfigStore is an in-memory ports.ConfigStore.
type ConfigStore struct {
	mu  sync.Mutex
	cfg *domain.StrategyConfig
}

func NewConfigStore() *ConfigStore { return &ConfigStore{} }

func (s *ConfigStore) GetConfig(ctx context.Context) (*domain.StrategyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		s.cfg = domain.DefaultStrategyConfig(time.Now().UTC())
	}
	c := *s.cfg
	return &c, nil
}

func (s *ConfigStore) UpdateConfig(ctx context.Context, fn func(c *domain.StrategyConfig) error) (*domain.StrategyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		s.cfg = domain.DefaultStrategyConfig(time.Now().UTC())
	}
	working := *s.cfg
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.cfg = &working
	c := working
	return &c, nil
}

// LearningLogStore is an in-memory ports.LearningLogStore.
type LearningLogStore struct {
	mu     sync.Mutex
	events []*domain.LearningEvent
}

func NewLearningLogStore() *LearningLogStore { return &LearningLogStore{} }

func (s *LearningLogStore) AppendEvent(ctx context.Context, event *domain.LearningEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *event
	s.events = append(s.events, &c)
	if len(s.events) > learningLogCap {
		s.events = s.events[len(s.events)-learningLogCap:]
	}
	return nil
}

func (s *LearningLogStore) RecentEvents(ctx context.Context, limit int) ([]*domain.LearningEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]*domain.LearningEvent, 0, len(s.events)-start)
	for _, e := range s.events[start:] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

// PriceCacheStore is an in-memory ports.PriceCacheStore.
type PriceCacheStore struct {
	mu     sync.Mutex
	prices *domain.PriceSet
}

func NewPriceCacheStore() *PriceCacheStore { return &PriceCacheStore{} }

func (s *PriceCacheStore) GetPrices(ctx context.Context) (*domain.PriceSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prices == nil {
		return nil, nil
	}
	return clonePriceSet(s.prices), nil
}

func (s *PriceCacheStore) PutPrices(ctx context.Context, prices *domain.PriceSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = clonePriceSet(prices)
	return nil
}

func clonePriceSet(ps *domain.PriceSet) *domain.PriceSet {
	c := *ps
	c.Quotes = make(map[string]domain.Quote, len(ps.Quotes))
	for k, v := range ps.Quotes {
		c.Quotes[k] = v
	}
	return &c
}

// RunStore is an in-memory ports.RunStore.
type RunStore struct {
	mu   sync.Mutex
	last *domain.IterationResult
}

func NewRunStore() *RunStore { return &RunStore{} }

func (s *RunStore) PutRun(ctx context.Context, result *domain.IterationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Deep copy via JSON; run snapshots are small and written once per tick.
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	c := &domain.IterationResult{}
	if err := json.Unmarshal(payload, c); err != nil {
		return err
	}
	s.last = c
	return nil
}

func (s *RunStore) LastRun(ctx context.Context) (*domain.IterationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}
