package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"papertrader/internal/domain"
	"papertrader/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// learningLogCap bounds the learning log to the most recent N entries.
const learningLogCap = 500

// Repository implements the persisted stores (portfolio, trades, strategy
// config, learning log, price cache, run snapshot) using SQLite. Mutating
// operations on the portfolio and config run inside a single transaction,
// which is the single-writer boundary per logical entity.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/papertrader.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS portfolio (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		starting_capital REAL NOT NULL,
		cash REAL NOT NULL,
		total_value REAL NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS positions (
		symbol TEXT PRIMARY KEY,
		direction TEXT NOT NULL,
		quantity REAL NOT NULL,
		cost_basis REAL NOT NULL,
		avg_price REAL NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_history (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		size REAL NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		pnl REAL DEFAULT NULL,
		pnl_percent REAL DEFAULT NULL,
		reason TEXT,
		signal TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		regime TEXT,
		fear_greed INTEGER DEFAULT NULL,
		btc_change_24h REAL DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS strategy_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		min_confidence REAL NOT NULL,
		base_position_pct REAL NOT NULL,
		max_exposure_pct REAL NOT NULL,
		stop_loss_pct REAL NOT NULL,
		take_profit_pct REAL NOT NULL,
		regime_weight REAL NOT NULL,
		sentiment_weight REAL NOT NULL,
		loss_cooldown_minutes INTEGER NOT NULL,
		version INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		updated_reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS learning_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS price_cache (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trade_history_timestamp ON trade_history (timestamp);
	CREATE INDEX IF NOT EXISTS idx_trade_history_symbol ON trade_history (symbol, timestamp);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- PortfolioStore Implementation ---

// Get retrieves the portfolio with its open positions. Returns nil, nil
// when no portfolio has been initialized.
func (r *Repository) Get(ctx context.Context) (*domain.Portfolio, error) {
	return r.readPortfolio(ctx, r.db)
}

// Put replaces the portfolio wholesale, within one transaction.
func (r *Repository) Put(ctx context.Context, p *domain.Portfolio) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin portfolio transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.writePortfolio(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit portfolio: %w", err)
	}
	r.logger.Debug(ctx, "Portfolio stored", map[string]interface{}{"cash": p.Cash, "totalValue": p.TotalValue})
	return nil
}

// Update applies fn to the current portfolio inside one transaction. fn
// returning an error rolls back with no side effects.
func (r *Repository) Update(ctx context.Context, fn func(p *domain.Portfolio) error) (*domain.Portfolio, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin portfolio transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := r.readPortfolio(ctx, tx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("portfolio not initialized: %w", ports.ErrNotFound)
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	if err := r.writePortfolio(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit portfolio update: %w", err)
	}
	return p, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *Repository) readPortfolio(ctx context.Context, q querier) (*domain.Portfolio, error) {
	const query = `
	SELECT starting_capital, cash, total_value, created_at, updated_at
	FROM portfolio WHERE id = 1`

	p := &domain.Portfolio{Positions: make(map[string]*domain.Position)}
	err := q.QueryRowContext(ctx, query).Scan(&p.StartingCapital, &p.Cash, &p.TotalValue, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not initialized yet
		}
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	const posQuery = `
	SELECT symbol, direction, quantity, cost_basis, avg_price, opened_at, updated_at
	FROM positions`

	rows, err := q.QueryContext(ctx, posQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		pos := &domain.Position{}
		var direction string
		if err := rows.Scan(&pos.Symbol, &direction, &pos.Quantity, &pos.CostBasis, &pos.AvgPrice, &pos.OpenedAt, &pos.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pos.Direction = domain.Direction(direction)
		p.Positions[pos.Symbol] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return p, nil
}

func (r *Repository) writePortfolio(ctx context.Context, q querier, p *domain.Portfolio) error {
	const upsert = `
	INSERT INTO portfolio (id, starting_capital, cash, total_value, created_at, updated_at)
	VALUES (1, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		starting_capital = excluded.starting_capital,
		cash = excluded.cash,
		total_value = excluded.total_value,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, upsert, p.StartingCapital, p.Cash, p.TotalValue, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to write portfolio: %w", err)
	}

	// Positions are rewritten as a set; simpler than diffing and the row
	// count is tiny.
	if _, err := q.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}
	const insertPos = `
	INSERT INTO positions (symbol, direction, quantity, cost_basis, avg_price, opened_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, pos := range p.Positions {
		if _, err := q.ExecContext(ctx, insertPos,
			pos.Symbol, string(pos.Direction), pos.Quantity, pos.CostBasis, pos.AvgPrice, pos.OpenedAt, pos.UpdatedAt); err != nil {
			return fmt.Errorf("failed to write position %s: %w", pos.Symbol, err)
		}
	}
	return nil
}

// --- TradeStore Implementation ---

// Append writes one immutable trade record.
func (r *Repository) Append(ctx context.Context, trade *domain.TradeRecord) error {
	const query = `
	INSERT INTO trade_history (id, timestamp, symbol, direction, size, quantity, price,
	                           pnl, pnl_percent, reason, signal, confidence, regime, fear_greed, btc_change_24h)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var pnl, pnlPct sql.NullFloat64
	if trade.PNL != nil {
		pnl = sql.NullFloat64{Float64: *trade.PNL, Valid: true}
	}
	if trade.PNLPercent != nil {
		pnlPct = sql.NullFloat64{Float64: *trade.PNLPercent, Valid: true}
	}
	var fearGreed sql.NullInt64
	if trade.Context.FearGreed != nil {
		fearGreed = sql.NullInt64{Int64: int64(*trade.Context.FearGreed), Valid: true}
	}
	var btcChange sql.NullFloat64
	if trade.Context.BTCChange24h != nil {
		btcChange = sql.NullFloat64{Float64: *trade.Context.BTCChange24h, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		trade.ID, trade.Timestamp, trade.Symbol, string(trade.Direction), trade.Size, trade.Quantity, trade.Price,
		pnl, pnlPct, trade.Reason, trade.Signal, trade.Confidence, string(trade.Context.Regime), fearGreed, btcChange)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s for symbol %s: %w", trade.ID, trade.Symbol, err)
	}
	r.logger.Debug(ctx, "Trade recorded", map[string]interface{}{"tradeID": trade.ID, "symbol": trade.Symbol, "direction": trade.Direction})
	return nil
}

// Recent retrieves the most recent trades up to limit, oldest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	const query = `
	SELECT id, timestamp, symbol, direction, size, quantity, price,
	       pnl, pnl_percent, reason, signal, confidence, regime, fear_greed, btc_change_24h
	FROM trade_history ORDER BY timestamp DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade record: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (*domain.TradeRecord, error) {
	t := &domain.TradeRecord{}
	var direction, regime string
	var reason, signal sql.NullString
	var pnl, pnlPct, btcChange sql.NullFloat64
	var fearGreed sql.NullInt64
	err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &direction, &t.Size, &t.Quantity, &t.Price,
		&pnl, &pnlPct, &reason, &signal, &t.Confidence, &regime, &fearGreed, &btcChange)
	if err != nil {
		return nil, err
	}
	t.Direction = domain.Direction(direction)
	t.Context.Regime = domain.Regime(regime)
	if reason.Valid {
		t.Reason = reason.String
	}
	if signal.Valid {
		t.Signal = signal.String
	}
	if pnl.Valid {
		v := pnl.Float64
		t.PNL = &v
	}
	if pnlPct.Valid {
		v := pnlPct.Float64
		t.PNLPercent = &v
	}
	if fearGreed.Valid {
		v := int(fearGreed.Int64)
		t.Context.FearGreed = &v
	}
	if btcChange.Valid {
		v := btcChange.Float64
		t.Context.BTCChange24h = &v
	}
	return t, nil
}

// --- ConfigStore Implementation ---

// GetConfig retrieves the live strategy configuration, materializing and
// persisting defaults when none exists yet.
func (r *Repository) GetConfig(ctx context.Context) (*domain.StrategyConfig, error) {
	cfg, err := r.readConfig(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = domain.DefaultStrategyConfig(time.Now().UTC())
	if err := r.writeConfig(ctx, r.db, cfg); err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "Strategy config materialized with defaults", map[string]interface{}{"version": cfg.Version})
	return cfg, nil
}

// UpdateConfig applies fn to the current configuration inside one
// transaction.
func (r *Repository) UpdateConfig(ctx context.Context, fn func(c *domain.StrategyConfig) error) (*domain.StrategyConfig, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin config transaction: %w", err)
	}
	defer tx.Rollback()

	cfg, err := r.readConfig(ctx, tx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = domain.DefaultStrategyConfig(time.Now().UTC())
	}

	if err := fn(cfg); err != nil {
		return nil, err
	}

	if err := r.writeConfig(ctx, tx, cfg); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit config update: %w", err)
	}
	r.logger.Debug(ctx, "Strategy config updated", map[string]interface{}{"version": cfg.Version})
	return cfg, nil
}

func (r *Repository) readConfig(ctx context.Context, q querier) (*domain.StrategyConfig, error) {
	const query = `
	SELECT min_confidence, base_position_pct, max_exposure_pct, stop_loss_pct, take_profit_pct,
	       regime_weight, sentiment_weight, loss_cooldown_minutes, version, updated_at, updated_reason
	FROM strategy_config WHERE id = 1`

	cfg := &domain.StrategyConfig{}
	err := q.QueryRowContext(ctx, query).Scan(
		&cfg.MinConfidence, &cfg.BasePositionPct, &cfg.MaxExposurePct, &cfg.StopLossPct, &cfg.TakeProfitPct,
		&cfg.RegimeWeight, &cfg.SentimentWeight, &cfg.LossCooldownMinutes, &cfg.Version, &cfg.UpdatedAt, &cfg.UpdatedReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query strategy config: %w", err)
	}
	return cfg, nil
}

func (r *Repository) writeConfig(ctx context.Context, q querier, cfg *domain.StrategyConfig) error {
	const upsert = `
	INSERT INTO strategy_config (id, min_confidence, base_position_pct, max_exposure_pct, stop_loss_pct,
	                             take_profit_pct, regime_weight, sentiment_weight, loss_cooldown_minutes,
	                             version, updated_at, updated_reason)
	VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		min_confidence = excluded.min_confidence,
		base_position_pct = excluded.base_position_pct,
		max_exposure_pct = excluded.max_exposure_pct,
		stop_loss_pct = excluded.stop_loss_pct,
		take_profit_pct = excluded.take_profit_pct,
		regime_weight = excluded.regime_weight,
		sentiment_weight = excluded.sentiment_weight,
		loss_cooldown_minutes = excluded.loss_cooldown_minutes,
		version = excluded.version,
		updated_at = excluded.updated_at,
		updated_reason = excluded.updated_reason`

	_, err := q.ExecContext(ctx, upsert,
		cfg.MinConfidence, cfg.BasePositionPct, cfg.MaxExposurePct, cfg.StopLossPct, cfg.TakeProfitPct,
		cfg.RegimeWeight, cfg.SentimentWeight, cfg.LossCooldownMinutes, cfg.Version, cfg.UpdatedAt, cfg.UpdatedReason)
	if err != nil {
		return fmt.Errorf("failed to write strategy config: %w", err)
	}
	return nil
}

// --- LearningLogStore Implementation ---

// AppendEvent writes one learning event and evicts entries past the cap.
func (r *Repository) AppendEvent(ctx context.Context, event *domain.LearningEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal learning event: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO learning_log (timestamp, payload) VALUES (?, ?)`, event.Timestamp, string(payload)); err != nil {
		return fmt.Errorf("failed to insert learning event: %w", err)
	}
	// Keep only the most recent entries.
	const trim = `
	DELETE FROM learning_log
	WHERE id NOT IN (SELECT id FROM learning_log ORDER BY id DESC LIMIT ?)`
	if _, err := r.db.ExecContext(ctx, trim, learningLogCap); err != nil {
		return fmt.Errorf("failed to trim learning log: %w", err)
	}
	return nil
}

// RecentEvents retrieves the most recent learning events up to limit,
// oldest first.
func (r *Repository) RecentEvents(ctx context.Context, limit int) ([]*domain.LearningEvent, error) {
	const query = `
	SELECT payload FROM learning_log ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning log: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.LearningEvent, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan learning event: %w", err)
		}
		event := &domain.LearningEvent{}
		if err := json.Unmarshal([]byte(payload), event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal learning event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning log rows: %w", err)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// --- PriceCacheStore Implementation ---

// GetPrices retrieves the cached price snapshot. Returns nil, nil when
// nothing has been cached yet.
func (r *Repository) GetPrices(ctx context.Context) (*domain.PriceSet, error) {
	const query = `SELECT payload FROM price_cache WHERE id = 1`

	var payload string
	err := r.db.QueryRowContext(ctx, query).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query price cache: %w", err)
	}
	prices := &domain.PriceSet{}
	if err := json.Unmarshal([]byte(payload), prices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price cache: %w", err)
	}
	return prices, nil
}

// PutPrices replaces the cached price snapshot.
func (r *Repository) PutPrices(ctx context.Context, prices *domain.PriceSet) error {
	payload, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("failed to marshal price cache: %w", err)
	}
	const upsert = `
	INSERT INTO price_cache (id, payload, timestamp) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, timestamp = excluded.timestamp`
	if _, err := r.db.ExecContext(ctx, upsert, string(payload), prices.Timestamp); err != nil {
		return fmt.Errorf("failed to write price cache: %w", err)
	}
	return nil
}

// --- RunStore Implementation ---

// PutRun replaces the stored iteration snapshot.
func (r *Repository) PutRun(ctx context.Context, result *domain.IterationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal iteration result: %w", err)
	}
	const upsert = `
	INSERT INTO run_state (id, payload, updated_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, upsert, string(payload), result.Timestamp); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}

// LastRun retrieves the stored iteration snapshot. Returns nil, nil when
// no run has been recorded.
func (r *Repository) LastRun(ctx context.Context) (*domain.IterationResult, error) {
	const query = `SELECT payload FROM run_state WHERE id = 1`

	var payload string
	err := r.db.QueryRowContext(ctx, query).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query run state: %w", err)
	}
	result := &domain.IterationResult{}
	if err := json.Unmarshal([]byte(payload), result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run state: %w", err)
	}
	return result, nil
}
