package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"papertrader/config"
	"papertrader/internal/adapters/journal"
	"papertrader/internal/adapters/logger"
	"papertrader/internal/adapters/marketdata"
	"papertrader/internal/adapters/signals"
	"papertrader/internal/adapters/sqlite"
	"papertrader/internal/app"
	"papertrader/internal/domain"
	"papertrader/internal/ledger"
	"papertrader/internal/learner"
	"papertrader/internal/marketcontext"
	"papertrader/internal/ports"
	"papertrader/internal/utils"
)

const usage = `papertrader - automated crypto paper trading

Portfolio commands:
  init       [-capital N]                    initialize a fresh portfolio
  buy        -symbol S -size N [-price P]    open or add to a long position
  sell       -symbol S -size N [-price P]    reduce a long / open a short
  close      -symbol S [-price P]            close a position
  status                                     portfolio and performance
  history    [-limit N] [-csv FILE]          trade history
  context                                    current market context

Trading loop commands:
  iteration                                  run one trading loop pass
  dry-run                                    full pipeline, no execution
  manage     [-dry-run]                      evaluate position exits
  daily                                      daily summary + learner pass
  full                                       iteration + manage + daily
  last                                       last iteration snapshot

Learning commands:
  summary                                    learning summary report
  apply      -type T -value V -reason R      apply a learner suggestion
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize market data adapters and the context aggregator
	httpTimeout := cfg.HTTPTimeout
	market, err := marketcontext.New(marketcontext.Config{
		Sentiment: marketdata.NewAlternativeMeClient(httpTimeout),
		Dominance: marketdata.NewCoinGeckoClient(cfg.Symbols, httpTimeout),
		Funding:   marketdata.NewBinanceFundingClient(cfg.FundingSymbol),
		Prices:    marketdata.NewCoinGeckoClient(cfg.Symbols, httpTimeout),
		Cache:     repo,
		Logger:    appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market context service: %v", err)
	}

	// 5. Core services
	book, err := ledger.New(ledger.Config{
		Portfolios:      repo,
		Trades:          repo,
		Market:          market,
		Spot:            marketdata.NewCoinGeckoClient(cfg.Symbols, httpTimeout),
		Logger:          appLogger,
		StartingCapital: cfg.StartingCapital,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize ledger service: %v", err)
	}

	learn, err := learner.New(learner.Config{
		Trades:  repo,
		Configs: repo,
		Log:     repo,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize learner service: %v", err)
	}

	journ, err := journal.NewFileJournal("./journals", appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize journal: %v", err)
	}

	var signalSource ports.SignalSource = signals.NewStaticSource()
	if cfg.DemoSignals {
		signalSource = signals.NewDemoSource(cfg.Symbols, nil)
	}

	trader, err := app.NewTradingService(app.Config{
		Ledger:       book,
		Learner:      learn,
		Market:       market,
		Configs:      repo,
		Trades:       repo,
		Runs:         repo,
		SignalSource: signalSource,
		Journal:      journ,
		Logger:       appLogger,
		LookbackDays: cfg.LookbackDays,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}

	if err := run(ctx, command, args, cfg, book, learn, trader, market); err != nil {
		appLogger.Error(ctx, err, "Command failed", map[string]interface{}{"command": command})
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, cfg *config.Config, book *ledger.Service, learn *learner.Service, trader *app.TradingService, market *marketcontext.Service) error {
	switch command {
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		capital := fs.Float64("capital", cfg.StartingCapital, "starting capital in USD")
		fs.Parse(args)
		p, err := book.Init(ctx, *capital)
		if err != nil {
			return err
		}
		fmt.Printf("Portfolio initialized with $%.2f\n", p.StartingCapital)
		return nil

	case "buy", "sell":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		symbol := fs.String("symbol", "", "symbol, e.g. BTC")
		size := fs.Float64("size", 0, "position size in USD")
		price := fs.Float64("price", 0, "execution price (fetched when omitted)")
		reason := fs.String("reason", "manual", "why this trade is being made")
		fs.Parse(args)
		direction := domain.Long
		if command == "sell" {
			direction = domain.Short
		}
		trade, err := book.ExecuteTrade(ctx, ledger.TradeRequest{
			Symbol:    *symbol,
			Direction: direction,
			Size:      *size,
			Price:     *price,
			Reason:    *reason,
			Signal:    "manual",
		})
		if err != nil {
			return err
		}
		return printJSON(trade)

	case "close":
		fs := flag.NewFlagSet("close", flag.ExitOnError)
		symbol := fs.String("symbol", "", "symbol, e.g. BTC")
		price := fs.Float64("price", 0, "execution price (fetched when omitted)")
		reason := fs.String("reason", "manual close", "why the position is being closed")
		fs.Parse(args)
		trade, err := book.ExecuteTrade(ctx, ledger.TradeRequest{
			Symbol:    *symbol,
			Direction: domain.Close,
			Price:     *price,
			Reason:    *reason,
			Signal:    "manual",
		})
		if err != nil {
			return err
		}
		return printJSON(trade)

	case "status":
		stats, err := book.Performance(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)

	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		limit := fs.Int("limit", 50, "number of trades to show")
		csvFile := fs.String("csv", "", "export to CSV file instead of printing")
		fs.Parse(args)
		trades, err := book.History(ctx, *limit)
		if err != nil {
			return err
		}
		if *csvFile != "" {
			if err := utils.WriteTradesToCSV(trades, *csvFile); err != nil {
				return fmt.Errorf("CSV export failed: %w", err)
			}
			fmt.Printf("Wrote %d trades to %s\n", len(trades), *csvFile)
			return nil
		}
		return printJSON(trades)

	case "context":
		return printJSON(market.Context(ctx))

	case "iteration":
		result, err := trader.RunIteration(ctx, false)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "dry-run":
		result, err := trader.RunIteration(ctx, true)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "manage":
		fs := flag.NewFlagSet("manage", flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "evaluate exits without closing")
		fs.Parse(args)
		actions, err := trader.ManagePositions(ctx, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(actions)

	case "daily":
		analysis, err := trader.RunDailyMaintenance(ctx)
		if err != nil {
			return err
		}
		return printJSON(analysis)

	case "full":
		if _, err := trader.RunIteration(ctx, false); err != nil {
			return err
		}
		if _, err := trader.ManagePositions(ctx, false); err != nil {
			return err
		}
		analysis, err := trader.RunDailyMaintenance(ctx)
		if err != nil {
			return err
		}
		return printJSON(analysis)

	case "last":
		result, err := trader.LastRun(ctx)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println("No iterations recorded yet")
			return nil
		}
		return printJSON(result)

	case "summary":
		text, err := learn.Summary(ctx, cfg.LookbackDays)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil

	case "apply":
		fs := flag.NewFlagSet("apply", flag.ExitOnError)
		sType := fs.String("type", "", "suggestion type, e.g. RAISE_MIN_CONFIDENCE")
		value := fs.Float64("value", 0, "new value for the targeted field")
		reason := fs.String("reason", "", "why the change is being applied")
		fs.Parse(args)
		updated, err := learn.ApplySuggestion(ctx, domain.SuggestionType(*sType), *value, *reason)
		if err != nil {
			return err
		}
		return printJSON(updated)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
