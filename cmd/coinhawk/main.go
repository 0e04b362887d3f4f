package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"coinhawk/internal/arbitrage"
	"coinhawk/internal/coinlist"
	"coinhawk/internal/config"
	"coinhawk/internal/exchange"
	"coinhawk/internal/hotlist"
	"coinhawk/internal/marketdata"
	"coinhawk/internal/metrics"
	"coinhawk/internal/notify"
	"coinhawk/internal/status"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics.Serve(ctx, cfg.Metrics.Addr, nil, logger)

	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		logger.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	hot := hotlist.NewStore(pool, cfg.HotList.Size, cfg.HotList.TTL())
	if err := hot.Migrate(ctx); err != nil {
		logger.Error("cannot migrate database", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	defer rdb.Close()

	clients := make(map[string]exchange.Client, len(cfg.Exchanges))
	for name, ec := range cfg.Exchanges {
		c, err := exchange.NewClient(name, logger, ec)
		if err != nil {
			logger.Error("cannot create exchange client", "exchange", name, "error", err)
			os.Exit(1)
		}
		clients[name] = c
	}

	store := marketdata.NewStore(rdb, clients, cfg.Redis.QuoteTTL(), logger)

	// Seed the hot list from the coin universe, then stream tickers for the
	// seeded pairs so the quote cache stays warm.
	coins := coinlist.New(cfg.CoinList.APIURL, cfg.CoinList.TopN, cfg.CoinList.CacheTTL(), logger)
	symbols, err := coins.Symbols(ctx)
	if err != nil {
		logger.Warn("coin universe bootstrap failed", "error", err)
	}
	if len(symbols) > cfg.HotList.Size {
		symbols = symbols[:cfg.HotList.Size]
	}
	pairs := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if err := hot.Add(ctx, sym, "universe_seed"); err != nil {
			logger.Warn("cannot seed hot list", "symbol", sym, "error", err)
			continue
		}
		pairs = append(pairs, sym+"/"+cfg.Arbitrage.QuoteCurrency)
	}
	go marketdata.RunStreams(ctx, clients, pairs, store, logger)

	statuses := status.NewRegistry(cfg.Exchanges, logger)
	fees := arbitrage.NewFeeCalculator(store, cfg.Arbitrage.TradeAmountUSD)
	verifier := arbitrage.NewBookVerifier(store, cfg.Arbitrage.BookTolerancePercent, logger)
	scanner := arbitrage.NewScanner(store, statuses, fees, verifier, cfg.Arbitrage, logger)

	var senders []notify.Sender
	if cfg.Telegram.BotToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	notifier := notify.NewNotifier(senders, logger)

	engine := arbitrage.NewEngine(logger, scanner, hot, notifier, cfg.Arbitrage)

	logger.Info("coinhawk started",
		"exchanges", len(clients),
		"hotSymbols", len(pairs),
		"scanInterval", cfg.Arbitrage.ScanInterval().String(),
	)

	ticker := time.NewTicker(cfg.Arbitrage.ScanInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			start := time.Now()
			opps := engine.RunCycle(ctx)
			metrics.ScanCycles.Inc()
			metrics.ScanDuration.Observe(time.Since(start).Seconds())
			logger.Info("scan cycle complete",
				"opportunities", len(opps),
				"took", time.Since(start).String(),
			)
		}
	}
}
