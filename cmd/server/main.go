package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/dispatcher"
	"StockLens/internal/insights"
	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/scheduler"
	"StockLens/internal/server"
	"StockLens/internal/session"
	"StockLens/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	log := logger.GetLogger()
	log.Info("StockLens starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	log = logger.Configure(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	// Init store
	var st store.Store
	sqlStore, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Warn("open database failed, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		st = sqlStore
	}
	defer st.Close()

	// Init provider
	var provider collector.Provider
	if cfg.Provider.Name == config.ProviderMock {
		provider = demoProvider()
	} else {
		provider = collector.NewAlphaVantageProvider(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy, cfg.Provider.Timeout)
	}
	log.WithFields(logger.Fields{"provider": provider.Name()}).Info("data source ready")

	// One dispatcher for every caller of the provider
	disp := dispatcher.New(dispatcher.Options{
		MinInterval: cfg.Dispatcher.MinInterval,
		JobTimeout:  cfg.JobTimeout(),
	})
	col := collector.NewCollector(provider, st, disp, cfg.Cache.TTL, nil)
	svc := insights.NewService(col, insights.Options{
		DeadZone:        cfg.TrendDeadZone(),
		IncludeOverview: cfg.OverviewEnabled(),
	})
	sessions := session.NewManager()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, st, sender, scheduler.NewTradingCalendar(cfg.Schedule.CalendarMIC), "telegram:"+cfg.Telegram.ChatID)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, refreshing watchlist now")
		go sched.RunRefreshNow()
	}

	srv := server.New(server.Options{
		Addr:          cfg.Server.Addr,
		RatePerSecond: cfg.Server.RatePerSecond,
		Burst:         cfg.Server.Burst,
		Debug:         cfg.Log.Level == "debug",
	}, svc, st, sessions, disp)
	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("http server stopped")
			cancel()
		}
	}()

	log.Info("StockLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	sched.Stop()

	// queued fetches still run once and write the cache
	flushed := make(chan struct{})
	go func() {
		col.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-time.After(time.Minute):
		log.WithFields(logger.Fields{"pending": disp.Pending()}).Warn("gave up waiting for queued fetches")
	}
	log.Info("StockLens stopped")
}

// demoProvider serves generated data for a few symbols so the service runs
// without an API key.
func demoProvider() *collector.MockProvider {
	mp := collector.NewMockProvider()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	demo := map[string]float64{"AAPL": 172.5, "MSFT": 415.2, "IBM": 191.3}
	for sym, last := range demo {
		closes := make([]float64, 260)
		for i := range closes {
			// gentle drift with a weekly wobble
			closes[i] = last * (1 - 0.0008*float64(i)) * (1 + 0.01*float64(i%5-2)/2)
		}
		mp.Set(sym, model.DataTypeDaily, collector.MockDailyPayload(sym, today, closes))
		mp.Set(sym, model.DataTypeOverview, collector.MockOverviewPayload(sym, sym+" Inc", "24.5"))
	}
	return mp
}
