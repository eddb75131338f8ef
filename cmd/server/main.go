package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/market-pulse/internal/clients/newsfeed"
	"github.com/aristath/market-pulse/internal/clients/polygon"
	"github.com/aristath/market-pulse/internal/clients/yahoo"
	"github.com/aristath/market-pulse/internal/config"
	"github.com/aristath/market-pulse/internal/database"
	"github.com/aristath/market-pulse/internal/events"
	"github.com/aristath/market-pulse/internal/modules/history"
	"github.com/aristath/market-pulse/internal/modules/moneyflow"
	"github.com/aristath/market-pulse/internal/modules/movers"
	"github.com/aristath/market-pulse/internal/modules/options"
	"github.com/aristath/market-pulse/internal/modules/trends"
	"github.com/aristath/market-pulse/internal/modules/value"
	"github.com/aristath/market-pulse/internal/scheduler"
	"github.com/aristath/market-pulse/internal/server"
	"github.com/aristath/market-pulse/pkg/cache"
	"github.com/aristath/market-pulse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Market Pulse")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	thresholds, err := options.LoadThresholds(cfg.ThresholdsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ThresholdsPath).Msg("Failed to load thresholds")
	}

	eventBus := events.NewManager(log)

	// Provider clients
	yahooClient := yahoo.NewClient(cfg.YahooBaseURL, log)
	polygonClient := polygon.NewClient(cfg.PolygonBaseURL, cfg.PolygonAPIKey, log)
	newsClient := newsfeed.NewClient(cfg.NewsBaseURL, cfg.NewsUsername, cfg.NewsPassword, log)

	// Analytics services
	flowService := moneyflow.NewService(yahooClient, log)

	optionsService := options.NewService(options.ServiceConfig{
		Quotes:      yahooClient,
		Chains:      yahooClient,
		Flow:        flowService,
		Cache:       cache.New(cfg.OptionsCacheTTL),
		Events:      eventBus,
		Thresholds:  thresholds,
		Expirations: cfg.Expirations,
		Policy:      options.PolicyStandard,
		Log:         log,
	})

	valueService := value.NewService(yahooClient, cache.New(cfg.ValueCacheTTL), log)

	moversService := movers.NewService(polygonClient, yahooClient,
		cache.New(cfg.MoversCacheTTL), 0, log)

	trendsRepo := trends.NewRepository(db.Conn(), log)
	trendsService := trends.NewService(moversService, trendsRepo, eventBus, log)

	historyRepo := history.NewRepository(db.Conn(), log)
	historyService := history.NewService(historyRepo, eventBus, log)

	// Background jobs
	session := scheduler.NewMarketSessionService(log)
	sched := scheduler.New(log)

	captureJob := scheduler.NewCaptureCycleJob(scheduler.CaptureCycleConfig{
		Scanner:   optionsService,
		Values:    valueService,
		Recorder:  historyService,
		Session:   session,
		Watchlist: cfg.Watchlist,
		ScanDelay: cfg.ScanDelay,
		Log:       log,
	})
	sectorJob := scheduler.NewSectorCaptureJob(trendsService, session, log)

	// Capture every 15 minutes during the trading week; sector stats
	// once after the close
	if err := sched.AddJob("0 */15 * * * MON-FRI", captureJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register capture job")
	}
	if err := sched.AddJob("0 30 16 * * MON-FRI", sectorJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sector capture job")
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DevMode: cfg.DevMode,
		Modules: []server.RouteRegistrar{
			options.NewHandler(optionsService, log),
			value.NewHandler(valueService, log),
			movers.NewHandler(moversService, log),
			trends.NewHandler(trendsService, log),
			history.NewHandler(historyService, log),
		},
		News:   newsClient,
		Events: eventBus,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
