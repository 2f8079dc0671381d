package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/lib/pq"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/internal/adapters/database"
	"github.com/hat3ck/cryptosense/internal/adapters/llm"
	"github.com/hat3ck/cryptosense/internal/adapters/price"
	redisAdapter "github.com/hat3ck/cryptosense/internal/adapters/redis"
	"github.com/hat3ck/cryptosense/internal/adapters/telegram"
	"github.com/hat3ck/cryptosense/internal/api"
	"github.com/hat3ck/cryptosense/internal/labeling"
	"github.com/hat3ck/cryptosense/internal/ml"
	"github.com/hat3ck/cryptosense/internal/prediction"
	"github.com/hat3ck/cryptosense/internal/prices"
	"github.com/hat3ck/cryptosense/internal/reddit"
	"github.com/hat3ck/cryptosense/internal/workers"
	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/worker"
)

const jobLockTTL = 10 * time.Minute

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("CryptoSense starting...",
		zap.Strings("currencies", cfg.Prediction.Currencies),
		zap.Int("horizon_hours", cfg.Prediction.HorizonHours),
	)

	// Core infrastructure
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), "./migrations"); err != nil {
		return err
	}

	// Price reads go to ClickHouse when available, Postgres otherwise
	priceDB := db.DB()
	if cfg.ClickHouse.Enabled {
		chDB, err := database.NewClickHouse(cfg.ClickHouse.GetDSN())
		if err != nil {
			logger.Warn("ClickHouse not available, using PostgreSQL fallback", zap.Error(err))
		} else {
			defer chDB.Close()
			priceDB = chDB.DB()
			logger.Info("✅ Price repository using ClickHouse")
		}
	}

	var redisClient *redisAdapter.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisAdapter.New(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	// Repositories
	redditRepo := reddit.NewRepository(db.DB())
	labelRepo := labeling.NewRepository(db.DB())
	priceRepo := prices.NewRepository(priceDB)
	predictionRepo := prediction.NewRepository(db.DB())

	if err := labeling.EnsureDefaultProvider(ctx, labelRepo, cfg.Labeling.DefaultProvider, cfg.Labeling.DefaultModel); err != nil {
		return err
	}

	// Labeling engine
	labelingEngine := labeling.NewEngine(
		redditRepo,
		labelRepo,
		llm.NewRegistry(&cfg.Labeling),
		labeling.NewValidator(cfg.Labeling.MinRowRatio, cfg.Labeling.MaxRowRatio),
		cfg.Labeling.BatchSize,
	)

	// Prediction pipeline
	pipeline := prediction.NewPipeline(
		redditRepo,
		labelRepo,
		priceRepo,
		predictionRepo,
		prediction.NewEngine(ml.NewRegistry()),
		cfg.Prediction,
	)

	var notifier *telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			logger.Warn("Telegram notifier unavailable, alerts disabled", zap.Error(err))
			notifier = nil
		}
	}

	// Background workers
	group := worker.NewWorkerGroup(ctx)
	startWorkers(cfg, group, redisClient, priceRepo, labelingEngine, pipeline, notifier)
	group.Start()

	// HTTP API
	server := api.NewServer(cfg.API, api.NewHandler(
		labelingEngine,
		labelRepo,
		pipeline,
		predictionRepo,
		healthChecks(db, redisClient),
	))

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	group.Stop(cfg.API.ShutdownTimeout)

	return nil
}

// initConfig loads configuration and initializes the logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// startWorkers registers every enabled background worker
func startWorkers(
	cfg *config.Config,
	group *worker.WorkerGroup,
	redisClient *redisAdapter.Client,
	priceRepo *prices.Repository,
	labelingEngine *labeling.Engine,
	pipeline *prediction.Pipeline,
	notifier *telegram.Notifier,
) {
	jobLock := func(name string) *redisAdapter.JobLock {
		if redisClient == nil {
			return nil
		}
		return redisClient.NewJobLock(name, jobLockTTL)
	}

	if cfg.Prices.WorkerEnabled {
		sources := []price.Source{price.NewCoinGeckoSource(cfg.Prices.CoinGeckoAPIKey)}
		if cfg.Prices.BinanceEnabled {
			binance, err := price.NewBinanceSource()
			if err != nil {
				logger.Warn("Binance price source unavailable", zap.Error(err))
			} else {
				sources = append(sources, binance)
			}
		}

		group.Add(workers.NewPriceWorker(
			sources, priceRepo,
			cfg.Prediction.Currencies, cfg.Prediction.MainCurrency,
			jobLock("price_snapshots"),
		), cfg.Prices.Interval)
	}

	if cfg.Labeling.WorkerEnabled {
		group.Add(workers.NewLabelingWorker(
			labelingEngine, cfg.Labeling.LookbackHours,
			jobLock("sentiment_labeling"),
		), cfg.Labeling.Interval)
	}

	if cfg.Prediction.WorkerEnabled {
		group.Add(workers.NewPredictionWorker(
			pipeline, notifier,
			jobLock("prediction_cycle"),
		), cfg.Prediction.Interval)
	}
}

// healthChecks builds the dependency probes exposed on /healthz
func healthChecks(db *database.DB, redisClient *redisAdapter.Client) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"database": func(context.Context) error { return db.Health() },
	}
	if redisClient != nil {
		checks["redis"] = func(context.Context) error { return redisClient.Health() }
	}
	return checks
}
