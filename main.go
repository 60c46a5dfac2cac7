package main

import (
	"context"
	"log"
	"os"
	"time"

	"inventory/internal/app"
	"inventory/internal/cache"
	"inventory/internal/config"
	"inventory/internal/database"
	"inventory/internal/logging"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/rabbitmq"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// --- Configuration ---
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Database ---
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	store := repositories.NewGORMStore(db)
	if err := database.Seed(ctx, store); err != nil {
		logger.Fatal("Failed to seed categories", zap.Error(err))
	}

	healthChecks := map[string]app.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	opts := []services.Option{
		services.WithLowStockThreshold(cfg.LowStockThreshold),
		services.WithCurrency(cfg.Currency),
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		opts = append(opts, services.WithPublisher(mqClient))
		if err := mqClient.ConsumeAlerts(ctx, rabbitmq.LogAlert(logger)); err != nil {
			logger.Error("Failed to start low stock alert consumer", zap.Error(err))
		}
	} else {
		logger.Info("RABBITMQ_URL not set, inventory events are disabled")
	}

	// --- Redis report cache (optional) ---
	var reportCache *cache.ReportCache
	if cfg.RedisAddr != "" {
		reportCache = cache.New(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}), "inventory:", cfg.ReportCacheTTL)
		if err := reportCache.Ping(ctx); err != nil {
			logger.Warn("Redis not reachable, report cache will retry per request", zap.Error(err))
		}
		opts = append(opts, services.WithValuationCache(reportCache))
		healthChecks["redis"] = reportCache.Ping
	} else {
		logger.Info("REDIS_ADDR not set, report cache is disabled")
	}

	// --- Services and HTTP ---
	httpApp := app.New(app.Deps{
		Products:     services.NewProductService(store, logger, opts...),
		Inventory:    services.NewInventoryService(store, logger, opts...),
		Reports:      services.NewReportService(store, logger, opts...),
		Auth:         services.NewAuthService(store.Users(), cfg.JWTSecret, logger),
		Logger:       logger,
		HealthChecks: healthChecks,
	})

	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.AppPort))
		if err := httpApp.Listen(cfg.AppPort); err != nil {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// HTTP first so no request can start a unit of work on a closed pool.
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				logger.Info("Shutting down server...")
				err := httpApp.ShutdownWithContext(ctx)
				cancel()
				if mqClient != nil {
					if mqErr := mqClient.Close(); mqErr != nil {
						logger.Warn("Error closing RabbitMQ client", zap.Error(mqErr))
					}
				}
				if reportCache != nil {
					if cacheErr := reportCache.Close(); cacheErr != nil {
						logger.Warn("Error closing Redis client", zap.Error(cacheErr))
					}
				}
				if dbErr := database.Close(db); dbErr != nil {
					logger.Warn("Error closing database", zap.Error(dbErr))
				}
				return err
			},
		},
	)

	exitCode := <-wait
	logger.Info("Server gracefully stopped", zap.Int("exit_code", exitCode))
	_ = logger.Sync()
	os.Exit(exitCode)
}
