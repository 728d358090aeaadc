package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apporder "github.com/marketday/backend/internal/application/order"
	"github.com/marketday/backend/internal/domain/basket"
	"github.com/marketday/backend/internal/domain/schedule"
	"github.com/marketday/backend/internal/domain/shared"
	"github.com/marketday/backend/internal/infrastructure/cache"
	"github.com/marketday/backend/internal/infrastructure/config"
	"github.com/marketday/backend/internal/infrastructure/logger"
	"github.com/marketday/backend/internal/infrastructure/persistence"
	"github.com/marketday/backend/internal/infrastructure/scheduler"
	"github.com/marketday/backend/internal/interfaces/http/handler"
	"github.com/marketday/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Market Day Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Resolve the schedule settings; validated at config load
	pickupWeekday, err := cfg.Schedule.Weekday()
	if err != nil {
		log.Fatal("Invalid pickup weekday", zap.Error(err))
	}
	location, err := cfg.Schedule.Location()
	if err != nil {
		log.Fatal("Invalid timezone", zap.Error(err))
	}

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	registry := persistence.NewGormProfileRegistry(db.DB)

	// Idempotency store: Redis when enabled, in-memory otherwise
	var idempotency shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotency = cache.NewRedisIdempotencyStore(redisClient)
		log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotency = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Domain services
	clock := shared.NewSystemClock(location)
	basketStore := basket.NewStore()
	calculator := schedule.NewCalculator(pickupWeekday, cfg.Schedule.PickupHour, cfg.Schedule.PickupMinute, schedule.Thresholds{
		Warning:  cfg.Schedule.WarnThreshold,
		Urgent:   cfg.Schedule.UrgentThreshold,
		Critical: cfg.Schedule.CriticThreshold,
	})
	coordinator := apporder.NewCoordinator(orderRepo, basketStore, calculator, clock, log)

	// Archive sweeper for stale empty orders
	if cfg.Sweep.Enabled {
		sweeper := scheduler.NewArchiveSweeper(orderRepo, coordinator, clock, cfg.Sweep.Interval, log)
		sweeper.Start()
		defer sweeper.Stop()
	}

	// HTTP handlers
	basketHandler := handler.NewBasketHandler(basketStore)
	basketStreamHandler := handler.NewBasketStreamHandler(basketStore, log)
	orderHandler := handler.NewOrderHandler(coordinator, registry, idempotency, cfg.Schedule.IdempotencyTTL, log)

	mode := gin.DebugMode
	if cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	engine := router.New(router.Handlers{
		Basket:       basketHandler,
		BasketStream: basketStreamHandler,
		Order:        orderHandler,
	}, log, mode, cfg.HTTP.MaxBodySize, db.Ping)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
