package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/show-seat-booking/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/show-seat-booking/internal/adapters/mongo"
	redisadapter "github.com/robertarktes/show-seat-booking/internal/adapters/redis"
	"github.com/robertarktes/show-seat-booking/internal/booking"
	"github.com/robertarktes/show-seat-booking/internal/config"
	httphandler "github.com/robertarktes/show-seat-booking/internal/http"
	"github.com/robertarktes/show-seat-booking/internal/idempotency"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"github.com/robertarktes/show-seat-booking/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "booking-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)
	observability.InitMetrics(prometheus.DefaultRegisterer)

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	if err := crdb.CreateSchema(context.Background(), pool); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
	ledger := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	catalog := mongoadapter.NewCatalogRepository(mongoClient.Database(cfg.MongoDB), logger)
	var inventory booking.Inventory = catalog

	checks := map[string]httphandler.ReadinessCheck{
		"crdb":  pool.Ping,
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}

	var idempStore idempotency.Store
	var rl *rateLimit.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		inventory = redisadapter.NewInventoryCache(redisClient, inventory, cfg.InventoryCacheTTL, logger)
		idempStore = redisadapter.NewResponseStore(redisClient)
		rl = rateLimit.NewRateLimiter(redisadapter.NewCounter(redisClient))
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn("REDIS_ADDR not set: inventory cache, idempotency and rate limiting disabled")
	}

	controller := booking.NewController(inventory, ledger,
		booking.WithLogger(logger.WithField("component", "booking")),
		booking.WithRetryPolicy(booking.RetryPolicy{
			MaxAttempts:     cfg.BookMaxAttempts,
			InitialInterval: cfg.BookRetryInitial,
			MaxInterval:     cfg.BookRetryMax,
		}),
	)

	handlers := httphandler.NewHandlers(controller, catalog, idempotency.NewIdempotency(idempStore, cfg.IdempotencyTTL), logger, checks)
	r := httphandler.SetupRouter(handlers, logger, rl, httphandler.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
