package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	LogLevel     string
	CRDBDSN      string
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RabbitURL    string
	JWTSecret    string
	OTLPEndpoint string

	BookMaxAttempts  int
	BookRetryInitial time.Duration
	BookRetryMax     time.Duration

	InventoryCacheTTL  time.Duration
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:     envStr("HTTP_ADDR", ":8080"),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		CRDBDSN:      os.Getenv("CRDB_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      envStr("MONGO_DB", "booking"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.BookMaxAttempts, err = envInt("BOOK_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.BookMaxAttempts < 1 {
		return nil, errors.Newf("BOOK_MAX_ATTEMPTS must be positive, got %d", cfg.BookMaxAttempts)
	}
	if cfg.BookRetryInitial, err = envDur("BOOK_RETRY_INITIAL", 10*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.BookRetryMax, err = envDur("BOOK_RETRY_MAX", 200*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.InventoryCacheTTL, err = envDur("INVENTORY_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = envDur("IDEMPOTENCY_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.OutboxPollInterval, err = envDur("OUTBOX_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxPollInterval <= 0 {
		return nil, errors.Newf("OUTBOX_POLL_INTERVAL must be positive, got %s", cfg.OutboxPollInterval)
	}
	if cfg.OutboxBatchSize, err = envInt("OUTBOX_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.OutboxBatchSize < 1 {
		return nil, errors.Newf("OUTBOX_BATCH_SIZE must be positive, got %d", cfg.OutboxBatchSize)
	}
	if cfg.RateLimitPerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid int for %s", key)
	}
	return n, nil
}

func envDur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration for %s", key)
	}
	return d, nil
}
