package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/show-seat-booking/internal/adapters/crdb"
	"github.com/robertarktes/show-seat-booking/internal/adapters/rabbit"
	"github.com/robertarktes/show-seat-booking/internal/config"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"github.com/robertarktes/show-seat-booking/internal/outbox"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "booking-outbox-publisher")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)
	observability.InitMetrics(prometheus.DefaultRegisterer)

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}
	defer rabbitPub.Close()

	publisher := outbox.NewPublisher(repo, rabbitPub, cfg.OutboxBatchSize, logger.WithField("component", "outbox"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Outbox publisher started")
		publisher.Run(gctx, cfg.OutboxPollInterval)
		return nil
	})
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	g.Go(func() error {
		return watchConnection(gctx, closed)
	})
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("outbox publisher stopped")
		os.Exit(1)
	}
	logger.Info("Shutdown outbox publisher")
}

// watchConnection returns once the broker connection closes, for any reason,
// so the group stops the relay instead of publishing on a dead channel.
func watchConnection(ctx context.Context, closed <-chan *amqp.Error) error {
	select {
	case <-ctx.Done():
		return nil
	case amqpErr, ok := <-closed:
		if ok && amqpErr != nil {
			return amqpErr
		}
		return errors.New("rabbitmq connection closed")
	}
}
