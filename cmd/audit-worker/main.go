package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/show-seat-booking/internal/adapters/mongo"
	"github.com/robertarktes/show-seat-booking/internal/adapters/rabbit"
	"github.com/robertarktes/show-seat-booking/internal/audit"
	"github.com/robertarktes/show-seat-booking/internal/config"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const auditQueue = "booking.audit"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "booking-audit-worker")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	auditLogger := mongoadapter.NewAuditLogger(mongoClient.Database(cfg.MongoDB), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, auditQueue, "booking.#", 50)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	worker := audit.NewWorker(auditLogger, logger.WithField("component", "audit"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("queue", auditQueue).Info("Audit worker started")
		return worker.Run(gctx, deliveries)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("audit worker stopped")
		os.Exit(1)
	}
	logger.Info("Shutdown audit worker")
}
