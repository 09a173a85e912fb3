package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/show-seat-booking/internal/adapters/crdb"
	"github.com/robertarktes/show-seat-booking/internal/observability"
)

type Store interface {
	PublishPending(ctx context.Context, limit int, publish func(ctx context.Context, rec crdb.OutboxRecord) error) ([]crdb.OutboxRecord, error)
}

type Broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// Publisher relays committed outbox records to the broker.
type Publisher struct {
	store     Store
	broker    Broker
	batchSize int
	logger    observability.Logger
	now       func() time.Time
}

// NewPublisher relays batches of batchSize records; sizes below 1 are
// treated as 1.
func NewPublisher(store Store, broker Broker, batchSize int, logger observability.Logger) *Publisher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Publisher{store: store, broker: broker, batchSize: batchSize, logger: logger, now: time.Now}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				n, err := p.Flush(ctx)
				if err != nil {
					p.logger.WithError(err).Error("outbox flush failed")
					break
				}
				if n == 0 || n < p.batchSize {
					break
				}
			}
		}
	}
}

// Flush publishes one batch and returns how many records were delivered.
func (p *Publisher) Flush(ctx context.Context) (int, error) {
	done, err := p.store.PublishPending(ctx, p.batchSize, func(ctx context.Context, rec crdb.OutboxRecord) error {
		return p.broker.Publish(ctx, rec.EventType, amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Type:        rec.EventType,
			Timestamp:   rec.CreatedAt,
			Body:        rec.Payload,
		})
	})
	for _, rec := range done {
		observability.OutboxPublished.Inc()
		observability.OutboxLag.Set(p.now().Sub(rec.CreatedAt).Seconds())
	}
	return len(done), err
}
