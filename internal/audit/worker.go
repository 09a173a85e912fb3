// Package audit records booking events consumed from the broker.
package audit

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/observability"
)

type Recorder interface {
	LogBookingEvent(ctx context.Context, ev domain.BookingEvent) error
}

type Worker struct {
	recorder Recorder
	logger   observability.Logger
}

func NewWorker(recorder Recorder, logger observability.Logger) *Worker {
	return &Worker{recorder: recorder, logger: logger}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformed):
		w.logger.WithError(err).WithField("message_id", d.MessageId).Warn("dropping malformed booking event")
		_ = d.Nack(false, false)
	default:
		w.logger.WithError(err).WithField("message_id", d.MessageId).Error("failed to record booking event")
		_ = d.Nack(false, true)
	}
}

var errMalformed = errors.New("malformed booking event")

func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var ev domain.BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Mark(errors.Wrap(err, "decode"), errMalformed)
	}
	switch ev.Type {
	case domain.EventBookingCreated, domain.EventBookingCancelled:
	default:
		return errors.Wrapf(errMalformed, "unknown event type %q", ev.Type)
	}
	return w.recorder.LogBookingEvent(ctx, ev)
}
