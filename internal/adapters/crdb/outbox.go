package crdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/show-seat-booking/internal/domain"
)

type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED
	DedupeKey     string
}

func NewOutboxRecord(ev domain.BookingEvent) (OutboxRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return OutboxRecord{}, errors.Wrap(err, "marshal booking event")
	}
	return OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "booking",
		AggregateID:   ev.BookingID,
		EventType:     ev.Type,
		Payload:       payload,
		DedupeKey:     ev.Type + ":" + ev.BookingID.String(),
	}, nil
}

func (r *Repository) InsertOutbox(ctx context.Context, tx pgx.Tx, record OutboxRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6)
	`, record.ID, record.AggregateType, record.AggregateID, record.EventType, record.Payload, record.DedupeKey)
	if err != nil {
		return classify(errors.Wrap(err, "insert outbox"))
	}
	return nil
}

// PublishPending locks up to limit unpublished records, hands each to publish
// in creation order and marks the delivered ones published. Locked rows are
// skipped so several relays can run side by side. It returns the records that
// were marked and the first publish failure, if any.
func (r *Repository) PublishPending(ctx context.Context, limit int, publish func(ctx context.Context, rec OutboxRecord) error) ([]OutboxRecord, error) {
	var done []OutboxRecord
	var pubErr error
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		done, pubErr = nil, nil
		rows, err := tx.Query(ctx, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, dedupe_key
			FROM outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return errors.Wrap(err, "select outbox")
		}
		records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OutboxRecord, error) {
			var rec OutboxRecord
			err := row.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.Status, &rec.DedupeKey)
			return rec, err
		})
		if err != nil {
			return errors.Wrap(err, "scan outbox")
		}

		for _, rec := range records {
			if err := publish(ctx, rec); err != nil {
				pubErr = errors.Wrapf(err, "publish outbox record %s", rec.ID)
				// Later records stay NEW so ordering is preserved.
				break
			}
			now := time.Now().UTC()
			if _, err := tx.Exec(ctx, `
				UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
			`, rec.ID, now); err != nil {
				return errors.Wrap(err, "mark published")
			}
			rec.PublishedAt = &now
			rec.Status = "PUBLISHED"
			done = append(done, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return done, pubErr
}
