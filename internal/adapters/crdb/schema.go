package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is valid on both CockroachDB and PostgreSQL. The partial unique index
// is what keeps a seat from holding two ACTIVE bookings.
const Schema = `
	CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		show_id INT8 NOT NULL,
		seat_number INT8 NOT NULL CHECK (seat_number > 0),
		user_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('ACTIVE', 'CANCELLED')),
		created_at TIMESTAMPTZ NOT NULL,
		cancelled_at TIMESTAMPTZ
	);
	CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_seat_key
		ON bookings (show_id, seat_number) WHERE status = 'ACTIVE';
	CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id, created_at DESC);
	CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'NEW' CHECK (status IN ('NEW', 'PUBLISHED')),
		dedupe_key TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS outbox_status_idx ON outbox (status, created_at);
`

func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return errors.Wrap(err, "create schema")
	}
	return nil
}
