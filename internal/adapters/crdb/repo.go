package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/show-seat-booking/internal/booking"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/observability"
)

const (
	SerializationFailureCode = "40001"
	DeadlockDetectedCode     = "40P01"
	UniqueViolationCode      = "23505"

	activeSeatIndex = "bookings_active_seat_key"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a SERIALIZABLE transaction. Contention aborts, including
// those reported at commit, come back marked as domain.ErrTransient.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx booking.LedgerTx) error) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &ledgerTx{tx: tx, repo: r})
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return classify(errors.Wrap(err, "begin tx"))
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(errors.Wrap(err, "commit"))
	}
	return nil
}

// classify maps driver errors onto the domain taxonomy.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case SerializationFailureCode, DeadlockDetectedCode:
		return domain.Transient(err)
	case UniqueViolationCode:
		if pgErr.ConstraintName == activeSeatIndex {
			return errors.Mark(err, domain.ErrSeatAlreadyBooked)
		}
	}
	return err
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, show_id, seat_number, user_id, status, created_at, cancelled_at
		FROM bookings WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type ledgerTx struct {
	tx   pgx.Tx
	repo *Repository
}

func (t *ledgerTx) InsertBooking(ctx context.Context, b domain.Booking) error {
	result, err := t.tx.Exec(ctx, `
		INSERT INTO bookings (id, show_id, seat_number, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (show_id, seat_number) WHERE status = 'ACTIVE' DO NOTHING
	`, b.ID, b.ShowID, b.SeatNumber, b.UserID, string(b.Status), b.CreatedAt)
	if err != nil {
		return classify(errors.Wrap(err, "insert booking"))
	}
	if result.RowsAffected() == 0 {
		return errors.Wrapf(domain.ErrSeatAlreadyBooked, "show %d seat %d", b.ShowID, b.SeatNumber)
	}
	return nil
}

func (t *ledgerTx) FindActiveBooking(ctx context.Context, showID int64, seat int) (domain.Booking, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, show_id, seat_number, user_id, status, created_at, cancelled_at
		FROM bookings
		WHERE show_id = $1 AND seat_number = $2 AND status = 'ACTIVE'
		FOR UPDATE
	`, showID, seat)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, classify(err)
	}
	return b, nil
}

func (t *ledgerTx) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := t.tx.Exec(ctx, `
		UPDATE bookings SET status = 'CANCELLED', cancelled_at = $2
		WHERE id = $1 AND status = 'ACTIVE'
	`, id, at.UTC())
	if err != nil {
		return classify(errors.Wrap(err, "cancel booking"))
	}
	if result.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (t *ledgerTx) AppendEvent(ctx context.Context, ev domain.BookingEvent) error {
	rec, err := NewOutboxRecord(ev)
	if err != nil {
		return err
	}
	return t.repo.InsertOutbox(ctx, t.tx, rec)
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	var status string
	err := row.Scan(&b.ID, &b.ShowID, &b.SeatNumber, &b.UserID, &status, &b.CreatedAt, &b.CancelledAt)
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}
