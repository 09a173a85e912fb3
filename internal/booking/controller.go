package booking

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("booking")

// Controller books and cancels seats. It is safe for concurrent use; mutual
// exclusion between racing bookings of one seat is delegated to the ledger's
// uniqueness constraint.
type Controller struct {
	inventory Inventory
	ledger    Ledger
	retry     RetryPolicy
	logger    observability.Logger
	now       func() time.Time
}

type Option func(*Controller)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) { c.retry = p }
}

func WithLogger(l observability.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(inventory Inventory, ledger Ledger, opts ...Option) *Controller {
	c := &Controller{
		inventory: inventory,
		ledger:    ledger,
		retry:     DefaultRetryPolicy(),
		logger:    observability.NopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Book allocates seat of show to userID. seat is the decimal encoding of the
// seat number.
func (c *Controller) Book(ctx context.Context, showID int64, seat string, userID string) (domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.Book")
	defer span.End()
	span.SetAttributes(attribute.Int64("show.id", showID), attribute.String("seat", seat))

	b, err := c.book(ctx, showID, seat, userID)
	c.observe(span, "book", err)
	return b, err
}

func (c *Controller) book(ctx context.Context, showID int64, seat string, userID string) (domain.Booking, error) {
	total, err := c.inventory.TotalSeats(ctx, showID)
	if err != nil {
		return domain.Booking{}, err
	}
	n, err := domain.ParseSeatNumber(seat)
	if err != nil {
		return domain.Booking{}, err
	}
	if !domain.ValidSeat(n, total) {
		return domain.Booking{}, errors.Wrapf(domain.ErrInvalidSeat, "seat %d outside 1..%d", n, total)
	}

	var booked domain.Booking
	err = retryTransient(ctx, c.retry, func() error {
		b := domain.NewBooking(showID, n, userID, c.now())
		err := c.ledger.WithTx(ctx, func(ctx context.Context, tx LedgerTx) error {
			if err := tx.InsertBooking(ctx, b); err != nil {
				return err
			}
			return tx.AppendEvent(ctx, domain.NewBookingEvent(domain.EventBookingCreated, b, b.CreatedAt))
		})
		if err == nil {
			booked = b
		}
		return err
	}, c.notifyRetry("book", showID, n))
	if err != nil {
		return domain.Booking{}, err
	}

	c.logger.WithField("booking_id", booked.ID.String()).Debug("seat booked")
	return booked, nil
}

// Cancel cancels the ACTIVE booking of seat when it belongs to userID. Absent
// and foreign bookings are indistinguishable to the caller.
func (c *Controller) Cancel(ctx context.Context, showID int64, seat string, userID string) (domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.Cancel")
	defer span.End()
	span.SetAttributes(attribute.Int64("show.id", showID), attribute.String("seat", seat))

	b, err := c.cancel(ctx, showID, seat, userID)
	c.observe(span, "cancel", err)
	return b, err
}

func (c *Controller) cancel(ctx context.Context, showID int64, seat string, userID string) (domain.Booking, error) {
	n, err := domain.ParseSeatNumber(seat)
	if err != nil {
		return domain.Booking{}, err
	}

	var cancelled domain.Booking
	err = retryTransient(ctx, c.retry, func() error {
		return c.ledger.WithTx(ctx, func(ctx context.Context, tx LedgerTx) error {
			b, err := tx.FindActiveBooking(ctx, showID, n)
			if err != nil {
				return err
			}
			if b.UserID != userID {
				return domain.ErrBookingNotFound
			}
			now := c.now()
			if err := tx.MarkCancelled(ctx, b.ID, now); err != nil {
				return err
			}
			cancelled = b.Cancelled(now)
			return tx.AppendEvent(ctx, domain.NewBookingEvent(domain.EventBookingCancelled, cancelled, now))
		})
	}, c.notifyRetry("cancel", showID, n))
	if errors.Is(err, domain.ErrBookingNotFound) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}

	c.logger.WithField("booking_id", cancelled.ID.String()).Debug("booking cancelled")
	return cancelled, nil
}

// UserBookings lists every booking of userID, newest first.
func (c *Controller) UserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	return c.ledger.ListByUser(ctx, userID)
}

func (c *Controller) notifyRetry(op string, showID int64, seat int) func(error, time.Duration) {
	return func(err error, wait time.Duration) {
		observability.TxRetries.WithLabelValues(op).Inc()
		c.logger.
			WithField("op", op).
			WithField("show_id", showID).
			WithField("seat", seat).
			WithField("backoff", wait.String()).
			WithError(err).
			Warn("transient ledger fault, retrying")
	}
}

func (c *Controller) observe(span spanRecorder, op string, err error) {
	outcome := Outcome(err)
	observability.BookingOutcomes.WithLabelValues(op, outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))
	if outcome == "error" || outcome == "failed" {
		span.SetStatus(codes.Error, err.Error())
	}
}

type spanRecorder interface {
	SetAttributes(kv ...attribute.KeyValue)
	SetStatus(code codes.Code, description string)
}

// Outcome names the result class of a Book or Cancel call.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrShowNotFound):
		return "show_not_found"
	case errors.Is(err, domain.ErrInvalidSeat):
		return "invalid_seat"
	case errors.Is(err, domain.ErrSeatAlreadyBooked):
		return "seat_taken"
	case errors.Is(err, domain.ErrBookingNotFound):
		return "booking_not_found"
	case errors.Is(err, domain.ErrBookingFailed):
		return "failed"
	default:
		return "error"
	}
}
