package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/show-seat-booking/internal/domain"
)

// Inventory exposes show capacity. Unknown shows yield domain.ErrShowNotFound.
type Inventory interface {
	TotalSeats(ctx context.Context, showID int64) (int, error)
}

// Ledger is the persistent store of bookings. Implementations must enforce
// that at most one ACTIVE booking exists per (show, seat).
type Ledger interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
}

// LedgerTx holds the data-access functions available inside a transaction.
type LedgerTx interface {
	// InsertBooking fails with domain.ErrSeatAlreadyBooked when an ACTIVE
	// booking already holds the seat.
	InsertBooking(ctx context.Context, b domain.Booking) error
	// FindActiveBooking locks and returns the ACTIVE booking of a seat, or
	// domain.ErrBookingNotFound.
	FindActiveBooking(ctx context.Context, showID int64, seat int) (domain.Booking, error)
	// MarkCancelled transitions an ACTIVE booking to CANCELLED. A booking that
	// is no longer ACTIVE yields domain.ErrBookingNotFound.
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error
	AppendEvent(ctx context.Context, ev domain.BookingEvent) error
}
