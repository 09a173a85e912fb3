// Package memory holds process-local implementations of the booking ports.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/show-seat-booking/internal/booking"
	"github.com/robertarktes/show-seat-booking/internal/domain"
)

type seatKey struct {
	showID int64
	seat   int
}

// Ledger emulates a table with a unique index on ACTIVE (show, seat) pairs.
// Every statement runs under a short critical section; transactions keep an
// undo log and never hold the lock across the caller's function.
type Ledger struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]domain.Booking
	active   map[seatKey]uuid.UUID
	events   []domain.BookingEvent
}

func NewLedger() *Ledger {
	return &Ledger{
		bookings: make(map[uuid.UUID]domain.Booking),
		active:   make(map[seatKey]uuid.UUID),
	}
}

func (l *Ledger) WithTx(ctx context.Context, fn func(ctx context.Context, tx booking.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &ledgerTx{l: l}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	l.mu.Lock()
	l.events = append(l.events, tx.events...)
	l.mu.Unlock()
	return nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Booking
	for _, b := range l.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Booking) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// Get returns a booking by id regardless of status.
func (l *Ledger) Get(id uuid.UUID) (domain.Booking, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	return b, ok
}

// Events returns the committed outbox events in commit order.
func (l *Ledger) Events() []domain.BookingEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

type ledgerTx struct {
	l      *Ledger
	undo   []func()
	events []domain.BookingEvent
}

// InsertBooking claims the seat immediately: other transactions see the claim
// before commit and it only disappears if this transaction rolls back.
func (t *ledgerTx) InsertBooking(ctx context.Context, b domain.Booking) error {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	key := seatKey{showID: b.ShowID, seat: b.SeatNumber}
	if b.IsActive() {
		if _, taken := t.l.active[key]; taken {
			return errors.Wrapf(domain.ErrSeatAlreadyBooked, "show %d seat %d", b.ShowID, b.SeatNumber)
		}
		t.l.active[key] = b.ID
	}
	t.l.bookings[b.ID] = b
	t.undo = append(t.undo, func() {
		delete(t.l.bookings, b.ID)
		if t.l.active[key] == b.ID {
			delete(t.l.active, key)
		}
	})
	return nil
}

func (t *ledgerTx) FindActiveBooking(ctx context.Context, showID int64, seat int) (domain.Booking, error) {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	id, ok := t.l.active[seatKey{showID: showID, seat: seat}]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return t.l.bookings[id], nil
}

func (t *ledgerTx) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	prev, ok := t.l.bookings[id]
	if !ok || !prev.IsActive() {
		return domain.ErrBookingNotFound
	}
	key := seatKey{showID: prev.ShowID, seat: prev.SeatNumber}
	t.l.bookings[id] = prev.Cancelled(at)
	delete(t.l.active, key)
	t.undo = append(t.undo, func() {
		t.l.bookings[id] = prev
		t.l.active[key] = id
	})
	return nil
}

func (t *ledgerTx) AppendEvent(ctx context.Context, ev domain.BookingEvent) error {
	t.events = append(t.events, ev)
	return nil
}

func (t *ledgerTx) rollback() {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}
