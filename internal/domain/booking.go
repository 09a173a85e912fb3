package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "ACTIVE"
	BookingCancelled BookingStatus = "CANCELLED"
)

type Show struct {
	ID         int64
	TotalSeats int
}

// Booking occupies one seat of a show while its status is ACTIVE.
type Booking struct {
	ID          uuid.UUID     `json:"id"`
	ShowID      int64         `json:"show_id"`
	SeatNumber  int           `json:"seat_number"`
	UserID      string        `json:"user_id"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

func NewBooking(showID int64, seat int, userID string, now time.Time) Booking {
	return Booking{
		ID:         uuid.New(),
		ShowID:     showID,
		SeatNumber: seat,
		UserID:     userID,
		Status:     BookingActive,
		CreatedAt:  now.UTC(),
	}
}

func (b Booking) IsActive() bool {
	return b.Status == BookingActive
}

// Cancelled returns a copy of b transitioned to CANCELLED at the given time.
func (b Booking) Cancelled(at time.Time) Booking {
	at = at.UTC()
	b.Status = BookingCancelled
	b.CancelledAt = &at
	return b
}
