package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload written to the outbox and published to the broker.
type BookingEvent struct {
	Type       string        `json:"type"`
	BookingID  uuid.UUID     `json:"booking_id"`
	ShowID     int64         `json:"show_id"`
	SeatNumber int           `json:"seat_number"`
	UserID     string        `json:"user_id"`
	Status     BookingStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		ShowID:     b.ShowID,
		SeatNumber: b.SeatNumber,
		UserID:     b.UserID,
		Status:     b.Status,
		OccurredAt: at.UTC(),
	}
}
