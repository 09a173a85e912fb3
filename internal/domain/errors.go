package domain

import "github.com/cockroachdb/errors"

var (
	ErrShowNotFound      = errors.New("show not found")
	ErrInvalidSeat       = errors.New("invalid seat number")
	ErrSeatAlreadyBooked = errors.New("seat already booked")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingFailed     = errors.New("booking failed")

	// ErrTransient marks storage faults caused by contention (serialization
	// aborts, deadlocks). Only these are retried.
	ErrTransient = errors.New("transient storage fault")
)

// Transient marks err as retryable while keeping the original cause.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrTransient)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
