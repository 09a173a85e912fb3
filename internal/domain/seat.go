package domain

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseSeatNumber decodes the base-10 encoding of a seat number. Anything that
// is not a plain integer is an invalid seat.
func ParseSeatNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSeat, "seat %q", raw)
	}
	return n, nil
}

// ValidSeat reports whether seat lies in 1..total.
func ValidSeat(seat, total int) bool {
	return seat >= 1 && seat <= total
}
