package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertarktes/show-seat-booking/internal/domain"
)

func TestParseSeatNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"5", 5},
		{" 5 ", 5},
		{"98", 98},
		{"0", 0},
		{"-3", -3},
		{"+7", 7},
	}
	for _, tc := range tests {
		got, err := domain.ParseSeatNumber(tc.raw)
		require.NoError(t, err, "seat %q", tc.raw)
		assert.Equal(t, tc.want, got, "seat %q", tc.raw)
	}
}

func TestParseSeatNumber_Rejects(t *testing.T) {
	for _, raw := range []string{"", " ", "abc", "5.0", "5a", "0x10", "1e3", "99999999999999999999999"} {
		_, err := domain.ParseSeatNumber(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidSeat, "seat %q", raw)
	}
}

func TestValidSeat(t *testing.T) {
	assert.True(t, domain.ValidSeat(1, 98))
	assert.True(t, domain.ValidSeat(98, 98))
	assert.False(t, domain.ValidSeat(0, 98))
	assert.False(t, domain.ValidSeat(99, 98))
	assert.False(t, domain.ValidSeat(-1, 98))
	assert.False(t, domain.ValidSeat(1, 0))
}
